package calculator

import (
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// Grouped 汇总结果
type Grouped struct {
	Records    []model.Record `json:"records"`
	ByDistrict bool           `json:"byDistrict"` // 分组键是否包含区县
}

// Table 按给定口径输出汇总表
func (g Grouped) Table(s model.Schema) *model.Table {
	return s.Table(g.Records, g.ByDistrict)
}

// groupKey 分组键；null 维度也是合法的独立分组
type groupKey struct {
	province    string
	district    string
	hasDistrict bool
	year        int
	hasYear     bool
	month       int
	hasMonth    bool
}

// Aggregate 按 (province, district?, year, month) 汇总记录。
//
// 只要有一条记录的 district 非空，district 就参与分组；否则按省级汇总。
// DEN1..DEN4 与检测总数求和，nil 计为 0。输出顺序为分组首次出现的顺序。
func Aggregate(records []model.Record) Grouped {
	byDistrict := false
	for _, r := range records {
		if r.District != nil {
			byDistrict = true
			break
		}
	}

	out := Grouped{Records: []model.Record{}, ByDistrict: byDistrict}
	index := make(map[groupKey]int)

	for _, r := range records {
		key := keyOf(r, byDistrict)
		i, ok := index[key]
		if !ok {
			i = len(out.Records)
			index[key] = i
			out.Records = append(out.Records, newGroup(r, byDistrict))
		}
		g := &out.Records[i]
		for d := range g.DEN {
			*g.DEN[d] += model.Value(r.DEN[d])
		}
		*g.TotalTest += model.Value(r.TotalTest)
	}
	return out
}

func keyOf(r model.Record, byDistrict bool) groupKey {
	k := groupKey{province: r.Province}
	if byDistrict && r.District != nil {
		k.district, k.hasDistrict = *r.District, true
	}
	if r.Year != nil {
		k.year, k.hasYear = *r.Year, true
	}
	if r.Month != nil {
		k.month, k.hasMonth = *r.Month, true
	}
	return k
}

func newGroup(r model.Record, byDistrict bool) model.Record {
	g := model.Record{Province: r.Province}
	if byDistrict && r.District != nil {
		g.District = model.StringPtr(*r.District)
	}
	if r.Year != nil {
		g.Year = model.IntPtr(*r.Year)
	}
	if r.Month != nil {
		g.Month = model.IntPtr(*r.Month)
	}
	for d := range g.DEN {
		g.DEN[d] = model.FloatPtr(0)
	}
	g.TotalTest = model.FloatPtr(0)
	return g
}
