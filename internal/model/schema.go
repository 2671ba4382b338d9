package model

import "math"

// Schema 一类输出的列名口径
type Schema struct {
	Province  string
	District  string
	Year      string
	Month     string
	DEN       [SerotypeCount]string
	TotalTest string
}

// LegacySchema GSTX 启发式抽取与逐例汇总沿用的列名
var LegacySchema = Schema{
	Province:  "province",
	District:  "district",
	Year:      "year",
	Month:     "month",
	DEN:       [SerotypeCount]string{"No.DEN1", "No.DEN2", "No.DEN3", "No.DEN4"},
	TotalTest: "Total test",
}

// CanonicalSchema EDENGUE 合并表的规范列名
var CanonicalSchema = Schema{
	Province:  "province",
	District:  "district",
	Year:      "year",
	Month:     "Month",
	DEN:       [SerotypeCount]string{"No. DEN1", "No. DEN2", "No. DEN3", "No. DEN4"},
	TotalTest: "Total test",
}

// SchemaFor 数据源类型对应的输出口径
func SchemaFor(kind SourceKind) Schema {
	if kind == SourceDMOSS {
		return CanonicalSchema
	}
	return LegacySchema
}

// Columns 输出列顺序；withDistrict=false 时省略 district 列（省级汇总）
func (s Schema) Columns(withDistrict bool) []string {
	cols := []string{s.Province}
	if withDistrict {
		cols = append(cols, s.District)
	}
	cols = append(cols, s.Year, s.Month)
	cols = append(cols, s.DEN[:]...)
	cols = append(cols, s.TotalTest)
	return cols
}

// Table 记录 -> 表格
func (s Schema) Table(records []Record, withDistrict bool) *Table {
	t := NewTable(s.Columns(withDistrict)...)
	for _, r := range records {
		row := Row{
			s.Province:  TextCell(r.Province),
			s.Year:      intPtrCell(r.Year),
			s.Month:     intPtrCell(r.Month),
			s.TotalTest: PtrCell(r.TotalTest),
		}
		if withDistrict {
			if r.District != nil {
				row[s.District] = TextCell(*r.District)
			} else {
				row[s.District] = NullCell()
			}
		}
		for i, col := range s.DEN {
			row[col] = PtrCell(r.DEN[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Records 表格 -> 记录（读取已写出的结果表；缺失列为 nil）
func (s Schema) Records(t *Table) []Record {
	out := make([]Record, 0, t.Len())
	hasDistrict := t.HasColumn(s.District)
	for _, row := range t.Rows {
		r := Record{
			Province:  row.Get(s.Province).String(),
			Year:      cellInt(row.Get(s.Year)),
			Month:     cellInt(row.Get(s.Month)),
			TotalTest: cellFloat(row.Get(s.TotalTest)),
		}
		if hasDistrict {
			if c := row.Get(s.District); !c.IsNull() {
				r.District = StringPtr(c.String())
			}
		}
		for i, col := range s.DEN {
			r.DEN[i] = cellFloat(row.Get(col))
		}
		out = append(out, r)
	}
	return out
}

func intPtrCell(v *int) Cell {
	if v == nil {
		return NullCell()
	}
	return IntCell(*v)
}

func cellFloat(c Cell) *float64 {
	if c.Kind != CellNumber {
		return nil
	}
	return FloatPtr(c.Num)
}

func cellInt(c Cell) *int {
	if c.Kind != CellNumber || math.IsNaN(c.Num) {
		return nil
	}
	return IntPtr(int(c.Num))
}
