package parser

import (
	"strings"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// DefaultMarker GSTX 汇总行标记
const DefaultMarker = "TC"

// DefaultBoilerplateKeywords 向上查找区县标签时跳过的表头/落款关键词
// （地址、厅、报告、备注、全省、收件方、研究所、日期、标记本身）
func DefaultBoilerplateKeywords() []string {
	return []string{"Địa", "SỞ", "BÁO", "Ghi chú", "TOÀN TỈNH", "Nơi nhận", "Viện", "Ngày", "TC"}
}

// DefaultValueColumns D..H 列：DEN1..DEN4 与检测总数
var DefaultValueColumns = [5]int{3, 4, 5, 6, 7}

// GSTXOptions GSTX 抽取参数
type GSTXOptions struct {
	Marker              string
	BoilerplateKeywords []string
	ValueColumns        [5]int
	Province            string
	Year                *int
}

// DefaultGSTXOptions 默认参数
func DefaultGSTXOptions() GSTXOptions {
	return GSTXOptions{
		Marker:              DefaultMarker,
		BoilerplateKeywords: DefaultBoilerplateKeywords(),
		ValueColumns:        DefaultValueColumns,
	}
}

// GSTXParser GSTX 月报解析器：以 "TC" 标记行定位区县汇总行
type GSTXParser struct {
	marker   string
	keywords []string
	cols     [5]int
	province string
	year     *int
}

// NewGSTXParser 创建解析器
func NewGSTXParser(opts GSTXOptions) *GSTXParser {
	marker := strings.ToUpper(strings.TrimSpace(opts.Marker))
	if marker == "" {
		marker = DefaultMarker
	}
	keywords := opts.BoilerplateKeywords
	if keywords == nil {
		keywords = DefaultBoilerplateKeywords()
	}
	var year *int
	if opts.Year != nil {
		year = model.IntPtr(*opts.Year)
	}
	return &GSTXParser{
		marker:   marker,
		keywords: append([]string(nil), keywords...),
		cols:     opts.ValueColumns,
		province: MustNormalizeKey(opts.Province),
		year:     year,
	}
}

// ParseSheet 解析一个 sheet，月份取 sheet 名中的第一段数字。
// sheet 名不含数字时返回 false（整表跳过，不是错误）。
func (p *GSTXParser) ParseSheet(sheetName string, g model.Grid) (ExtractResult, bool) {
	month, ok := FirstNumber(sheetName)
	if !ok {
		return ExtractResult{}, false
	}
	return p.ParseGrid(sheetName, month, g), true
}

// ParseGrid 每个标记行输出一条记录
func (p *GSTXParser) ParseGrid(sheetName string, month int, g model.Grid) ExtractResult {
	var res ExtractResult
	for _, row := range p.MarkerRows(g) {
		rec := model.Record{
			Province: p.province,
			District: model.StringPtr(p.findDistrictLabel(g, row)),
			Year:     p.year,
			Month:    model.IntPtr(month),
			RowNo:    row + 1,
			Sheet:    sheetName,
		}

		for i, col := range p.cols {
			cell := g.At(row, col)
			c := CoerceCount(cell, true)
			if c.Lossy() {
				res.Coerced = append(res.Coerced, CoercedCell{
					Sheet:  sheetName,
					Row:    row,
					Col:    col,
					Raw:    cell.String(),
					Status: c.Status,
				})
			}
			if i < model.SerotypeCount {
				rec.DEN[i] = c.Value
			} else {
				rec.TotalTest = c.Value
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// MarkerRows 找出所有标记行（任一单元格去空白转大写后等于标记）
func (p *GSTXParser) MarkerRows(g model.Grid) []int {
	var rows []int
	for r, row := range g {
		for _, cell := range row {
			if cell.IsNull() {
				continue
			}
			if strings.ToUpper(strings.TrimSpace(cell.String())) == p.marker {
				rows = append(rows, r)
				break
			}
		}
	}
	return rows
}

// findDistrictLabel 从标记行向上查找区县标签：先第 0 列，再第 1 列，都没有则为 UNKNOWN
func (p *GSTXParser) findDistrictLabel(g model.Grid, markerRow int) string {
	cols := g.Cols()
	for col := 0; col < 2 && col < cols; col++ {
		if label, ok := p.scanUp(g, markerRow, col); ok {
			return MustNormalizeKey(label)
		}
	}
	return model.DistrictUnknown
}

func (p *GSTXParser) scanUp(g model.Grid, markerRow, col int) (string, bool) {
	for r := markerRow - 1; r >= 0; r-- {
		cell := g.At(r, col)
		if cell.IsNull() {
			continue
		}
		s := strings.TrimSpace(cell.String())
		if s == "" || ContainsAnyFold(s, p.keywords) {
			continue
		}
		return s, true
	}
	return "", false
}
