package parser

import (
	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// DMOSS 矩阵默认布局：第 0 行为 "Tháng 1".."Tháng 12" 表头，
// 第 1-4 行为 D1..D4，第 6 行为检测总数（Tong）
var DefaultMetricRows = [5]int{1, 2, 3, 4, 6}

const DefaultMonthColumnStart = 1

// DMOSSOptions DMOSS 抽取参数
type DMOSSOptions struct {
	MonthColumnStart int
	MetricRows       [5]int
	Year             *int
}

// DefaultDMOSSOptions 默认参数
func DefaultDMOSSOptions() DMOSSOptions {
	return DMOSSOptions{MonthColumnStart: DefaultMonthColumnStart, MetricRows: DefaultMetricRows}
}

// DMOSSParser DMOSS 矩阵解析器（固定偏移，一个 sheet 对应一个省）
type DMOSSParser struct {
	opts DMOSSOptions
}

// NewDMOSSParser 创建解析器
func NewDMOSSParser(opts DMOSSOptions) *DMOSSParser {
	if opts.Year != nil {
		opts.Year = model.IntPtr(*opts.Year)
	}
	return &DMOSSParser{opts: opts}
}

// ParseGrid 固定输出 12 条记录（1-12 月），空单元格为 nil 而不是 0
func (p *DMOSSParser) ParseGrid(sheetName string, g model.Grid) ExtractResult {
	province := MustNormalizeKey(sheetName)
	res := ExtractResult{Records: make([]model.Record, 0, 12)}

	for i := 0; i < 12; i++ {
		col := p.opts.MonthColumnStart + i
		rec := model.Record{
			Province: province,
			District: model.StringPtr(""),
			Year:     p.opts.Year,
			Month:    model.IntPtr(i + 1),
			Sheet:    sheetName,
		}
		for m, row := range p.opts.MetricRows {
			cell := g.At(row, col)
			c := CoerceCount(cell, false)
			if c.Lossy() {
				res.Coerced = append(res.Coerced, CoercedCell{
					Sheet:  sheetName,
					Row:    row,
					Col:    col,
					Raw:    cell.String(),
					Status: c.Status,
				})
			}
			if m < model.SerotypeCount {
				rec.DEN[m] = c.Value
			} else {
				rec.TotalTest = c.Value
			}
		}
		res.Records = append(res.Records, rec)
	}
	return res
}
