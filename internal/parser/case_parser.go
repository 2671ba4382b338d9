package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// CaseOptions 逐例表（Mau_nhan）列定位参数
type CaseOptions struct {
	Province ColumnToken   // 必需
	District ColumnToken   // 可选
	Month    ColumnToken   // 可选，日期列
	Results  []ColumnToken // 检测结果列，按顺序
	Year     *int
}

// CaseParser 逐例表解析器：每行一例，根据结果列判定 DEN1..DEN4
type CaseParser struct {
	opts CaseOptions
}

// NewCaseParser 创建解析器
func NewCaseParser(opts CaseOptions) *CaseParser {
	if opts.Year != nil {
		opts.Year = model.IntPtr(*opts.Year)
	}
	opts.Results = append([]ColumnToken(nil), opts.Results...)
	return &CaseParser{opts: opts}
}

// caseColumns 已定位的列
type caseColumns struct {
	province string
	district string
	month    string
	results  []string
}

func (p *CaseParser) resolve(t *model.Table) (caseColumns, []string, error) {
	var cols caseColumns
	var warnings []string

	if p.opts.Province.IsZero() {
		return cols, nil, &ColumnNotFoundError{Field: "province"}
	}
	var err error
	if cols.province, err = RequireColumn(t, "province", p.opts.Province); err != nil {
		return cols, nil, err
	}

	optional := func(field string, tok ColumnToken) string {
		if tok.IsZero() {
			return ""
		}
		col, ok := ResolveColumn(t, tok)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s column not found (token %q), left empty", field, tok.Text()))
		}
		return col
	}
	cols.district = optional("district", p.opts.District)
	cols.month = optional("month", p.opts.Month)

	if cols.results, err = ResolveAll(t, "result", p.opts.Results); err != nil {
		return cols, nil, err
	}
	return cols, warnings, nil
}

// ParseTable 逐行生成原始记录（DEN 与检测数为 0/1 标记），供汇总使用。
// 必需列无法定位时返回 *ColumnNotFoundError。
func (p *CaseParser) ParseTable(t *model.Table) (ExtractResult, error) {
	cols, warnings, err := p.resolve(t)
	if err != nil {
		return ExtractResult{}, err
	}

	res := ExtractResult{Records: make([]model.Record, 0, t.Len()), Warnings: warnings}
	for i, row := range t.Rows {
		rec := model.Record{
			Year:  p.opts.Year,
			RowNo: i + 2,
		}
		if prov := NormalizeCell(row.Get(cols.province)); prov != nil {
			rec.Province = *prov
		}
		if cols.district != "" {
			rec.District = NormalizeCell(row.Get(cols.district))
		}
		if cols.month != "" {
			rec.Month = MonthOf(row.Get(cols.month))
		}

		for d := 0; d < model.SerotypeCount; d++ {
			rec.DEN[d] = model.Flag(hasSerotype(row, cols.results, d+1))
		}
		rec.TotalTest = model.Flag(anyResult(row, cols.results))
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// hasSerotype 任一结果列（去掉 "-" 后转大写）包含 DENn
func hasSerotype(row model.Row, cols []string, n int) bool {
	token := fmt.Sprintf("DEN%d", n)
	for _, c := range cols {
		cell := row.Get(c)
		if cell.IsNull() {
			continue
		}
		v := strings.ToUpper(strings.ReplaceAll(cell.String(), "-", ""))
		if strings.Contains(v, token) {
			return true
		}
	}
	return false
}

// anyResult 任一结果列非空即计为一次检测
func anyResult(row model.Row, cols []string) bool {
	for _, c := range cols {
		if !row.Get(c).IsNull() {
			return true
		}
	}
	return false
}

// 越南报表日期以日在前
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/2006 15:04:05",
	"2/1/06",
}

// MonthOf 取日期单元格的月份；Excel 序列号、日期单元格与常见文本格式均可，无法解析时为 nil
func MonthOf(c model.Cell) *int {
	switch c.Kind {
	case model.CellDate:
		return model.IntPtr(int(c.Time.Month()))
	case model.CellNumber:
		if c.Num < 1 || c.Num > 2958465 {
			return nil
		}
		t, err := excelize.ExcelDateToTime(c.Num, false)
		if err != nil {
			return nil
		}
		return model.IntPtr(int(t.Month()))
	case model.CellText:
		s := strings.TrimSpace(c.Text)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return model.IntPtr(int(t.Month()))
			}
		}
	}
	return nil
}
