package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
)

// ConvertOptions 工作簿转 CSV 选项
type ConvertOptions struct {
	Sheet     string // 单 sheet 模式下的 sheet 名，空为第一个
	AllSheets bool   // 每个 sheet 输出一个 CSV，out 为目录
	NoHeader  bool   // 无表头：列名为 COL1、COL2 …
	Progress  func(ProgressEvent)
}

// ConvertResult 转换结果
type ConvertResult struct {
	Files    []string
	Warnings []string
}

// ConvertWorkbook 把工作簿转成无变音符号的 CSV：
// 表头去变音符号、空白转下划线、去标点、转大写并去重；文本单元格去变音符号，数值不变。
func ConvertWorkbook(in, out string, opts ConvertOptions) (*ConvertResult, error) {
	if _, err := os.Stat(in); err != nil {
		return nil, parser.NewSourceError(parser.StageOpen, in, "", err)
	}
	res := &ConvertResult{}

	if !opts.AllSheets {
		reportProgress(opts.Progress, 0, "reading sheet")
		t, err := loadForConvert(in, opts.Sheet, opts.NoHeader)
		if err != nil {
			return nil, err
		}
		reportProgress(opts.Progress, 50, "writing csv")
		if err := SaveTable(t, out); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, out)
		reportProgress(opts.Progress, 100, "done")
		return res, nil
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	sheets, err := SheetNames(in)
	if err != nil {
		return nil, err
	}
	for i, sheet := range sheets {
		reportProgress(opts.Progress, i*100/len(sheets), "sheet "+sheet)
		t, err := loadForConvert(in, sheet, opts.NoHeader)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("skip sheet %s: %v", sheet, err))
			continue
		}
		file := filepath.Join(out, parser.SanitizeSheetName(sheet)+".csv")
		if err := SaveTable(t, file); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, file)
	}
	reportProgress(opts.Progress, 100, "done")
	return res, nil
}

func loadForConvert(path, sheet string, noHeader bool) (*model.Table, error) {
	g, err := LoadGrid(path, sheet, LoadOptions{})
	if err != nil {
		return nil, err
	}

	var t *model.Table
	if noHeader {
		cols := make([]string, g.Cols())
		for i := range cols {
			cols[i] = fmt.Sprintf("COL%d", i+1)
		}
		t = model.NewTable(cols...)
		for r := 0; r < g.Rows(); r++ {
			cells := make([]model.Cell, len(cols))
			for c := range cols {
				cells[c] = g.At(r, c)
			}
			t.Append(cells...)
		}
	} else {
		t = TableFromGrid(g)
	}
	return stripTable(t), nil
}

// stripTable 表头规范化，文本单元格去变音符号
func stripTable(t *model.Table) *model.Table {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = parser.SanitizeHeader(col)
	}
	out := model.NewTable(parser.UniqueHeaders(headers)...)
	for i := range t.Rows {
		values := t.Values(i)
		for j, c := range values {
			if c.Kind == model.CellText {
				values[j] = model.TextCell(parser.StripDiacritics(c.Text))
			}
		}
		out.Append(values...)
	}
	return out
}
