package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
)

// LoadOptions 读取选项
type LoadOptions struct {
	// DetectDates 为 true 时，带日期格式的数值单元格读成日期
	DetectDates bool
}

const utf8BOM = "\xEF\xBB\xBF"

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// SheetNames 列出工作簿中的 sheet；CSV 文件视为只有一个以文件名命名的 sheet
func SheetNames(path string) ([]string, error) {
	if isCSV(path) {
		if _, err := os.Stat(path); err != nil {
			return nil, parser.NewSourceError(parser.StageOpen, path, "", err)
		}
		base := filepath.Base(path)
		return []string{strings.TrimSuffix(base, filepath.Ext(base))}, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, parser.NewSourceError(parser.StageOpen, path, "", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parser.NewSourceError(parser.StageOpen, path, "", parser.ErrNoSheets)
	}
	return sheets, nil
}

// LoadGrid 以无表头方式读取一个 sheet（sheet 为空时取第一个）
func LoadGrid(path, sheet string, opts LoadOptions) (model.Grid, error) {
	if isCSV(path) {
		return loadCSVGrid(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, parser.NewSourceError(parser.StageOpen, path, sheet, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, parser.NewSourceError(parser.StageOpen, path, "", parser.ErrNoSheets)
		}
		sheet = sheets[0]
	}

	g, err := newGridReader(f, sheet, opts).read()
	if err != nil {
		return nil, parser.NewSourceError(parser.StageRead, path, sheet, err)
	}
	return g, nil
}

// LoadTable 读取带表头的 sheet：第一行为列名，空列名记为 "Unnamed: N"，重复列名追加 ".1"、".2"
func LoadTable(path, sheet string) (*model.Table, error) {
	g, err := LoadGrid(path, sheet, LoadOptions{DetectDates: true})
	if err != nil {
		return nil, err
	}
	return TableFromGrid(g), nil
}

// TableFromGrid 网格首行作表头转为表格
func TableFromGrid(g model.Grid) *model.Table {
	if g.Rows() == 0 {
		return model.NewTable()
	}
	width := g.Cols()
	labels := make([]string, width)
	for c := 0; c < width; c++ {
		labels[c] = strings.TrimSpace(g.At(0, c).String())
	}
	t := model.NewTable(HeaderLabels(labels)...)
	for r := 1; r < g.Rows(); r++ {
		cells := make([]model.Cell, width)
		for c := 0; c < width; c++ {
			cells[c] = g.At(r, c)
		}
		t.Append(cells...)
	}
	return t
}

// HeaderLabels 补全空列名并为重复列名加序号
func HeaderLabels(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, label := range raw {
		if label == "" {
			label = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[label]; dup {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
		}
		out[i] = label
	}
	return out
}

// gridReader excelize sheet -> Grid，按单元格类型与数字格式分类
type gridReader struct {
	f          *excelize.File
	sheet      string
	opts       LoadOptions
	styleDates map[int]bool
}

func newGridReader(f *excelize.File, sheet string, opts LoadOptions) *gridReader {
	return &gridReader{f: f, sheet: sheet, opts: opts, styleDates: make(map[int]bool)}
}

func (r *gridReader) read() (model.Grid, error) {
	rows, err := r.f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	g := make(model.Grid, len(rows))
	for i, row := range rows {
		g[i] = make([]model.Cell, len(row))
		for j, raw := range row {
			cell, err := r.cell(i, j, raw)
			if err != nil {
				return nil, err
			}
			g[i][j] = cell
		}
	}
	return g, nil
}

func (r *gridReader) cell(row, col int, raw string) (model.Cell, error) {
	if raw == "" {
		return model.NullCell(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.TextCell(raw), nil
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return model.Cell{}, err
	}
	typ, err := r.f.GetCellType(r.sheet, axis)
	if err != nil {
		return model.Cell{}, err
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return model.TextCell(raw), nil
	case excelize.CellTypeBool:
		if v != 0 {
			return model.TextCell("TRUE"), nil
		}
		return model.TextCell("FALSE"), nil
	}

	if r.opts.DetectDates {
		isDate, err := r.dateStyled(axis)
		if err != nil {
			return model.Cell{}, err
		}
		if isDate {
			if t, err := excelize.ExcelDateToTime(v, false); err == nil {
				return model.DateCell(t), nil
			}
		}
	}
	return model.ParseCell(raw), nil
}

// dateStyled 单元格数字格式是否为日期（按样式 id 缓存）
func (r *gridReader) dateStyled(axis string) (bool, error) {
	idx, err := r.f.GetCellStyle(r.sheet, axis)
	if err != nil {
		return false, err
	}
	if v, ok := r.styleDates[idx]; ok {
		return v, nil
	}
	style, err := r.f.GetStyle(idx)
	if err != nil {
		r.styleDates[idx] = false
		return false, nil
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.styleDates[idx] = isDate
	return isDate, nil
}

// 内置日期格式：14-22 通用日期时间，27-36/50-58 东亚日期，45-47 时间
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDateFormatCode(code string) bool {
	c := strings.ToLower(code)
	// 去掉引号内文本与颜色/条件段
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, ch := range c {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(ch)
		}
	}
	s := b.String()
	return strings.Contains(s, "yy") || strings.Contains(s, "dd") ||
		(strings.Contains(s, "d") && strings.Contains(s, "m")) || strings.Contains(s, "mmm")
}

func loadCSVGrid(path string) (model.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, parser.NewSourceError(parser.StageOpen, path, "", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parser.NewSourceError(parser.StageRead, path, "", err)
		}
		if len(records) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
		}
		records = append(records, rec)
	}
	return model.GridFromStrings(records), nil
}
