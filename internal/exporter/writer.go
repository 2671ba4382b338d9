package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// DefaultSheetName 输出工作簿的 sheet 名
const DefaultSheetName = "Sheet1"

// SaveOptions 写出选项
type SaveOptions struct {
	SheetName string
	BOM       bool // CSV 是否写 UTF-8 BOM（便于 Excel 直接打开）
}

// SaveTable 按表格的列顺序写出，首行为表头；按扩展名选择 .xlsx 或 .csv
func SaveTable(t *model.Table, path string) error {
	return SaveTableWithOptions(t, path, SaveOptions{})
}

// SaveTableWithOptions 写出表格
func SaveTableWithOptions(t *model.Table, path string, opts SaveOptions) error {
	if t == nil {
		t = model.NewTable()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if isCSV(path) {
		return saveCSV(t, path, opts)
	}
	return saveXLSX(t, path, opts)
}

func saveXLSX(t *model.Table, path string, opts SaveOptions) error {
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range t.Rows {
		values := t.Values(i)
		row := make([]interface{}, len(values))
		for j, c := range values {
			row[j] = xlsxValue(c)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// xlsxValue 单元格 -> excelize 写入值：空值不写，整数按整数写
func xlsxValue(c model.Cell) interface{} {
	switch c.Kind {
	case model.CellNumber:
		if model.IsIntegral(c.Num) {
			return int64(c.Num)
		}
		return c.Num
	case model.CellText:
		return c.Text
	case model.CellDate:
		return c.String()
	default:
		return nil
	}
}

func saveCSV(t *model.Table, path string, opts SaveOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if opts.BOM {
		if _, err := file.WriteString(utf8BOM); err != nil {
			return err
		}
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range t.Rows {
		values := t.Values(i)
		record := make([]string, len(values))
		for j, c := range values {
			record[j] = c.String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return file.Close()
}
