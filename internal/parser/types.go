package parser

import (
	"time"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// SheetType Sheet 类型
type SheetType string

const (
	SheetTypeMonthly    SheetType = "monthly"      // GSTX 月度 sheet（名称中含月份数字）
	SheetTypeProvince   SheetType = "province"     // DMOSS 矩阵 sheet（名称即省份）
	SheetTypeCases      SheetType = "cases"        // 逐例明细表
	SheetTypeOutOfRange SheetType = "out_of_range" // 月份不在导入范围内
	SheetTypeUnknown    SheetType = "unknown"
)

// ParseResult 状态
const (
	StatusImported = "imported"
	StatusSkipped  = "skipped"
	StatusError    = "error"
)

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName string    `json:"sheetName"`
	SheetType SheetType `json:"sheetType"`
	Month     int       `json:"month,omitempty"`    // 识别出的月份（GSTX）
	Province  string    `json:"province,omitempty"` // 识别出的省份（DMOSS）
	Reason    string    `json:"reason,omitempty"`   // 跳过原因
}

// Importable 是否需要导入
func (r SheetRecognitionResult) Importable() bool {
	switch r.SheetType {
	case SheetTypeMonthly, SheetTypeProvince, SheetTypeCases:
		return true
	}
	return false
}

// CoercedCell 发生降级转换的单元格（诊断信息，不是错误）
type CoercedCell struct {
	Sheet  string       `json:"sheet"`
	Row    int          `json:"row"`
	Col    int          `json:"col"`
	Raw    string       `json:"raw"`
	Status CoerceStatus `json:"status"`
}

// ExtractResult 单个 sheet / 表格的抽取结果
type ExtractResult struct {
	Records  []model.Record
	Coerced  []CoercedCell
	Warnings []string
}

// ParseResult 解析结果
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	SheetType    SheetType     `json:"sheetType"`
	Status       string        `json:"status"` // imported/skipped/error
	ImportedRows int           `json:"importedRows"`
	CoercedCells int           `json:"coercedCells"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// ImportReport 导入报告
type ImportReport struct {
	Filename       string        `json:"filename"`
	Kind           string        `json:"kind"`
	TotalSheets    int           `json:"totalSheets"`
	ImportedSheets int           `json:"importedSheets"`
	SkippedSheets  int           `json:"skippedSheets"`
	ErrorSheets    int           `json:"errorSheets"`
	ImportedRows   int           `json:"importedRows"`
	CoercedCells   int           `json:"coercedCells"`
	Duration       time.Duration `json:"duration"`
	Sheets         []ParseResult `json:"sheets"`
}

// Add 累计一个 sheet 的结果
func (r *ImportReport) Add(res ParseResult) {
	r.TotalSheets++
	switch res.Status {
	case StatusImported:
		r.ImportedSheets++
	case StatusSkipped:
		r.SkippedSheets++
	case StatusError:
		r.ErrorSheets++
	}
	r.ImportedRows += res.ImportedRows
	r.CoercedCells += res.CoercedCells
	r.Sheets = append(r.Sheets, res)
}
