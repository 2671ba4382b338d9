package model

import "time"

// 导入状态
const (
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportFailed     = "failed"
)

// ImportLog 一次数据源导入的记录
type ImportLog struct {
	ID             int64      `json:"id"`
	RunID          string     `json:"runId"`
	Kind           SourceKind `json:"kind"`
	Filename       string     `json:"filename"`
	FilePath       string     `json:"filePath"`
	FileSize       int64      `json:"fileSize"`
	FileHash       string     `json:"fileHash"`
	Status         string     `json:"status"`
	TotalSheets    int        `json:"totalSheets"`
	ImportedSheets int        `json:"importedSheets"`
	SkippedSheets  int        `json:"skippedSheets"`
	ErrorSheets    int        `json:"errorSheets"`
	ImportedRows   int        `json:"importedRows"`
	CoercedCells   int        `json:"coercedCells"`
	Columns        []string   `json:"columns"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// SheetMeta 单个 sheet 的导入结果（用于追溯与容错）
type SheetMeta struct {
	ID           int64  `json:"id"`
	ImportLogID  int64  `json:"importLogId"`
	SheetName    string `json:"sheetName"`
	SheetType    string `json:"sheetType"`
	Status       string `json:"status"`
	ImportedRows int    `json:"importedRows"`
	CoercedCells int    `json:"coercedCells"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
