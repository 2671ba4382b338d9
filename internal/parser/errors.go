package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreadable 文件或 sheet 无法被读取（跳过该单元，继续处理其他）
	ErrSourceUnreadable = errors.New("source unreadable")
	// ErrColumnNotFound 必需列无法解析（该数据源终止）
	ErrColumnNotFound = errors.New("column not found")
	// ErrNoSheets 工作簿中没有可用的 sheet
	ErrNoSheets = errors.New("no sheets")
)

// 出错阶段
const (
	StageOpen    = "open"
	StageRead    = "read"
	StageResolve = "resolve"
	StageExtract = "extract"
	StageWrite   = "write"
)

// SourceError 带阶段信息的数据源错误
type SourceError struct {
	Stage  string
	Source string
	Sheet  string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Stage, e.Source, e.Sheet, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is open/read 阶段的失败都视为 ErrSourceUnreadable
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnreadable && (e.Stage == StageOpen || e.Stage == StageRead)
}

// NewSourceError 创建数据源错误
func NewSourceError(stage, source, sheet string, err error) *SourceError {
	return &SourceError{Stage: stage, Source: source, Sheet: sheet, Err: err}
}

// ColumnNotFoundError 列解析失败
type ColumnNotFoundError struct {
	Field string
	Token string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found for %s (token %q)", e.Field, e.Token)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }
