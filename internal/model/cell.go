package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellNull   CellKind = iota // 空单元格
	CellNumber                 // 数值
	CellText                   // 文本
	CellDate                   // 日期（带日期格式的数值单元格）
)

// Cell 网格中的单个单元格
type Cell struct {
	Kind CellKind  `json:"kind"`
	Num  float64   `json:"num,omitempty"`
	Text string    `json:"text,omitempty"`
	Time time.Time `json:"time,omitempty"`
}

// NullCell 空值
func NullCell() Cell { return Cell{Kind: CellNull} }

// NumberCell 数值单元格
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Num: v} }

// TextCell 文本单元格
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// DateCell 日期单元格
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// IntCell 整数单元格
func IntCell(v int) Cell { return NumberCell(float64(v)) }

// PtrCell 可空数值 -> 单元格（nil 视为空值）
func PtrCell(v *float64) Cell {
	if v == nil {
		return NullCell()
	}
	return NumberCell(*v)
}

// IsNull 是否为空值。空白文本不算空值：读取器只把真正缺失的单元格当成 null。
func (c Cell) IsNull() bool {
	return c.Kind == CellNull
}

// IsBlank 空值或纯空白文本
func (c Cell) IsBlank() bool {
	return c.Kind == CellNull || (c.Kind == CellText && strings.TrimSpace(c.Text) == "")
}

// String 单元格的文本表示，整数值不带小数部分
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return FormatNumber(c.Num)
	case CellText:
		return c.Text
	case CellDate:
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal 比较两个单元格的值
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case CellNumber:
		return c.Num == o.Num
	case CellText:
		return c.Text == o.Text
	case CellDate:
		return c.Time.Equal(o.Time)
	default:
		return true
	}
}

// FormatNumber 数值格式化：无小数部分时按整数输出
func FormatNumber(v float64) string {
	if IsIntegral(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsIntegral 是否可无损转为整数
func IsIntegral(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v) && math.Abs(v) < 1<<53
}

// Grid 无表头的二维网格，按 (行, 列) 零基寻址
type Grid [][]Cell

// Rows 行数
func (g Grid) Rows() int { return len(g) }

// Cols 最大列数（各行长度可能不一致）
func (g Grid) Cols() int {
	max := 0
	for _, row := range g {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// At 读取单元格，越界返回空值
func (g Grid) At(r, c int) Cell {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return NullCell()
	}
	return g[r][c]
}

// GridFromStrings 由字符串二维数组构造网格（空串为 null，可解析为数值的为数值）
func GridFromStrings(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, row := range rows {
		g[i] = make([]Cell, len(row))
		for j, s := range row {
			g[i][j] = ParseCell(s)
		}
	}
	return g
}

// ParseCell 把读取器给出的原始字符串分类为 null / 数值 / 文本
func ParseCell(s string) Cell {
	if s == "" {
		return NullCell()
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && strings.TrimSpace(s) != "" {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			return NumberCell(v)
		}
	}
	return TextCell(s)
}
