package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// CoerceStatus 单元格转换方式
type CoerceStatus int

const (
	CoerceBlank    CoerceStatus = iota // 空单元格（0 或 null，取决于路径）
	CoerceNumber                       // 原本就是数值
	CoerceParsed                       // 数字文本，已解析
	CoerceFallback                     // 非数字内容，降级为 0
)

func (s CoerceStatus) String() string {
	switch s {
	case CoerceBlank:
		return "blank"
	case CoerceNumber:
		return "number"
	case CoerceParsed:
		return "parsed"
	case CoerceFallback:
		return "fallback"
	}
	return "unknown"
}

// Coerced 转换结果
type Coerced struct {
	Value  *float64
	Status CoerceStatus
}

// Lossy 是否发生了信息丢失（非数字被当成 0）
func (c Coerced) Lossy() bool { return c.Status == CoerceFallback }

var numericText = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// CoerceCount 把单元格转换为计数值。
//
// 空单元格: blankAsZero 时为 0，否则为 nil；数值原样保留；
// 数字文本（去掉千分位逗号）解析为数值；其他文本与日期一律为 0，并标记 CoerceFallback。
// 非数字被当成 0 会把"明确为 0"与"不是数字"混为一谈，这里保留该行为，由状态位暴露给调用方。
func CoerceCount(cell model.Cell, blankAsZero bool) Coerced {
	blank := Coerced{Status: CoerceBlank}
	if blankAsZero {
		blank.Value = model.FloatPtr(0)
	}

	switch cell.Kind {
	case model.CellNull:
		return blank
	case model.CellNumber:
		if math.IsNaN(cell.Num) {
			return blank
		}
		return Coerced{Value: model.FloatPtr(cell.Num), Status: CoerceNumber}
	case model.CellText:
		t := strings.ReplaceAll(strings.TrimSpace(cell.Text), ",", "")
		if t == "" {
			return blank
		}
		if numericText.MatchString(t) {
			if v, err := strconv.ParseFloat(t, 64); err == nil {
				return Coerced{Value: model.FloatPtr(v), Status: CoerceParsed}
			}
		}
	}
	return Coerced{Value: model.FloatPtr(0), Status: CoerceFallback}
}
