package parser

import (
	"fmt"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct {
	kind     model.SourceKind
	monthMin int
	monthMax int
}

// NewSheetRecognizer 创建识别器；月份范围为闭区间，0 表示不限
func NewSheetRecognizer(kind model.SourceKind, monthMin, monthMax int) *SheetRecognizer {
	if monthMin <= 0 {
		monthMin = 1
	}
	if monthMax <= 0 {
		monthMax = 12
	}
	return &SheetRecognizer{kind: kind, monthMin: monthMin, monthMax: monthMax}
}

// Recognize 识别 Sheet 类型
func (r *SheetRecognizer) Recognize(sheetName string) SheetRecognitionResult {
	res := SheetRecognitionResult{SheetName: sheetName, SheetType: SheetTypeUnknown}

	switch r.kind {
	case model.SourceGSTX:
		month, ok := FirstNumber(sheetName)
		if !ok {
			res.Reason = "no month number in sheet name"
			return res
		}
		res.Month = month
		if !r.InRange(month) {
			res.SheetType = SheetTypeOutOfRange
			res.Reason = fmt.Sprintf("month %d outside %d-%d", month, r.monthMin, r.monthMax)
			return res
		}
		res.SheetType = SheetTypeMonthly
	case model.SourceDMOSS:
		province, ok := NormalizeKey(sheetName)
		if !ok {
			res.Reason = "empty sheet name"
			return res
		}
		res.Province = province
		res.SheetType = SheetTypeProvince
	case model.SourceCases:
		res.SheetType = SheetTypeCases
	default:
		res.Reason = fmt.Sprintf("unsupported source kind %q", r.kind)
	}
	return res
}

// InRange 月份是否在导入范围内
func (r *SheetRecognizer) InRange(month int) bool {
	return month >= r.monthMin && month <= r.monthMax
}
