package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func TestSheetRecognizer_GSTXMonthBounds(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer(model.SourceGSTX, 7, 10)

	res := r.Recognize("Tháng 8")
	assert.Equal(t, SheetTypeMonthly, res.SheetType)
	assert.Equal(t, 8, res.Month)
	assert.True(t, res.Importable())

	res = r.Recognize("T11")
	assert.Equal(t, SheetTypeOutOfRange, res.SheetType)
	assert.False(t, res.Importable())
	assert.NotEmpty(t, res.Reason)

	res = r.Recognize("Tổng hợp")
	assert.Equal(t, SheetTypeUnknown, res.SheetType)
	assert.Equal(t, "no month number in sheet name", res.Reason)
}

func TestSheetRecognizer_DefaultBounds(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer(model.SourceGSTX, 0, 0)
	assert.True(t, r.InRange(1))
	assert.True(t, r.InRange(12))
	assert.False(t, r.InRange(13))
}

func TestSheetRecognizer_DMOSSProvince(t *testing.T) {
	t.Parallel()

	res := NewSheetRecognizer(model.SourceDMOSS, 1, 12).Recognize("Bến Tre")
	assert.Equal(t, SheetTypeProvince, res.SheetType)
	assert.Equal(t, "BEN TRE", res.Province)

	res = NewSheetRecognizer(model.SourceCases, 1, 12).Recognize("Sheet1")
	assert.Equal(t, SheetTypeCases, res.SheetType)
}
