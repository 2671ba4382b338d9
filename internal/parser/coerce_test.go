package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func TestCoerceCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cell        model.Cell
		blankAsZero bool
		want        *float64
		status      CoerceStatus
	}{
		{"null as zero", model.NullCell(), true, model.FloatPtr(0), CoerceBlank},
		{"null as null", model.NullCell(), false, nil, CoerceBlank},
		{"whitespace", model.TextCell("   "), false, nil, CoerceBlank},
		{"number", model.NumberCell(3), true, model.FloatPtr(3), CoerceNumber},
		{"thousands", model.TextCell("1,234"), true, model.FloatPtr(1234), CoerceParsed},
		{"signed", model.TextCell(" -5 "), true, model.FloatPtr(-5), CoerceParsed},
		{"plus decimal", model.TextCell("+2.5"), false, model.FloatPtr(2.5), CoerceParsed},
		{"text", model.TextCell("abc"), false, model.FloatPtr(0), CoerceFallback},
		{"trailing dot", model.TextCell("1."), true, model.FloatPtr(0), CoerceFallback},
		{"date", model.DateCell(time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)), true, model.FloatPtr(0), CoerceFallback},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CoerceCount(tt.cell, tt.blankAsZero)
			assert.Equal(t, tt.status, got.Status)
			if tt.want == nil {
				assert.Nil(t, got.Value)
				return
			}
			require.NotNil(t, got.Value)
			assert.Equal(t, *tt.want, *got.Value)
		})
	}
}

func TestCoerceCount_FallbackIsLossy(t *testing.T) {
	t.Parallel()

	assert.True(t, CoerceCount(model.TextCell("n/a"), true).Lossy())
	assert.False(t, CoerceCount(model.TextCell("12"), true).Lossy())
	assert.False(t, CoerceCount(model.NullCell(), true).Lossy())
}
