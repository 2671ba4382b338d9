package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Đà Nẵng":         "DA NANG",
		"  hà   nội \t":   "HA NOI",
		"Thừa Thiên Huế":  "THUA THIEN HUE",
		"Quận 1":          "QUAN 1",
		"đắk lắk":         "DAK LAK",
		"TP. Hồ Chí Minh": "TP. HO CHI MINH",
		"AN GIANG":        "AN GIANG",
	}
	for in, want := range cases {
		got, ok := NormalizeKey(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, blank := range []string{"", "   ", "\t\n", "\u00a0"} {
		got, ok := NormalizeKey(blank)
		assert.False(t, ok, "%q", blank)
		assert.Empty(t, got)
	}
	// Excel 常见的不换行空格与全角空格
	assert.Equal(t, "QUAN 1", MustNormalizeKey("Quận\u00a01"))
	assert.Equal(t, MustNormalizeKey("Quận 1"), MustNormalizeKey("Quận\u00a0\u00a01"))
	assert.Equal(t, "HAI CHAU", MustNormalizeKey("\u00a0Hải\u2003 Châu\u3000"))
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Đà Nẵng", "Bà Rịa - Vũng Tàu", "  Điện  Biên ", "Kiên Giang\n", "x"} {
		once := MustNormalizeKey(in)
		assert.Equal(t, once, MustNormalizeKey(once), in)
		for _, r := range once {
			assert.Less(t, r, rune(128), "non-ascii rune in %q", once)
		}
	}
}

func TestNormalizeCell(t *testing.T) {
	t.Parallel()

	assert.Nil(t, NormalizeCell(model.NullCell()))
	assert.Nil(t, NormalizeCell(model.TextCell("")))
	assert.Nil(t, NormalizeCell(model.TextCell(" \u00a0 ")))
	require.NotNil(t, NormalizeCell(model.NumberCell(7)))
	assert.Equal(t, "7", *NormalizeCell(model.NumberCell(7)))
	assert.Equal(t, "HAI CHAU", *NormalizeCell(model.TextCell("Hải Châu")))
}

func TestSanitizeHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NGAY_KHOI_BENH", SanitizeHeader("Ngày khởi bệnh"))
	assert.Equal(t, "TINH", SanitizeHeader(" TỈNH "))
	assert.Equal(t, "MA_HUYEN", SanitizeHeader("Mã\u00a0huyện"))
	assert.Equal(t, "AB_C", SanitizeHeader("a-b (c)"))
	assert.Equal(t, "COL", SanitizeHeader(""))
	assert.Equal(t, "COL", SanitizeHeader("???"))
}

func TestUniqueHeaders(t *testing.T) {
	t.Parallel()

	got := UniqueHeaders([]string{"A", "A", "A_1", "B"})
	assert.Equal(t, []string{"A", "A_1", "A_1_1", "B"}, got)
}
