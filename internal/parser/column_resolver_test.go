package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func TestResolveIndex_PositionWins(t *testing.T) {
	t.Parallel()

	cols := make([]string, 20)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	cols[5] = "13"

	assert.Equal(t, 13, ResolveIndex(cols, ParseColumnToken("13")))
	assert.Equal(t, 0, ResolveIndex(cols, Position(0)))
}

func TestResolveIndex_NameMatching(t *testing.T) {
	t.Parallel()

	cols := []string{"STT", "Ho ten", "Ten tinh", "Tinh thanh"}
	assert.Equal(t, 2, ResolveIndex(cols, ParseColumnToken("TINH")))

	exact := []string{"Ngay xet nghiem", "Ngay"}
	assert.Equal(t, 1, ResolveIndex(exact, Name("Ngay")))

	assert.Equal(t, -1, ResolveIndex(cols, Name("HUYEN")))
	assert.Equal(t, -1, ResolveIndex(cols, ColumnToken{}))
}

func TestResolveIndex_OutOfRangePositionFallsBackToName(t *testing.T) {
	t.Parallel()

	cols := []string{"a", "b", "Col 25"}
	assert.Equal(t, 2, ResolveIndex(cols, ParseColumnToken("25")))
	assert.Equal(t, -1, ResolveIndex(cols, ParseColumnToken("7")))
}

func TestRequireColumn_NotFound(t *testing.T) {
	t.Parallel()

	tbl := model.NewTable("A", "B")
	_, err := RequireColumn(tbl, "province", Name("TINH"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnNotFound))

	var cnf *ColumnNotFoundError
	require.True(t, errors.As(err, &cnf))
	assert.Equal(t, "province", cnf.Field)
	assert.Equal(t, "TINH", cnf.Token)

	col, err := RequireColumn(tbl, "x", Name("b"))
	require.NoError(t, err)
	assert.Equal(t, "B", col)
}

func TestParseColumnTokens(t *testing.T) {
	t.Parallel()

	toks := ParseColumnTokens([]string{"41, 53,124", "Unnamed: 124", ""})
	require.Len(t, toks, 4)
	assert.True(t, toks[0].IsPosition())
	assert.Equal(t, 53, toks[1].Index())
	assert.False(t, toks[3].IsPosition())
	assert.Equal(t, "Unnamed: 124", toks[3].Text())

	assert.False(t, ParseColumnToken("-1").IsPosition())
	assert.False(t, ParseColumnToken("+3").IsPosition())
}
