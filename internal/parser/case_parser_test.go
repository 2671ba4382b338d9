package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func caseTable() *model.Table {
	tbl := model.NewTable("STT", "TỈNH", "HUYỆN", "NGÀY KHỞI BỆNH", "KQ1", "KQ2")
	tbl.Append(num(1), text("Hà Nội"), null(), model.DateCell(time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC)), text("DEN-1"), null())
	tbl.Append(num(2), text("Hà Nội"), null(), text("15/05/2021"), text("Âm tính"), null())
	tbl.Append(num(3), text("Đà Nẵng"), text("Hải Châu"), num(44197), null(), text("den2, DEN-3"))
	tbl.Append(num(4), text("Hà nội"), null(), text("not a date"), null(), null())
	return tbl
}

func caseOptions() CaseOptions {
	return CaseOptions{
		Province: ParseColumnToken("1"),
		District: Name("HUYỆN"),
		Month:    Name("ngày"),
		Results:  []ColumnToken{Name("KQ"), Position(5)},
		Year:     model.IntPtr(2021),
	}
}

func TestCaseParser_Flags(t *testing.T) {
	t.Parallel()

	res, err := NewCaseParser(caseOptions()).ParseTable(caseTable())
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	assert.Empty(t, res.Warnings)

	r0, r1, r2, r3 := res.Records[0], res.Records[1], res.Records[2], res.Records[3]

	assert.Equal(t, "HA NOI", r0.Province)
	assert.Nil(t, r0.District)
	assert.Equal(t, 5, *r0.Month)
	assert.Equal(t, 2021, *r0.Year)
	assert.Equal(t, 1.0, *r0.DEN[0])
	assert.Equal(t, 0.0, *r0.DEN[1])
	assert.Equal(t, 1.0, *r0.TotalTest)

	assert.Equal(t, 5, *r1.Month)
	assert.Equal(t, 0.0, *r1.DEN[0])
	assert.Equal(t, 1.0, *r1.TotalTest)

	assert.Equal(t, "DA NANG", r2.Province)
	assert.Equal(t, "HAI CHAU", *r2.District)
	assert.Equal(t, 1, *r2.Month)
	assert.Equal(t, 0.0, *r2.DEN[0])
	assert.Equal(t, 1.0, *r2.DEN[1])
	assert.Equal(t, 1.0, *r2.DEN[2])
	assert.Equal(t, 0.0, *r2.DEN[3])

	assert.Nil(t, r3.Month)
	assert.Equal(t, 0.0, *r3.TotalTest)
}

func TestCaseParser_ProvinceRequired(t *testing.T) {
	t.Parallel()

	opts := caseOptions()
	opts.Province = Name("PROVINCE")
	_, err := NewCaseParser(opts).ParseTable(caseTable())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnNotFound))

	opts.Province = ColumnToken{}
	_, err = NewCaseParser(opts).ParseTable(caseTable())
	assert.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestCaseParser_MissingResultColumnIsFatal(t *testing.T) {
	t.Parallel()

	opts := caseOptions()
	opts.Results = []ColumnToken{Name("KQ"), Name("PCR")}
	_, err := NewCaseParser(opts).ParseTable(caseTable())

	var cnf *ColumnNotFoundError
	require.True(t, errors.As(err, &cnf))
	assert.Equal(t, "result", cnf.Field)
	assert.Equal(t, "PCR", cnf.Token)
}

func TestCaseParser_OptionalColumnsMissing(t *testing.T) {
	t.Parallel()

	opts := caseOptions()
	opts.Month = Name("ONSET")
	opts.District = ColumnToken{}
	opts.Results = nil
	res, err := NewCaseParser(opts).ParseTable(caseTable())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	for _, r := range res.Records {
		assert.Nil(t, r.Month)
		assert.Nil(t, r.District)
		assert.Equal(t, 0.0, *r.TotalTest)
		assert.Equal(t, 0.0, *r.DEN[0])
	}
}

func TestMonthOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12, *MonthOf(text("2020-12-31")))
	assert.Equal(t, 3, *MonthOf(text("1/3/2020")))
	assert.Equal(t, 7, *MonthOf(num(44383)))
	assert.Nil(t, MonthOf(null()))
	assert.Nil(t, MonthOf(num(-1)))
	assert.Nil(t, MonthOf(text("ngày 5")))
}
