package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daohuymanh/bio-data-analysis/internal/model"
)

func TestDMOSSParser_AlwaysTwelveMonths(t *testing.T) {
	t.Parallel()

	p := NewDMOSSParser(DMOSSOptions{MonthColumnStart: 1, MetricRows: DefaultMetricRows, Year: model.IntPtr(2015)})

	for _, g := range []model.Grid{nil, {{text("x")}}, dmossGrid()} {
		res := p.ParseGrid("Đồng Tháp", g)
		require.Len(t, res.Records, 12)
		for i, rec := range res.Records {
			assert.Equal(t, i+1, *rec.Month)
			assert.Equal(t, "DONG THAP", rec.Province)
			require.NotNil(t, rec.District)
			assert.Equal(t, "", *rec.District)
			assert.Equal(t, 2015, *rec.Year)
		}
	}
}

func dmossGrid() model.Grid {
	header := []model.Cell{null()}
	for m := 1; m <= 12; m++ {
		header = append(header, text("Tháng"))
	}
	return model.Grid{
		header,
		{text("D1"), num(5), null(), text("3"), text("-")},
		{text("D2"), num(0)},
		{text("D3")},
		{text("D4")},
		{text("")},
		{text("Tong"), num(20), num(18)},
	}
}

func TestDMOSSParser_BlankIsNull(t *testing.T) {
	t.Parallel()

	res := NewDMOSSParser(DefaultDMOSSOptions()).ParseGrid("Kiên Giang", dmossGrid())
	require.Len(t, res.Records, 12)

	jan, feb, mar, apr := res.Records[0], res.Records[1], res.Records[2], res.Records[3]
	assert.Equal(t, 5.0, *jan.DEN[0])
	assert.Equal(t, 0.0, *jan.DEN[1])
	assert.Nil(t, jan.DEN[2])
	assert.Equal(t, 20.0, *jan.TotalTest)

	assert.Nil(t, feb.DEN[0])
	assert.Equal(t, 18.0, *feb.TotalTest)
	assert.Equal(t, 3.0, *mar.DEN[0])
	assert.Nil(t, mar.TotalTest)

	// 非数字文本降级为 0，并作为诊断返回
	assert.Equal(t, 0.0, *apr.DEN[0])
	require.Len(t, res.Coerced, 1)
	assert.Equal(t, 1, res.Coerced[0].Row)
	assert.Equal(t, 4, res.Coerced[0].Col)

	assert.Nil(t, res.Records[11].DEN[0])
	assert.Nil(t, jan.Year)
}

func TestDMOSSParser_CustomOffsets(t *testing.T) {
	t.Parallel()

	g := model.Grid{
		{null(), null(), num(1), num(2)},
		{null(), null(), num(10), num(20)},
	}
	p := NewDMOSSParser(DMOSSOptions{MonthColumnStart: 2, MetricRows: [5]int{0, 0, 0, 0, 1}})
	res := p.ParseGrid("Ha Noi", g)
	require.Len(t, res.Records, 12)
	assert.Equal(t, 1.0, *res.Records[0].DEN[3])
	assert.Equal(t, 20.0, *res.Records[1].TotalTest)
	assert.Nil(t, res.Records[2].TotalTest)
}
