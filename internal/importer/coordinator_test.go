package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/daohuymanh/bio-data-analysis/internal/exporter"
	"github.com/daohuymanh/bio-data-analysis/internal/model"
	"github.com/daohuymanh/bio-data-analysis/internal/parser"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

type sheetData struct {
	name string
	rows [][]interface{}
}

func writeWorkbook(t *testing.T, path string, sheets ...sheetData) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			axis, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(s.name, axis, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func gstxWorkbook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "An Giang GSTX 2025.xlsx")
	writeWorkbook(t, path,
		sheetData{name: "T7", rows: [][]interface{}{
			{"SỞ Y TẾ AN GIANG"},
			{"Long Xuyên"},
			{"TC", nil, nil, 1, 2, nil, "x", 10},
			{"Châu Đốc"},
			{nil, "tc", nil, 3, 0, 0, 0, 5},
		}},
		sheetData{name: "Ghi chu", rows: [][]interface{}{{"TC", nil, nil, 9, 9, 9, 9, 9}}},
		sheetData{name: "T13", rows: [][]interface{}{{"X"}, {"TC", nil, nil, 9, 9, 9, 9, 9}}},
	)
	return path
}

func dmossWorkbook(t *testing.T, path string, provinces ...string) {
	t.Helper()
	header := []interface{}{nil}
	for m := 1; m <= 12; m++ {
		header = append(header, fmt.Sprintf("Tháng %d", m))
	}
	metric := func(label string, base int) []interface{} {
		row := []interface{}{label}
		for m := 1; m <= 12; m++ {
			row = append(row, base+m)
		}
		return row
	}
	var sheets []sheetData
	for _, p := range provinces {
		sheets = append(sheets, sheetData{name: p, rows: [][]interface{}{
			header,
			metric("D1", 0),
			metric("D2", 100),
			metric("D3", 200),
			metric("D4", 300),
			{"Khac"},
			metric("Tong", 1000),
		}})
	}
	writeWorkbook(t, path, sheets...)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "edengue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRun_GSTXPersistsAndAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := gstxWorkbook(t, dir)
	output := filepath.Join(dir, "out", "gstx.csv")
	st := newTestStore(t)
	c := NewCoordinator(st, nil)

	summary, err := c.Run(context.Background(), ImportOptions{
		Kind:     model.SourceGSTX,
		FilePath: input,
		Persist:  true,
		Output:   output,
	}, nil)
	require.NoError(t, err)

	r := summary.Report
	assert.Equal(t, 3, r.TotalSheets)
	assert.Equal(t, 1, r.ImportedSheets)
	assert.Equal(t, 2, r.SkippedSheets)
	assert.Equal(t, 2, r.ImportedRows)
	assert.Equal(t, 1, r.CoercedCells)
	assert.Equal(t, 2, summary.Rows)

	records, err := st.RecordsByImport(summary.ImportLogID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AN GIANG", records[0].Province)
	assert.Equal(t, "LONG XUYEN", *records[0].District)
	assert.Equal(t, 2025, *records[0].Year)
	assert.Equal(t, 7, *records[0].Month)
	assert.Equal(t, 1.0, *records[0].DEN[0])
	assert.Equal(t, 0.0, *records[0].DEN[2])
	assert.Equal(t, 0.0, *records[0].DEN[3])
	assert.Equal(t, 10.0, *records[0].TotalTest)
	assert.Equal(t, "CHAU DOC", *records[1].District)

	log, err := st.GetImportLog(summary.ImportLogID)
	require.NoError(t, err)
	assert.Equal(t, model.ImportCompleted, log.Status)
	assert.Equal(t, model.LegacySchema.Columns(true), log.Columns)

	metas, err := st.ListSheetMeta(summary.ImportLogID)
	require.NoError(t, err)
	require.Len(t, metas, 3)
	assert.Equal(t, parser.StatusSkipped, metas[1].Status)
	assert.Equal(t, string(parser.SheetTypeOutOfRange), metas[2].SheetType)

	runID, err := st.GetSetting(store.SettingLastRunID)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, runID)

	written, err := exporter.LoadTable(output, "")
	require.NoError(t, err)
	assert.Equal(t, 2, written.Len())

	again, err := c.Run(context.Background(), ImportOptions{
		Kind:             model.SourceGSTX,
		FilePath:         input,
		Output:           output,
		AppendToExisting: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, again.Rows)
	assert.Zero(t, again.ImportLogID)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Metrics().sheets.WithLabelValues("gstx", parser.StatusImported)))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.Metrics().records.WithLabelValues("gstx")))
}

func TestRun_DMOSSMonthBounds(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "DMOSS_2015.xlsx")
	dmossWorkbook(t, path, "Bến Tre", "Trà Vinh")

	summary, err := NewCoordinator(nil, nil).Run(context.Background(), ImportOptions{
		Kind:     model.SourceDMOSS,
		FilePath: path,
		MonthMin: 1,
		MonthMax: 6,
	}, nil)
	require.NoError(t, err)

	tbl := summary.Table
	assert.Equal(t, model.CanonicalSchema.Columns(true), tbl.Columns)
	require.Equal(t, 12, tbl.Len())
	first := tbl.Rows[0]
	assert.Equal(t, "BEN TRE", first.Get("province").String())
	assert.Equal(t, "", first.Get("district").String())
	assert.Equal(t, "2015", first.Get("year").String())
	assert.Equal(t, "1", first.Get("Month").String())
	assert.Equal(t, "1", first.Get("No. DEN1").String())
	assert.Equal(t, "101", first.Get("No. DEN2").String())
	assert.Equal(t, "1001", first.Get("Total test").String())
	assert.Equal(t, "6", tbl.Rows[5].Get("Month").String())
	assert.Equal(t, "TRA VINH", tbl.Rows[6].Get("province").String())
}

func TestRun_CasesAggregates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Mau_nhan_2021.csv")
	csv := "STT,TỈNH,HUYỆN,NGÀY,KQ\n" +
		"1,Hà Nội,Ba Đình,15/05/2021,DEN-1\n" +
		"2,Hà Nội,Ba Đình,20/05/2021,DEN2\n" +
		"3,Hà Nội,Ba Đình,21/05/2021,\n" +
		"4,Hà Nội,Đống Đa,01/06/2021,den1\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	c := NewCoordinator(nil, nil)
	summary, err := c.Run(context.Background(), ImportOptions{
		Kind:     model.SourceCases,
		FilePath: path,
		Cases:    CaseColumns{Province: "TỈNH", District: "HUYỆN", Month: "NGÀY", Results: []string{"KQ"}},
	}, nil)
	require.NoError(t, err)

	tbl := summary.Table
	assert.Equal(t, model.LegacySchema.Columns(true), tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	row := tbl.Rows[0]
	assert.Equal(t, "HA NOI", row.Get("province").String())
	assert.Equal(t, "BA DINH", row.Get("district").String())
	assert.Equal(t, "2021", row.Get("year").String())
	assert.Equal(t, "5", row.Get("month").String())
	assert.Equal(t, "1", row.Get("No.DEN1").String())
	assert.Equal(t, "1", row.Get("No.DEN2").String())
	assert.Equal(t, "2", row.Get("Total test").String())
	assert.Equal(t, "DONG DA", tbl.Rows[1].Get("district").String())
	assert.Equal(t, "1", tbl.Rows[1].Get("No.DEN1").String())

	_, err = c.Run(context.Background(), ImportOptions{
		Kind:     model.SourceCases,
		FilePath: path,
		Cases:    CaseColumns{Province: "KHONG_CO"},
	}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrColumnNotFound))
}

func TestValidateOptions(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(nil, nil)
	cases := []ImportOptions{
		{Kind: "xyz", FilePath: "a.xlsx"},
		{Kind: model.SourceGSTX},
		{Kind: model.SourceGSTX, FilePath: "a.xlsx", MonthMin: 5, MonthMax: 3},
		{Kind: model.SourceGSTX, FilePath: "a.xlsx", MonthMin: 13},
		{Kind: model.SourceGSTX, FilePath: "a.xlsx", AppendToExisting: true},
	}
	for _, opts := range cases {
		assert.Error(t, c.ValidateOptions(opts), "%+v", opts)
	}
	assert.NoError(t, c.ValidateOptions(ImportOptions{Kind: model.SourceDMOSS, FilePath: "a.xlsx", MonthMin: 2, MonthMax: 2}))
}

func TestImport_StreamsErrorForUnreadableSource(t *testing.T) {
	t.Parallel()

	ch := NewCoordinator(nil, nil).Import(context.Background(), ImportOptions{
		Kind:     model.SourceGSTX,
		FilePath: filepath.Join(t.TempDir(), "missing.xlsx"),
	})

	var events []ProgressEvent
	for evt := range ch {
		events = append(events, evt)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, EventStart, events[0].Type)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.NotEmpty(t, last.Message)
}

func TestImport_StreamsSheetEvents(t *testing.T) {
	t.Parallel()

	input := gstxWorkbook(t, t.TempDir())
	ch := NewCoordinator(nil, nil).Import(context.Background(), ImportOptions{
		Kind:     model.SourceGSTX,
		FilePath: input,
		Province: "An Giang",
	})

	types := map[string]int{}
	var last ProgressEvent
	for evt := range ch {
		types[evt.Type]++
		last = evt
	}
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, 3, types[EventSheetStart])
	assert.Equal(t, 1, types[EventSheetDone])
	summary, ok := last.Data.(*ImportSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Rows)
}
