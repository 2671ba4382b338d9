package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/daohuymanh/bio-data-analysis/internal/config"
	"github.com/daohuymanh/bio-data-analysis/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()

	st, err := store.New(filepath.Join(cfg.Data.DataDir, cfg.Data.DBFile))
	require.NoError(t, err)
	s := New(cfg, st)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dmossUpload(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Bến Tre"))

	for r, label := range []string{"", "D1", "D2", "D3", "D4", "Khac", "Tong"} {
		row := []interface{}{label}
		for m := 1; m <= 12; m++ {
			if r == 0 {
				row = append(row, fmt.Sprintf("Tháng %d", m))
			} else {
				row = append(row, r*m)
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Bến Tre", axis, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func multipartRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_ImportExportLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, multipartRequest(t, "DMOSS_2015.xlsx", dmossUpload(t), map[string]string{"kind": "dmoss"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"type":"start"`)
	assert.Contains(t, rec.Body.String(), `"type":"done"`)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Initialized bool `json:"initialized"`
		Stats       struct {
			Imports int `json:"imports"`
			Records int `json:"records"`
		} `json:"stats"`
		Months    []store.YearMonthStat `json:"months"`
		LastRunID string                `json:"lastRunId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Initialized)
	assert.Equal(t, 1, status.Stats.Imports)
	assert.Equal(t, 12, status.Stats.Records)
	assert.Len(t, status.Months, 12)
	assert.NotEmpty(t, status.LastRunID)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "DMOSS_2015.xlsx")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bến Tre")

	rec = do(s, httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"format":"csv"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var export struct {
		Rows        int    `json:"rows"`
		DownloadURL string `json:"downloadUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Equal(t, 12, export.Rows)

	rec = do(s, httptest.NewRequest(http.MethodGet, export.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "province,district,year,Month"), rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	rec = do(s, httptest.NewRequest(http.MethodGet, export.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `edengue_records_total{kind="dmoss"} 12`)

	rec = do(s, httptest.NewRequest(http.MethodDelete, "/api/imports/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, httptest.NewRequest(http.MethodDelete, "/api/imports/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ImportRejectsBadOptions(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, multipartRequest(t, "x.xlsx", []byte("x"), map[string]string{"kind": "unknown"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, multipartRequest(t, "x.xlsx", []byte("x"), map[string]string{"kind": "gstx", "year": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodPost, "/api/import", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/imports/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_UnreadableUploadStreamsError(t *testing.T) {
	s := newTestServer(t)

	rec := do(s, multipartRequest(t, "broken.xlsx", []byte("not a workbook"), map[string]string{"kind": "gstx"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"error"`)

	logs, err := s.GetStore().ListImportLogs(0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "failed", logs[0].Status)
}
