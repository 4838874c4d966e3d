package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"Sismik/internal/perf"
	"Sismik/internal/session"
)

func rows() []perf.ResultRow {
	return []perf.ResultRow{
		{EarthquakeLevel: perf.DD2, LoadCombination: "G+Q+Dx+", Story: "Kat 1", SH: perf.MarkerPass, MaxXDrift: perf.Num(0.004)},
		{EarthquakeLevel: perf.DD2, LoadCombination: "G+Q+Dy+", Story: "Kat 1", SH: perf.MarkerPass, MaxYDrift: perf.Num(0.002)},
		{EarthquakeLevel: perf.DD3, LoadCombination: "G+Q+Dx-", Story: "Bodrum", SH: perf.MarkerFail},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows()[:1]))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"DD-2", "G+Q+Dx+", "Kat 1", perf.MarkerPass, "", "", "0.004", "", "", "", "", ""}, records[1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, rows()))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, Header, got[0])
	assert.Equal(t, "Bodrum", got[3][2])
	v, err := f.GetCellValue(sheetName, "G2")
	require.NoError(t, err)
	assert.Equal(t, "0.004", v)
}

type source struct{ rows []perf.ResultRow }

func (s source) Results(ctx context.Context, owner, projectID, versionID int64) (perf.Dataset, error) {
	return perf.Dataset{VersionID: versionID, Rows: s.rows}, nil
}

func request(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = mux.SetURLVars(req, map[string]string{"id": "1", "v": "3"})
	return req.WithContext(session.WithUser(req.Context(), 1, "ayse"))
}

func TestCSVHandlerFilters(t *testing.T) {
	h := &Handler{Source: source{rows: rows()}}
	rec := httptest.NewRecorder()
	h.CSV(rec, request("/export.csv?earthquake=dd-2&direction=x"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "results-v3.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "G+Q+Dx+", records[1][1])
}

func TestXLSXHandler(t *testing.T) {
	h := &Handler{Source: source{rows: rows()}}
	rec := httptest.NewRecorder()
	h.XLSX(rec, request("/export.xlsx"))
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestHandlerRejectsBadCriteria(t *testing.T) {
	h := &Handler{Source: source{}}
	rec := httptest.NewRecorder()
	h.CSV(rec, request("/export.csv?direction=Z"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
