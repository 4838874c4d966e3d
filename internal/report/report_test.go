package report

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sismik/internal/cache"
	"Sismik/internal/perf"
	"Sismik/internal/repo"
	"Sismik/internal/session"
	"Sismik/internal/store"
)

func evaluation() perf.Evaluation {
	rows := []perf.ResultRow{
		{EarthquakeLevel: perf.DD2, LoadCombination: "G+Q+Dx+", Story: "Kat 1", SH: perf.MarkerFail, MaxXDrift: perf.Num(0.004)},
		{EarthquakeLevel: perf.DD2, LoadCombination: "G+Q+Dx+", Story: "Bodrum", SH: perf.MarkerPass},
	}
	return perf.Evaluate(rows, perf.Criteria{Earthquake: perf.DD2, Performance: perf.SH, Direction: perf.DirX}, perf.Options{})
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Meta{Project: "Okul Binası", Version: 2}, evaluation()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderTurkishText(t *testing.T) {
	rows := []perf.ResultRow{
		{EarthquakeLevel: perf.DD2, Story: "Çatı Katı", GO: perf.MarkerFail},
		{EarthquakeLevel: perf.DD2, Story: "Şaft Girişi", GO: perf.MarkerPass},
	}
	ev := perf.Evaluate(rows, perf.Criteria{Earthquake: perf.DD2, Performance: perf.GO, Direction: perf.DirY}, perf.Options{})

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Meta{Project: "Güneşli Konutları", Version: 1, Author: "ayşe"}, ev))
	out := buf.String()
	assert.Contains(t, out, "/Identity-H")
	assert.Contains(t, out, "DejaVu")
	assert.NotContains(t, out, "/Helvetica")
}

func TestRenderRejectsIncomplete(t *testing.T) {
	var buf bytes.Buffer
	ev := perf.Evaluate(nil, perf.Criteria{Earthquake: perf.DD2}, perf.Options{})
	assert.Error(t, Render(&buf, Meta{}, ev))
}

func TestHexRGB(t *testing.T) {
	r, g, b := hexRGB(perf.ColorFail)
	assert.Equal(t, []int{0xc6, 0x28, 0x28}, []int{r, g, b})
	r, g, b = hexRGB("bad")
	assert.Equal(t, []int{255, 255, 255}, []int{r, g, b})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	s := store.New(repo.NewMemory(), cache.New[interface{}](time.Minute), time.Minute)
	p, err := s.CreateProject(ctx, 1, "Tower", "")
	require.NoError(t, err)
	v, err := s.CreateVersion(ctx, 1, p.ID, "")
	require.NoError(t, err)
	require.NoError(t, s.ReplaceResults(ctx, 1, p.ID, v.ID, evaluation().Rows))

	h := &Handler{Store: s}
	request := func(query string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/report.pdf?"+query, nil)
		req = mux.SetURLVars(req, map[string]string{"id": strconv.FormatInt(p.ID, 10), "v": strconv.FormatInt(v.ID, 10)})
		return req.WithContext(session.WithUser(req.Context(), 1, "ayse"))
	}

	rec := httptest.NewRecorder()
	h.Generate(rec, request("earthquake=DD-2&performance=SH&direction=X"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = httptest.NewRecorder()
	h.Generate(rec, request("earthquake=DD-2&direction=X"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
