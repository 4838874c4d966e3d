package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sismik/internal/config"
	"Sismik/internal/perf"
	"Sismik/internal/repo"
)

type client struct {
	t     *testing.T
	srv   http.Handler
	token string
}

func (c *client) do(method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)
	return rec
}

func (c *client) json(method, path, body string, out interface{}) int {
	c.t.Helper()
	rec := c.do(method, path, bytes.NewBufferString(body), "application/json")
	if out != nil && rec.Code < 300 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func newServer(t *testing.T) *client {
	cfg := config.Default()
	cfg.Auth.TokenKey = "test"
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000
	cfg.Storage.UploadDir = t.TempDir()
	cfg.Server.StaticDir = t.TempDir()
	router := mux.NewRouter()
	HandleList(router, &cfg, repo.NewMemory())
	return &client{t: t, srv: CORS(router)}
}

func TestEndToEnd(t *testing.T) {
	c := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, c.json("GET", "/api/user/projects", "", nil))

	var s struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/register", `{"login":"ayse","email":"a@example.com","password":"secret1"}`, &s))
	c.token = s.Token

	var p repo.Project
	require.Equal(t, http.StatusCreated, c.json("POST", "/api/user/projects", `{"name":"Okul"}`, &p))
	var v repo.Version
	require.Equal(t, http.StatusCreated, c.json("POST", fmt.Sprintf("/api/user/projects/%d/versions", p.ID), "", &v))
	base := fmt.Sprintf("/api/user/projects/%d/versions/%d", p.ID, v.ID)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "results.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"rows":[
		{"earthquake_level":"DD-2","load_combination":"G+Q+Dx+","story":"Kat 1","sh":"Sağlıyor","max_x_drift":0.003},
		{"earthquake_level":"DD-2","load_combination":"G+Q+Dx-","story":"Kat 1","sh":"Sağlamıyor","max_x_drift":0.004},
		{"earthquake_level":"DD-2","load_combination":"G+Q+Dx+","story":"Bodrum","sh":"Sağlıyor","max_x_drift":0.001},
		{"earthquake_level":"DD-3","load_combination":"G+Q+Dy+","story":"Kat 1","sh":"Sağlıyor"}
	]}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	rec := c.do("POST", base+"/results", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var partial perf.Evaluation
	require.Equal(t, http.StatusOK, c.json("GET", base+"/performance?earthquake=DD-2", "", &partial))
	assert.False(t, partial.Complete)
	assert.Len(t, partial.Rows, 3)
	assert.Empty(t, partial.Stories)

	var ev perf.Evaluation
	require.Equal(t, http.StatusOK, c.json("POST", base+"/performance", `{"earthquake":"DD-2","performance":"SH","direction":"X"}`, &ev))
	require.True(t, ev.Complete)
	require.Len(t, ev.Stories, 2)
	assert.Equal(t, "Bodrum", ev.Stories[0].Story)
	assert.Equal(t, perf.Pass, ev.Stories[0].Verdict)
	assert.Equal(t, perf.Fail, ev.Stories[1].Verdict)
	assert.True(t, ev.Stories[1].IsCurrentVersion)
	assert.Equal(t, perf.ColorFail, ev.Colors["Kat 1"])
	require.NotNil(t, ev.Building)
	assert.Equal(t, perf.Fail, *ev.Building)

	rec = c.do("GET", base+"/report.pdf?earthquake=DD-2&performance=SH&direction=X", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = c.do("GET", base+"/export.csv?direction=Y", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "G+Q+Dy+")
	assert.NotContains(t, rec.Body.String(), "G+Q+Dx+")

	assert.Equal(t, http.StatusBadRequest, c.json("GET", base+"/performance?earthquake=DD-9", "", nil))
}

func TestCORSPreflight(t *testing.T) {
	c := newServer(t)
	rec := c.do(http.MethodOptions, "/api/login", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
