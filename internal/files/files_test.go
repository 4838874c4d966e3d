package files

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sismik/internal/cache"
	"Sismik/internal/repo"
	"Sismik/internal/session"
	"Sismik/internal/store"
)

type fixture struct {
	h         *Handler
	projectID int64
	versionID int64
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := store.New(repo.NewMemory(), cache.New[interface{}](time.Minute), time.Minute)
	p, err := s.CreateProject(ctx, 1, "Tower", "")
	require.NoError(t, err)
	v, err := s.CreateVersion(ctx, 1, p.ID, "")
	require.NoError(t, err)
	return fixture{h: &Handler{Store: s, Dir: t.TempDir(), MaxSize: 1 << 10}, projectID: p.ID, versionID: v.ID}
}

func (f fixture) request(t *testing.T, method string, body io.Reader, uid int64) *http.Request {
	req := httptest.NewRequest(method, "/", body)
	req = mux.SetURLVars(req, map[string]string{
		"id": strconv.FormatInt(f.projectID, 10),
		"v":  strconv.FormatInt(f.versionID, 10),
	})
	return req.WithContext(session.WithUser(req.Context(), uid, "ayse"))
}

func multipartBody(t *testing.T, kind, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadListDownload(t *testing.T) {
	f := setup(t)

	body, ct := multipartBody(t, "model", "Okul.E2K", []byte("$ STORIES"))
	req := f.request(t, http.MethodPost, body, 1)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.h.Upload(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var stored repo.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, repo.FileModel, stored.Kind)
	assert.Equal(t, "Okul.E2K", stored.Name)
	assert.Equal(t, int64(9), stored.Size)

	rec = httptest.NewRecorder()
	f.h.List(rec, f.request(t, http.MethodGet, nil, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []repo.File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, stored.ID, list[0].ID)

	rec = httptest.NewRecorder()
	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"fileID": stored.ID})
	f.h.Download(rec, req.WithContext(session.WithUser(req.Context(), 1, "ayse")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "$ STORIES", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Okul.E2K")

	rec = httptest.NewRecorder()
	req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"fileID": stored.ID})
	f.h.Download(rec, req.WithContext(session.WithUser(req.Context(), 2, "other")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejects(t *testing.T) {
	f := setup(t)

	body, ct := multipartBody(t, "video", "a.mp4", []byte("x"))
	req := f.request(t, http.MethodPost, body, 1)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	f.h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "model", "big.e2k", bytes.Repeat([]byte("x"), 4<<10))
	req = f.request(t, http.MethodPost, body, 1)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	f.h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, "model", "m.e2k", []byte("x"))
	req = f.request(t, http.MethodPost, body, 2)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	f.h.Upload(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	entries, err := os.ReadDir(f.h.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseKind(t *testing.T) {
	k, err := parseKind(" Results ")
	require.NoError(t, err)
	assert.Equal(t, repo.FileResults, k)
	k, err = parseKind("")
	require.NoError(t, err)
	assert.Equal(t, repo.FileOther, k)
	_, err = parseKind("video")
	assert.Error(t, err)
}
