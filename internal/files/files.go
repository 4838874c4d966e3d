// Package files stores model and result files attached to project versions.
package files

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"Sismik/internal/applog"
	"Sismik/internal/perf"
	"Sismik/internal/repo"
	"Sismik/internal/respond"
	"Sismik/internal/session"
)

var log = applog.New("files")

const DefaultMaxUploadSize = 50 << 20

type Store interface {
	Files(ctx context.Context, owner, projectID, versionID int64) ([]repo.File, error)
	AddFile(ctx context.Context, owner, projectID int64, f repo.File) (repo.File, error)
	File(ctx context.Context, owner int64, id string) (repo.File, error)
}

type Handler struct {
	Store   Store
	Dir     string
	MaxSize int64
}

func parseKind(s string) (repo.FileKind, error) {
	switch k := repo.FileKind(strings.ToLower(strings.TrimSpace(s))); k {
	case repo.FileModel, repo.FileResults, repo.FileOther:
		return k, nil
	case "":
		return repo.FileOther, nil
	}
	return "", respond.BadRequest(merry.Errorf("file kind %q", s), "Unknown file kind")
}

func (h *Handler) maxSize() int64 {
	if h.MaxSize > 0 {
		return h.MaxSize
	}
	return DefaultMaxUploadSize
}

// Upload stores the multipart "file" field under a random name and records
// it on the version.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	projectID, versionID, err := perf.RouteIDs(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize())
	if err := r.ParseMultipartForm(h.maxSize()); err != nil {
		respond.Error(w, respond.BadRequest(err, "File too big"))
		return
	}
	kind, err := parseKind(r.FormValue("kind"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, respond.BadRequest(err, "Invalid file"))
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.Dir, 0755); err != nil {
		respond.Error(w, merry.Prepend(err, "create upload dir"))
		return
	}
	id := uuid.New().String()
	fullPath := filepath.Join(h.Dir, id+strings.ToLower(filepath.Ext(header.Filename)))
	size, err := save(fullPath, file)
	if err != nil {
		respond.Error(w, err)
		return
	}

	rec, err := h.Store.AddFile(r.Context(), uid, projectID, repo.File{
		ID:        id,
		VersionID: versionID,
		Kind:      kind,
		Name:      filepath.Base(header.Filename),
		Path:      fullPath,
		Size:      size,
	})
	if err != nil {
		_ = os.Remove(fullPath)
		respond.Error(w, err)
		return
	}
	log.Info("file stored", "id", id, "kind", kind, "size", size)
	respond.JSON(w, http.StatusCreated, rec)
}

func save(path string, src io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, merry.Prepend(err, "create file")
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, merry.Prepend(err, "write file")
	}
	return n, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	projectID, versionID, err := perf.RouteIDs(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	list, err := h.Store.Files(r.Context(), uid, projectID, versionID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// Download streams a file of the user as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	f, err := h.Store.File(r.Context(), uid, mux.Vars(r)["fileID"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	src, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		respond.Error(w, repo.ErrNotFound.Here())
		return
	}
	if err != nil {
		respond.Error(w, merry.Prepend(err, "open file"))
		return
	}
	defer src.Close()
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, f.Name, f.CreatedAt, src)
}
