package importer

import (
	"context"
	"net/http"

	"github.com/ansel1/merry"

	"Sismik/internal/applog"
	"Sismik/internal/perf"
	"Sismik/internal/respond"
	"Sismik/internal/session"
)

var log = applog.New("importer")

const MaxUploadSize = 20 << 20

// Store persists the parsed rows of a version.
type Store interface {
	ReplaceResults(ctx context.Context, owner, projectID, versionID int64, rows []perf.ResultRow) error
	Results(ctx context.Context, owner, projectID, versionID int64) (perf.Dataset, error)
}

type Handler struct {
	Store Store
}

type uploadResult struct {
	Count    int      `json:"count"`
	Warnings []string `json:"warnings"`
}

// Upload replaces the results of a version with the rows of the multipart
// "file" field.
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

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, respond.BadRequest(err, "File required"))
		return
	}
	defer file.Close()

	ds, err := Parse(header.Filename, file)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if len(ds.Rows) == 0 {
		respond.Error(w, invalid("results file has no rows"))
		return
	}
	if err := h.Store.ReplaceResults(r.Context(), uid, projectID, versionID, ds.Rows); err != nil {
		respond.Error(w, err)
		return
	}
	log.Info("results imported", "project", projectID, "version", versionID, "rows", len(ds.Rows), "warnings", len(ds.Warnings))
	respond.JSON(w, http.StatusCreated, uploadResult{Count: len(ds.Rows), Warnings: ds.Warnings})
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
	ds, err := h.Store.Results(r.Context(), uid, projectID, versionID)
	if err != nil {
		respond.Error(w, merry.Prepend(err, "load results"))
		return
	}
	if ds.Rows == nil {
		ds.Rows = []perf.ResultRow{}
	}
	respond.JSON(w, http.StatusOK, ds)
}
