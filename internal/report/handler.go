package report

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/ansel1/merry"

	"Sismik/internal/perf"
	"Sismik/internal/repo"
	"Sismik/internal/respond"
	"Sismik/internal/session"
)

var ErrIncompleteCriteria = merry.New("incomplete criteria").
	WithHTTPCode(http.StatusBadRequest).
	WithUserMessage("Select earthquake level, performance level and direction")

type Store interface {
	perf.Source
	Project(ctx context.Context, owner, id int64) (repo.Project, error)
	Version(ctx context.Context, owner, projectID, versionID int64) (repo.Version, error)
}

type Handler struct {
	Store Store
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	c, err := perf.CriteriaFromQuery(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if !c.IsComplete() {
		respond.Error(w, ErrIncompleteCriteria.Here())
		return
	}
	ds, err := perf.Load(r, h.Store)
	if err != nil {
		respond.Error(w, err)
		return
	}
	uid, _ := session.UserID(r.Context())
	projectID, versionID, _ := perf.RouteIDs(r)
	p, err := h.Store.Project(r.Context(), uid, projectID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	v, err := h.Store.Version(r.Context(), uid, projectID, versionID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	meta := Meta{Project: p.Name, Version: v.Number, Author: session.UserLogin(r.Context())}
	var buf bytes.Buffer
	if err := Render(&buf, meta, perf.Evaluate(ds.Rows, c, perf.Options{CurrentVersion: ds.IsCurrent})); err != nil {
		respond.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report-v%d.pdf\"", v.Number))
	_, _ = buf.WriteTo(w)
}
