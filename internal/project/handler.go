// Package project serves the project and version endpoints.
package project

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ansel1/merry"
	"github.com/gorilla/mux"

	"Sismik/internal/perf"
	"Sismik/internal/repo"
	"Sismik/internal/respond"
	"Sismik/internal/session"
)

type Store interface {
	Projects(ctx context.Context, owner int64) ([]repo.Project, error)
	Project(ctx context.Context, owner, id int64) (repo.Project, error)
	CreateProject(ctx context.Context, owner int64, name, description string) (repo.Project, error)
	DeleteProject(ctx context.Context, owner, id int64) error
	Versions(ctx context.Context, owner, projectID int64) ([]repo.Version, error)
	CreateVersion(ctx context.Context, owner, projectID int64, note string) (repo.Version, error)
	SetCurrentVersion(ctx context.Context, owner, projectID, versionID int64) error
}

type Handler struct {
	Store Store
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateVersionRequest struct {
	Note string `json:"note"`
}

type projectDetail struct {
	repo.Project
	Versions []repo.Version `json:"versions"`
}

func projectID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, respond.BadRequest(err, "Invalid project id")
	}
	return id, nil
}

// decode reads an optional JSON body; an empty body leaves v unchanged.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return respond.BadRequest(err, "Invalid request payload")
	}
	return nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	list, err := h.Store.Projects(r.Context(), uid)
	if err != nil {
		respond.Error(w, merry.Prepend(err, "list projects"))
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, respond.BadRequest(err, "Invalid request payload"))
		return
	}
	p, err := h.Store.CreateProject(r.Context(), uid, req.Name, req.Description)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

// Get returns the project together with its versions.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	id, err := projectID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	p, err := h.Store.Project(r.Context(), uid, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	versions, err := h.Store.Versions(r.Context(), uid, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, projectDetail{Project: p, Versions: versions})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	id, err := projectID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.Store.DeleteProject(r.Context(), uid, id); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	id, err := projectID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	versions, err := h.Store.Versions(r.Context(), uid, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, versions)
}

func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	id, err := projectID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	var req CreateVersionRequest
	if err := decode(r, &req); err != nil {
		respond.Error(w, err)
		return
	}
	v, err := h.Store.CreateVersion(r.Context(), uid, id, req.Note)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, v)
}

func (h *Handler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	uid, err := session.Require(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	pid, vid, err := perf.RouteIDs(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.Store.SetCurrentVersion(r.Context(), uid, pid, vid); err != nil {
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
