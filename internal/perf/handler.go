package perf

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ansel1/merry"
	"github.com/gorilla/mux"

	"Sismik/internal/respond"
	"Sismik/internal/session"
)

// Source loads the result rows of a project version on behalf of a user.
type Source interface {
	Results(ctx context.Context, owner, projectID, versionID int64) (Dataset, error)
}

type Handler struct {
	Source Source
}

// Evaluate serves GET with query criteria and POST with a JSON body.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var c Criteria
	var err error
	if r.Method == http.MethodPost {
		var in struct {
			Earthquake  string `json:"earthquake"`
			Performance string `json:"performance"`
			Direction   string `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.Error(w, respond.BadRequest(err, "Invalid request payload"))
			return
		}
		c, err = ParseCriteria(in.Earthquake, in.Performance, in.Direction)
	} else {
		c, err = CriteriaFromQuery(r)
	}
	if err != nil {
		respond.Error(w, err)
		return
	}
	ds, err := h.Load(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, Evaluate(ds.Rows, c, Options{CurrentVersion: ds.IsCurrent}))
}

func (h *Handler) Load(r *http.Request) (Dataset, error) { return Load(r, h.Source) }

// Load resolves the dataset addressed by the {id} and {v} route variables.
func Load(r *http.Request, src Source) (Dataset, error) {
	uid, err := session.Require(r.Context())
	if err != nil {
		return Dataset{}, err
	}
	projectID, versionID, err := RouteIDs(r)
	if err != nil {
		return Dataset{}, err
	}
	return src.Results(r.Context(), uid, projectID, versionID)
}

func CriteriaFromQuery(r *http.Request) (Criteria, error) {
	q := r.URL.Query()
	return ParseCriteria(q.Get("earthquake"), q.Get("performance"), q.Get("direction"))
}

// RouteIDs parses the project and version ids from the route.
func RouteIDs(r *http.Request) (projectID, versionID int64, err error) {
	vars := mux.Vars(r)
	projectID, err = strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		return 0, 0, merry.Wrap(err).WithHTTPCode(http.StatusBadRequest).WithUserMessage("Invalid project id")
	}
	versionID, err = strconv.ParseInt(vars["v"], 10, 64)
	if err != nil {
		return 0, 0, merry.Wrap(err).WithHTTPCode(http.StatusBadRequest).WithUserMessage("Invalid version id")
	}
	return projectID, versionID, nil
}
