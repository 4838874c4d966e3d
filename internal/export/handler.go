package export

import (
	"bytes"
	"fmt"
	"net/http"

	"Sismik/internal/perf"
	"Sismik/internal/respond"
)

type Handler struct {
	Source perf.Source
}

type writer func(w *bytes.Buffer, rows []perf.ResultRow) error

// CSV serves the version rows matching the query criteria as a CSV attachment.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "text/csv; charset=utf-8", "csv", func(b *bytes.Buffer, rows []perf.ResultRow) error {
		return WriteCSV(b, rows)
	})
}

func (h *Handler) XLSX(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx",
		func(b *bytes.Buffer, rows []perf.ResultRow) error {
			return WriteXLSX(b, rows)
		})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, contentType, ext string, write writer) {
	c, err := perf.CriteriaFromQuery(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	ds, err := perf.Load(r, h.Source)
	if err != nil {
		respond.Error(w, err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, perf.Filter(ds.Rows, c)); err != nil {
		respond.Error(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"results-v%d.%s\"", ds.VersionID, ext))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
