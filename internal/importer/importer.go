// Package importer reads story performance results exported by the
// analysis software.
package importer

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ansel1/merry"
	"github.com/hashicorp/go-multierror"
	"github.com/kaptinlin/jsonschema"

	"Sismik/internal/perf"
)

var ErrInvalidDataset = merry.New("invalid dataset").WithHTTPCode(http.StatusBadRequest)

// Dataset is a parsed results file. Warnings lists the rows that were
// skipped or had unreadable cells.
type Dataset struct {
	Rows     []perf.ResultRow `json:"rows"`
	Warnings []string         `json:"warnings"`
}

//go:embed schema/results.schema.json
var resultsSchema []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		schema, schemaErr = compiler.Compile(resultsSchema)
		if schemaErr != nil {
			schemaErr = merry.Prepend(schemaErr, "compile results schema")
		}
	})
	return schema, schemaErr
}

func invalid(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return merry.Prepend(ErrInvalidDataset.Here(), msg).WithUserMessage(msg)
}

// ParseJSON reads a {"rows": [...]} document.
func ParseJSON(data []byte) (Dataset, error) {
	s, err := compiledSchema()
	if err != nil {
		return Dataset{}, err
	}
	if result := s.ValidateJSON(data); !result.IsValid() {
		return Dataset{}, invalid("results do not match schema: %v", result.Errors)
	}
	var doc struct {
		Rows []perf.ResultRow `json:"rows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Dataset{}, invalid("results are not valid JSON")
	}
	var merr *multierror.Error
	ds := Dataset{Rows: make([]perf.ResultRow, 0, len(doc.Rows))}
	for i, row := range doc.Rows {
		row = normalize(row)
		if row.Story == "" {
			merr = multierror.Append(merr, fmt.Errorf("row %d: missing story", i+1))
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	ds.Warnings = warnings(merr)
	return ds, nil
}

// Parse reads a results file, choosing the format by the file extension.
func Parse(name string, r io.Reader) (Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return Dataset{}, merry.Prepend(err, "read results")
		}
		return ParseJSON(data)
	case ".xlsx":
		return ParseXLSX(r)
	}
	return Dataset{}, invalid("unsupported results format %q", filepath.Ext(name))
}

var reLevel = regexp.MustCompile(`^DD\s*-?\s*([1-3])$`)

// normalizeLevel maps spellings like "dd2" and "DD - 2" to "DD-2".
func normalizeLevel(s string) perf.EarthquakeLevel {
	s = strings.TrimSpace(s)
	if m := reLevel.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		return perf.EarthquakeLevel("DD-" + m[1])
	}
	return perf.EarthquakeLevel(s)
}

func normalize(row perf.ResultRow) perf.ResultRow {
	row.EarthquakeLevel = normalizeLevel(string(row.EarthquakeLevel))
	row.LoadCombination = strings.TrimSpace(row.LoadCombination)
	row.Story = strings.TrimSpace(row.Story)
	row.SH = strings.TrimSpace(row.SH)
	row.KH = strings.TrimSpace(row.KH)
	row.GO = strings.TrimSpace(row.GO)
	return row
}

func warnings(merr *multierror.Error) []string {
	out := []string{}
	if merr == nil {
		return out
	}
	for _, err := range merr.Errors {
		out = append(out, err.Error())
	}
	return out
}
