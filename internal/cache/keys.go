package cache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
)

// Key builds the cache key of a resource read with the given parameters.
// Parameters are written as RFC 8785 canonical JSON, so equal parameter sets
// always map to the same key.
func Key(resource string, params map[string]interface{}) string {
	if params == nil {
		params = map[string]interface{}{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		// parameters are plain ids and strings
		return resource + "?" + fmt.Sprint(params)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return resource + "?" + string(raw)
	}
	return resource + "?" + string(canonical)
}

// Resource joins path segments into a slash-terminated resource name, so
// that prefix invalidation of "projects/7/" never touches "projects/70/".
func Resource(parts ...interface{}) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(fmt.Sprint(p))
		b.WriteByte('/')
	}
	return b.String()
}
