package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sismik/internal/perf"
)

const results = `{"rows":[
	{"earthquake_level":"DD-2","load_combination":"G+Q+Dx+","story":"Kat 1","sh":"Sağlıyor","max_x_drift":0.003},
	{"earthquake_level":"DD-2","load_combination":"G+Q+Dx-","story":"Kat 1","sh":"Sağlamıyor","max_x_drift":0.004},
	{"earthquake_level":"DD-2","load_combination":"G+Q+Dx+","story":"Bodrum","sh":"Sağlıyor","max_x_drift":0.001}
]}`

func writeResults(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(results), 0644))
	return path
}

func TestRunTable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-file", writeResults(t), "-earthquake", "dd-2", "-performance", "sh", "-direction", "x"}, &stdout, &stderr)
	assert.Equal(t, exitBuildingFail, code)
	out := stdout.String()
	assert.Contains(t, out, "3 rows match")
	assert.Contains(t, out, "Bodrum")
	assert.Contains(t, out, "building: fail (1 passed, 1 failed)")
	assert.Less(t, bytes.Index(stdout.Bytes(), []byte("Bodrum")), bytes.Index(stdout.Bytes(), []byte("Kat 1")))
}

func TestRunJSONPass(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-file", writeResults(t), "-earthquake", "DD-2", "-performance", "SH", "-direction", "Y", "-json"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	var ev perf.Evaluation
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &ev))
	assert.True(t, ev.Complete)
	assert.Empty(t, ev.Stories)
	require.NotNil(t, ev.Building)
	assert.Equal(t, perf.Pass, *ev.Building)
}

func TestRunIncomplete(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-file", writeResults(t), "-earthquake", "DD-2"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), "select -earthquake")
}

func TestRunInvalidInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitInvalidInput, run(nil, &stdout, &stderr))
	assert.Equal(t, exitInvalidInput, run([]string{"-file", writeResults(t), "-direction", "Z"}, &stdout, &stderr))
	assert.Equal(t, exitInvalidInput, run([]string{"-file", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"rows":{}}`), 0644))
	assert.Equal(t, exitInvalidInput, run([]string{"-file", bad}, &stdout, &stderr))
}
