package query

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dump = []byte(`{
	"market": "crypto",
	"metainfo": {"fields": [
		{"n": "close", "t": "number"},
		{"n": "exchange", "t": "text"},
		{"n": "RSI|15", "t": "number"}
	]},
	"columns": ["close", "exchange"],
	"row": {"s": "BINANCE:BTCUSDT", "d": [50000.0, "BINANCE"]}
}`)

func TestRun(t *testing.T) {
	result, err := Run(dump, ".metainfo.fields[].n", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"close", "exchange", "RSI|15"}, result.Values)
	assert.Equal(t, 3, result.RawCount)
	assert.Empty(t, result.Errors)
}

func TestRun_Deduplicate(t *testing.T) {
	result, err := Run([]byte(`["a","b","a","a"]`), ".[]", true, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, result.Values)
	assert.Equal(t, 4, result.RawCount)
}

func TestRun_MaxResults(t *testing.T) {
	result, err := Run(dump, ".metainfo.fields[].n", false, 2)
	require.NoError(t, err)
	assert.Len(t, result.Values, 2)
}

func TestRun_RuntimeErrorHint(t *testing.T) {
	result, err := Run(dump, ".missing[]", false, 0)
	require.NoError(t, err)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "the path may not exist")
}

func TestRun_InvalidExpression(t *testing.T) {
	_, err := Run(dump, ".[invalid", false, 0)
	require.Error(t, err)
}

func TestRun_InvalidJSON(t *testing.T) {
	_, err := Run([]byte("{not json"), ".", false, 0)
	require.Error(t, err)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crypto.json")
	require.NoError(t, os.WriteFile(path, dump, 0o644))

	result, err := RunFile(path, ".market", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"crypto"}, result.Values)

	_, err = RunFile(filepath.Join(t.TempDir(), "missing.json"), ".", false, 0)
	require.Error(t, err)
}

func TestValidateExpression(t *testing.T) {
	assert.NoError(t, ValidateExpression(".metainfo.fields[].n"))
	assert.Error(t, ValidateExpression(".[unclosed"))
}
