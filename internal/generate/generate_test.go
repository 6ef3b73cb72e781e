package generate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/screener-openapi/internal/assemble"
	"github.com/usestring/screener-openapi/internal/collect"
	"github.com/usestring/screener-openapi/pkg/client"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/broken/"):
			http.Error(w, `{"error":"unknown market"}`, http.StatusBadRequest)
		case strings.HasSuffix(r.URL.Path, "/metainfo"):
			w.Write([]byte(`{"fields":[
				{"n":"close","t":"number"},
				{"n":"exchange","t":"text"}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/scan"):
			w.Write([]byte(`{"totalCount":1,"data":[
				{"s":"BINANCE:BTCUSDT","d":[50000.0,"BINANCE"]}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testGenerator(t *testing.T, srv *httptest.Server, cfg Config) *Generator {
	t.Helper()
	c := client.New(client.WithBaseURL(srv.URL), client.WithRetries(0, 0))
	collector, err := collect.New(c, 16, 5)
	require.NoError(t, err)
	asm := assemble.New("Test API", "1.0.0", srv.URL)
	return New(collector, asm, cfg)
}

func TestRun(t *testing.T) {
	srv := testServer(t)
	outDir := t.TempDir()
	gen := testGenerator(t, srv, Config{OutputDir: outDir, Format: "yaml", Workers: 2})

	results := gen.Run(context.Background(), []string{"crypto", "forex"})
	require.Len(t, results, 2)

	for _, res := range results {
		require.NoError(t, res.Err, res.Market)
		assert.FileExists(t, res.Path)
		assert.Equal(t, filepath.Join(outDir, res.Market+"_openapi.yaml"), res.Path)
	}

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CryptoFields")
}

func TestRun_FailureIsolation(t *testing.T) {
	srv := testServer(t)
	gen := testGenerator(t, srv, Config{OutputDir: t.TempDir(), Workers: 2})

	results := gen.Run(context.Background(), []string{"broken", "crypto"})
	require.Len(t, results, 2)

	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].Path)

	require.NoError(t, results[1].Err)
	assert.FileExists(t, results[1].Path)
}

func TestRun_SavesDumps(t *testing.T) {
	srv := testServer(t)
	dataDir := t.TempDir()
	gen := testGenerator(t, srv, Config{
		OutputDir: t.TempDir(),
		DataDir:   dataDir,
		Workers:   1,
	})

	results := gen.Run(context.Background(), []string{"crypto"})
	require.NoError(t, results[0].Err)
	assert.FileExists(t, filepath.Join(dataDir, "crypto.json"))
}

func TestRunFromDumps(t *testing.T) {
	srv := testServer(t)
	dataDir := t.TempDir()
	outDir := t.TempDir()

	live := testGenerator(t, srv, Config{OutputDir: t.TempDir(), DataDir: dataDir, Workers: 1})
	require.NoError(t, live.Run(context.Background(), []string{"crypto"})[0].Err)

	offline := testGenerator(t, srv, Config{OutputDir: outDir, Format: "json", Workers: 1})
	results := offline.RunFromDumps(context.Background(), dataDir, []string{"crypto", "missing"})
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	assert.Equal(t, filepath.Join(outDir, "crypto_openapi.json"), results[0].Path)

	assert.Error(t, results[1].Err)
}
