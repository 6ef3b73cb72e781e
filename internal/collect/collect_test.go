package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/screener-openapi/pkg/client"
)

func testMarketData() *MarketData {
	mi := &client.MetainfoResponse{Fields: []client.MetaField{
		{Name: "close", Type: "number"},
		{Name: "is_hot", Type: "bool"},
		{Name: "exchange", Type: "text", Values: []any{"BINANCE", "KRAKEN"}},
		{Name: "legacy", Type: "number", Flags: []string{"deprecated"}},
	}}
	return &MarketData{
		Market:   "coin",
		Metainfo: mi,
		Columns:  []string{"close", "is_hot", "exchange", "legacy"},
		Row:      []any{json.Number("50000.0"), "true", "BINANCE", json.Number("1")},
	}
}

func TestBuildMarketSpec(t *testing.T) {
	spec, err := BuildMarketSpec(testMarketData())
	require.NoError(t, err)

	assert.Equal(t, "coin", spec.Market)
	require.Len(t, spec.Fields, 3, "deprecated fields are dropped")

	assert.Equal(t, "close", spec.Fields[0].Name)
	assert.Equal(t, json.Number("50000.0"), spec.Fields[0].Sample)
	assert.Equal(t, "number", spec.Fields[0].DeclaredType)

	assert.Equal(t, "exchange", spec.Fields[2].Name)
	assert.Equal(t, []string{"BINANCE", "KRAKEN"}, spec.Fields[2].EnumValues)
}

func TestBuildMarketSpec_UndocumentedColumns(t *testing.T) {
	data := testMarketData()
	data.Columns = append(data.Columns, "mystery")
	data.Row = append(data.Row, json.Number("3.5"))

	spec, err := BuildMarketSpec(data)
	require.NoError(t, err)

	last := spec.Fields[len(spec.Fields)-1]
	assert.Equal(t, "mystery", last.Name)
	assert.True(t, last.Undocumented)
	assert.Equal(t, json.Number("3.5"), last.Sample)

	// A deprecated metainfo field must not resurface as undocumented.
	for _, fd := range spec.Fields {
		assert.NotEqual(t, "legacy", fd.Name)
	}
}

func TestBuildMarketSpec_NoRow(t *testing.T) {
	data := testMarketData()
	data.Row = nil

	spec, err := BuildMarketSpec(data)
	require.NoError(t, err)
	require.Len(t, spec.Fields, 3)
	assert.Nil(t, spec.Fields[0].Sample, "missing samples stay nil and infer to the declared type")
}

func TestBuildMarketSpec_ComplexEnumValuesSkipped(t *testing.T) {
	data := &MarketData{
		Market: "coin",
		Metainfo: &client.MetainfoResponse{Fields: []client.MetaField{
			{Name: "sector", Type: "text", Values: []any{
				map[string]any{"id": "fin", "name": "Financials"},
				"energy",
			}},
		}},
		Columns: []string{"sector"},
	}
	spec, err := BuildMarketSpec(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"energy"}, spec.Fields[0].EnumValues)
}

func TestBuildMarketSpec_InvalidDump(t *testing.T) {
	_, err := BuildMarketSpec(&MarketData{Market: "coin"})
	require.Error(t, err)

	_, err = BuildMarketSpec(&MarketData{
		Market:   "coin",
		Metainfo: &client.MetainfoResponse{},
		Columns:  []string{"a"},
		Row:      []any{1, 2},
	})
	require.Error(t, err, "row longer than columns must be rejected")
}

func TestCollector_FetchAndCache(t *testing.T) {
	metainfoCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/metainfo"):
			metainfoCalls++
			w.Write([]byte(`{"fields":[{"n":"close","t":"number"},{"n":"exchange","t":"text"}]}`))
		case strings.HasSuffix(r.URL.Path, "/scan"):
			w.Write([]byte(`{"totalCount":1,"data":[{"s":"BINANCE:BTCUSDT","d":[50000.5,"BINANCE"]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(client.New(
		client.WithBaseURL(srv.URL),
		client.WithRateLimit(1000, 1000),
		client.WithRetries(0, time.Millisecond),
	), 8, 5)
	require.NoError(t, err)

	data, err := c.Fetch(context.Background(), "crypto")
	require.NoError(t, err)
	assert.Equal(t, []string{"close", "exchange"}, data.Columns)
	require.Len(t, data.Row, 2)
	assert.Equal(t, json.Number("50000.5"), data.Row[0])

	_, err = c.Fetch(context.Background(), "crypto")
	require.NoError(t, err)
	assert.Equal(t, 1, metainfoCalls, "metainfo must be served from cache on repeat fetch")
}

func TestCollector_ScanFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/metainfo") {
			w.Write([]byte(`{"fields":[{"n":"close","t":"number"}]}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"scan unavailable"}`))
	}))
	defer srv.Close()

	c, err := New(client.New(
		client.WithBaseURL(srv.URL),
		client.WithRateLimit(1000, 1000),
		client.WithRetries(0, time.Millisecond),
	), 8, 5)
	require.NoError(t, err)

	data, err := c.Fetch(context.Background(), "bonds")
	require.NoError(t, err, "scan failure must not fail collection")
	assert.Nil(t, data.Row)
	assert.Equal(t, []string{"close"}, data.Columns)
}

func TestDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testMarketData()

	path, err := SaveDump(dir, original)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "coin.json"))

	loaded, err := LoadDump(dir, "coin")
	require.NoError(t, err)
	assert.Equal(t, original.Market, loaded.Market)
	assert.Equal(t, original.Columns, loaded.Columns)
	assert.Equal(t, json.Number("50000.0"), loaded.Row[0], "number literals must survive the round trip")
}
