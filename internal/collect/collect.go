// Package collect fetches market metadata and sample scan rows and turns
// them into field descriptors for assembly. All upstream shape handling
// lives here: the assembler never sees raw JSON.
package collect

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/screener-openapi/pkg/client"
)

// MarketData is the materialized upstream state for one market: its field
// metadata plus one sample scan row aligned with Columns. Row is nil when
// no scan sample could be fetched.
type MarketData struct {
	Market   string                   `json:"market"`
	Metainfo *client.MetainfoResponse `json:"metainfo"`
	Columns  []string                 `json:"columns"`
	Row      []any                    `json:"row,omitempty"`
}

// Collector fetches market data, caching metainfo responses per market.
type Collector struct {
	client     *client.Client
	metainfo   *lru.Cache[string, *client.MetainfoResponse]
	sampleRows int
}

// New creates a Collector. cacheSize bounds the metainfo cache.
func New(c *client.Client, cacheSize, sampleRows int) (*Collector, error) {
	cache, err := lru.New[string, *client.MetainfoResponse](cacheSize)
	if err != nil {
		return nil, err
	}
	if sampleRows < 1 {
		sampleRows = 1
	}
	return &Collector{client: c, metainfo: cache, sampleRows: sampleRows}, nil
}

// Fetch retrieves metainfo and a sample scan row for a market. A failed
// scan degrades to metadata-only collection; a failed metainfo fetch is an
// error.
func (c *Collector) Fetch(ctx context.Context, market string) (*MarketData, error) {
	mi, err := c.fetchMetainfo(ctx, market)
	if err != nil {
		return nil, err
	}

	data := &MarketData{Market: market, Metainfo: mi}
	for _, f := range mi.Fields {
		if f.Name != "" {
			data.Columns = append(data.Columns, f.Name)
		}
	}
	if len(data.Columns) == 0 {
		return data, nil
	}

	scan, err := c.client.Scan(ctx, market, client.NewScanRequest(data.Columns, c.sampleRows))
	if err != nil {
		slog.Warn("scan sample unavailable, generating from metainfo only",
			slog.String("market", market),
			slog.String("error", err.Error()),
		)
		return data, nil
	}
	if len(scan.Data) > 0 {
		data.Row = scan.Data[0].Data
	}
	return data, nil
}

func (c *Collector) fetchMetainfo(ctx context.Context, market string) (*client.MetainfoResponse, error) {
	if mi, ok := c.metainfo.Get(market); ok {
		return mi, nil
	}
	mi, err := c.client.Metainfo(ctx, market)
	if err != nil {
		return nil, err
	}
	if len(mi.Fields) == 0 {
		slog.Warn("metainfo has no fields", slog.String("market", market))
	}
	c.metainfo.Add(market, mi)
	return mi, nil
}

// validate rejects dumps that lost their shape (manual edits, truncated
// files).
func (d *MarketData) validate() error {
	if d.Market == "" {
		return fmt.Errorf("market data missing market name")
	}
	if d.Metainfo == nil {
		return fmt.Errorf("market data for %s missing metainfo", d.Market)
	}
	if d.Row != nil && len(d.Row) > len(d.Columns) {
		return fmt.Errorf("market data for %s: row has %d values for %d columns",
			d.Market, len(d.Row), len(d.Columns))
	}
	return nil
}
