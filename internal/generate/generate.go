// Package generate runs the end-to-end pipeline: fetch market data,
// assemble an OpenAPI document per market, and write it to disk.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/usestring/screener-openapi/internal/assemble"
	"github.com/usestring/screener-openapi/internal/collect"
	"github.com/usestring/screener-openapi/internal/output"
)

// Config controls pipeline behavior.
type Config struct {
	OutputDir string
	DataDir   string // when non-empty, raw market data is dumped here
	Format    string
	Workers   int
}

// Result reports the outcome for a single market. Err is nil on success,
// in which case Path points at the written document.
type Result struct {
	Market string
	Path   string
	Err    error
}

// Generator coordinates collection, assembly and output for a batch of
// markets. Markets are processed concurrently but fail independently.
type Generator struct {
	collector *collect.Collector
	assembler *assemble.Assembler
	cfg       Config
}

func New(collector *collect.Collector, assembler *assemble.Assembler, cfg Config) *Generator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Format == "" {
		cfg.Format = output.FormatYAML
	}
	return &Generator{collector: collector, assembler: assembler, cfg: cfg}
}

// Run generates a document for each market. One market failing never
// aborts the others; each slot in the returned slice carries its own
// error. Results are in the same order as markets.
func (g *Generator) Run(ctx context.Context, markets []string) []Result {
	runID := uuid.NewString()
	start := time.Now()

	slog.Info("starting generation run",
		slog.String("run_id", runID),
		slog.Int("markets", len(markets)),
		slog.Int("workers", g.cfg.Workers),
	)

	results := make([]Result, len(markets))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)

	for i, market := range markets {
		i, market := i, market

		eg.Go(func() error {
			path, err := g.generateMarket(ctx, market)
			results[i] = Result{Market: market, Path: path, Err: err}
			if err != nil {
				slog.Warn("market generation failed",
					slog.String("run_id", runID),
					slog.String("market", market),
					slog.String("error", err.Error()),
				)
			}
			// Failures are reported per market, never propagated.
			return nil
		})
	}

	// Workers never return errors; Wait only observes ctx cancellation.
	_ = eg.Wait()

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	slog.Info("generation run completed",
		slog.String("run_id", runID),
		slog.Int("succeeded", ok),
		slog.Int("failed", len(markets)-ok),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return results
}

// RunFromDumps assembles documents from previously collected dumps in
// dataDir instead of fetching from the API.
func (g *Generator) RunFromDumps(ctx context.Context, dataDir string, markets []string) []Result {
	results := make([]Result, len(markets))
	for i, market := range markets {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Market: market, Err: err}
			continue
		}
		data, err := collect.LoadDump(dataDir, market)
		if err != nil {
			results[i] = Result{Market: market, Err: fmt.Errorf("loading dump: %w", err)}
			continue
		}
		path, err := g.assembleAndWrite(data)
		results[i] = Result{Market: market, Path: path, Err: err}
	}
	return results
}

func (g *Generator) generateMarket(ctx context.Context, market string) (string, error) {
	data, err := g.collector.Fetch(ctx, market)
	if err != nil {
		return "", fmt.Errorf("collecting %s: %w", market, err)
	}

	if g.cfg.DataDir != "" {
		if _, err := collect.SaveDump(g.cfg.DataDir, data); err != nil {
			return "", fmt.Errorf("saving dump: %w", err)
		}
	}

	return g.assembleAndWrite(data)
}

func (g *Generator) assembleAndWrite(data *collect.MarketData) (string, error) {
	spec, err := collect.BuildMarketSpec(data)
	if err != nil {
		return "", fmt.Errorf("building field set: %w", err)
	}

	doc, err := g.assembler.Assemble(spec)
	if err != nil {
		return "", fmt.Errorf("assembling %s: %w", data.Market, err)
	}

	path, err := output.Write(g.cfg.OutputDir, data.Market, g.cfg.Format, doc)
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", data.Market, err)
	}

	slog.Debug("wrote market document",
		slog.String("market", data.Market),
		slog.String("path", path),
	)
	return path, nil
}
