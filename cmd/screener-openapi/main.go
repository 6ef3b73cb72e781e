package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/usestring/screener-openapi/internal/assemble"
	"github.com/usestring/screener-openapi/internal/collect"
	"github.com/usestring/screener-openapi/internal/config"
	"github.com/usestring/screener-openapi/internal/generate"
	"github.com/usestring/screener-openapi/internal/logging"
	"github.com/usestring/screener-openapi/internal/query"
	"github.com/usestring/screener-openapi/internal/validate"
	"github.com/usestring/screener-openapi/pkg/client"
)

const usage = `Usage: screener-openapi <command> [flags]

Commands:
  generate   fetch market data and write OpenAPI documents
  collect    fetch market data and save raw dumps
  validate   check a generated document
  inspect    run a jq expression against a saved dump

Run "screener-openapi <command> -h" for command flags.
`

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg := config.Load()

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var runErr error
	switch cmd := os.Args[1]; cmd {
	case "generate":
		runErr = runGenerate(ctx, cfg, os.Args[2:])
	case "collect":
		runErr = runCollect(ctx, cfg, os.Args[2:])
	case "validate":
		runErr = runValidate(os.Args[2:])
	case "inspect":
		runErr = runInspect(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if runErr != nil {
		slog.Error("command failed", "error", runErr)
		os.Exit(1)
	}
}

func newCollector(cfg *config.Config) (*collect.Collector, error) {
	c := client.New(
		client.WithBaseURL(cfg.ScannerBaseURL),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
		client.WithRateLimit(cfg.RequestsPerSecond, cfg.RateBurst),
		client.WithRetries(cfg.MaxRetries, cfg.RetryDelayMs),
	)
	return collect.New(c, len(config.DefaultMarkets)*2, cfg.ScanSampleRows)
}

func runGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	markets := fs.String("market", "", "comma-separated markets (default: MARKETS env or builtin list)")
	outputDir := fs.String("output", cfg.OutputDir, "output directory")
	format := fs.String("format", cfg.Format, "output format: yaml or json")
	fromDumps := fs.Bool("from-dumps", false, "assemble from saved dumps instead of fetching")
	dataDir := fs.String("data", cfg.DataDir, "dump directory")
	fs.Parse(args)

	collector, err := newCollector(cfg)
	if err != nil {
		return err
	}

	gen := generate.New(collector, assemble.New(cfg.SpecTitle, cfg.SpecVersion, cfg.ServerURL), generate.Config{
		OutputDir: *outputDir,
		DataDir:   *dataDir,
		Format:    *format,
		Workers:   cfg.FetchWorkers,
	})

	list := marketList(*markets, cfg)

	var results []generate.Result
	if *fromDumps {
		results = gen.RunFromDumps(ctx, *dataDir, list)
	} else {
		results = gen.Run(ctx, list)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Market, r.Err)
			continue
		}
		fmt.Println(r.Path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d markets failed", failed, len(results))
	}
	return nil
}

func runCollect(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	markets := fs.String("market", "", "comma-separated markets (default: MARKETS env or builtin list)")
	dataDir := fs.String("data", cfg.DataDir, "dump directory")
	fs.Parse(args)

	collector, err := newCollector(cfg)
	if err != nil {
		return err
	}

	failed := 0
	for _, market := range marketList(*markets, cfg) {
		data, err := collector.Fetch(ctx, market)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", market, err)
			continue
		}
		path, err := collect.SaveDump(*dataDir, data)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", market, err)
			continue
		}
		fmt.Println(path)
	}
	if failed > 0 {
		return fmt.Errorf("%d markets failed", failed)
	}
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	specPath := fs.String("spec", "", "path to a generated document (.yaml or .json)")
	rowPath := fs.String("row", "", "optional market dump whose sample row is validated against the fields schema")
	schemaName := fs.String("schema", "", "schema to validate the row against (default <Market>Fields from the dump)")
	fs.Parse(args)

	if *specPath == "" {
		return fmt.Errorf("missing required -spec flag")
	}

	report, err := validate.File(*specPath)
	if err != nil {
		return err
	}

	if !report.Valid() {
		for _, msg := range report.Errors {
			fmt.Fprintln(os.Stderr, msg)
		}
		return fmt.Errorf("%d problems in %d schemas", len(report.Errors), report.Schemas)
	}
	fmt.Printf("ok: %d schemas\n", report.Schemas)

	if *rowPath != "" {
		return validateRow(*specPath, *rowPath, *schemaName)
	}
	return nil
}

// validateRow checks a dump's sample row against the document's fields
// schema.
func validateRow(specPath, rowPath, schemaName string) error {
	raw, err := os.ReadFile(rowPath)
	if err != nil {
		return err
	}
	var dump collect.MarketData
	if err := json.Unmarshal(raw, &dump); err != nil {
		return fmt.Errorf("parsing dump: %w", err)
	}
	if len(dump.Row) == 0 {
		return fmt.Errorf("dump for %s has no sample row", dump.Market)
	}

	row := make(map[string]any, len(dump.Columns))
	for i, col := range dump.Columns {
		if i < len(dump.Row) {
			row[col] = dump.Row[i]
		}
	}

	if schemaName == "" {
		if dump.Market == "" {
			return fmt.Errorf("dump has no market name; pass -schema")
		}
		schemaName = strings.ToUpper(dump.Market[:1]) + dump.Market[1:] + "Fields"
	}

	msgs, err := validate.FileRow(specPath, schemaName, row)
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		for _, msg := range msgs {
			fmt.Fprintln(os.Stderr, msg)
		}
		return fmt.Errorf("sample row fails %s", schemaName)
	}
	fmt.Printf("ok: sample row matches %s\n", schemaName)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	file := fs.String("file", "", "path to a saved market dump")
	expr := fs.String("expr", ".", "jq expression")
	dedup := fs.Bool("dedup", false, "deduplicate values")
	maxResults := fs.Int("max", 0, "limit number of values (0 = unbounded)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("missing required -file flag")
	}

	result, err := query.RunFile(*file, *expr, *dedup, *maxResults)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(os.Stderr, msg)
	}
	return nil
}

func marketList(flagValue string, cfg *config.Config) []string {
	if flagValue == "" {
		return cfg.Markets
	}
	var out []string
	for _, part := range strings.Split(flagValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return cfg.Markets
	}
	return out
}
