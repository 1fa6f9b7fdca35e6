package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"econcli/internal/app"
	"econcli/internal/cache"
	"econcli/internal/config"
	apperrors "econcli/internal/errors"
	"econcli/internal/exporter"
	"econcli/internal/infrastructure"
	"econcli/internal/paced"
	"econcli/internal/resolver"
)

func main() {
	tickers := flag.String("tickers", "", "comma-separated tickers to resolve (e.g. cpi,ppi)")
	dateSpec := flag.String("date", "", `date spec: "2024", "2024-06", "2020-2024", "last 5 years", "latest"`)
	format := flag.String("format", "csv", "output format: csv | json")
	registryFile := flag.String("registry", "", "optional YAML registry overlay file")
	flag.Parse()

	if *tickers == "" {
		fmt.Fprintln(os.Stderr, "Error: -tickers is required")
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *registryFile != "" {
		cfg.Resolve.RegistryFile = *registryFile
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	reg, err := app.BuildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	layer, err := cache.NewLayer(cfg.Cache, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize cache: %v\n", err)
		os.Exit(1)
	}
	defer layer.Close()

	res := resolver.New(reg, layer, paced.New(cfg.Fetch, logger), cfg.Resolve, logger)

	list := splitTickers(*tickers)
	items := res.ResolveMany(context.Background(), list, *dateSpec)

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", item.Ticker, describe(item.Err))
			continue
		}
		if err := output(item, *format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", item.Ticker, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func splitTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func output(item resolver.BatchItem, format string) error {
	switch format {
	case "json":
		return exporter.WriteJSON(os.Stdout, item.Series)
	case "csv":
		exporter.WriteInfo(os.Stdout, item.Series)
		return exporter.WriteCSV(os.Stdout, item.Series)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// describe renders a resolution failure for the terminal without a
// stack trace.
func describe(err error) string {
	var ex *apperrors.ExhaustedError
	switch {
	case apperrors.IsUnknownTicker(err):
		return "ticker is not registered (see -tickers list via the server /api/tickers)"
	case errors.As(err, &ex):
		if ex.AllMisses() {
			return "no data exists for the requested range"
		}
		return err.Error()
	}
	return err.Error()
}
