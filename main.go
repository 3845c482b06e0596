package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"marketfetcher/internal/cache"
	"marketfetcher/internal/config"
	"marketfetcher/internal/coordinator"
	"marketfetcher/internal/fetcher"
	"marketfetcher/internal/logging"
	"marketfetcher/internal/market"
	"marketfetcher/internal/ratelimit"
	"marketfetcher/internal/yahoo"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("marketfetcher", pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] TICKER [TICKER...]\n\nFetch historical market data from Yahoo Finance.\n\n", os.Args[0])
		flags.PrintDefaults()
	}

	start := flags.StringP("start", "s", "", "historical start date (YYYY-MM-DD)")
	end := flags.StringP("end", "e", "", "historical end date (YYYY-MM-DD)")
	interval := flags.StringP("interval", "i", "1d", "historical data frequency")
	marketName := flags.StringP("market", "m", "", "list available tickers for an asset class and exit")
	flags.IntP("workers", "w", 1, "number of concurrent fetch workers")
	flags.StringP("output", "o", ".", "directory for CSV output")
	flags.String("cache-dir", "./cache/yfinance", "directory for cached data")
	flags.Int("max-retries", 5, "maximum fetch attempts per ticker")
	flags.Duration("base-delay", 3*time.Second, "base backoff delay between attempts")
	flags.Float64("rate-limit", 2.0, "provider requests per second")
	flags.String("base-url", yahoo.DefaultBaseURL, "market data provider base URL")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "optional rotating log file")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}

	// Market listing mode: print static reference tickers and exit.
	if *marketName != "" {
		tickers, err := market.List(*marketName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Available %s tickers:\n", *marketName)
		for _, t := range tickers {
			fmt.Printf("  %s\n", t)
		}
		return 0
	}

	tickers := flags.Args()
	if len(tickers) == 0 {
		fmt.Fprintln(os.Stderr, "Ticker symbol is required. Use -m to show available markets or provide a ticker symbol.")
		flags.Usage()
		return 1
	}

	// Validate inputs before touching the cache or the network.
	if (*start == "") != (*end == "") {
		fmt.Fprintln(os.Stderr, "--start and --end must be supplied together")
		return 1
	}
	if *start != "" {
		if err := fetcher.ValidateDate(*start); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := fetcher.ValidateDate(*end); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if err := fetcher.ValidateInterval(*interval); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	store, err := cache.New(cfg.CacheDir, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize cache")
		return 1
	}

	src := yahoo.NewClient(cfg.BaseURL, ratelimit.New(cfg.RateLimit, ratelimit.DefaultBurst), log)
	f := fetcher.New(src, store, log, fetcher.Config{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
	})
	coord := coordinator.New(f, cfg.Workers, log)

	reqs := make([]coordinator.Request, 0, len(tickers))
	for _, t := range tickers {
		reqs = append(reqs, coordinator.Request{
			Ticker:   t,
			Start:    *start,
			End:      *end,
			Interval: *interval,
		})
	}

	results, err := coord.Run(ctx, reqs)
	if err != nil {
		log.WithError(err).Error("coordinator failed")
		return 1
	}

	succeeded := 0
	timestamp := time.Now().Format("20060102_150405")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: ERROR - %v\n", res.Ticker, res.Err)
			continue
		}
		succeeded++
		fmt.Printf("%s: %d rows (%s to %s)\n", res.Ticker, res.Table.Len(),
			res.Table.MinDate().Format("2006-01-02"), res.Table.MaxDate().Format("2006-01-02"))

		path := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_%s.csv", res.Ticker, timestamp))
		if err := writeCSV(res, path); err != nil {
			log.WithError(err).WithField("path", path).Error("failed to save CSV file")
			continue
		}
		fmt.Printf("Data saved to: %s\n", path)
	}

	if ctx.Err() != nil {
		return 1
	}
	if succeeded == 0 {
		log.Error("all fetches failed")
		return 1
	}
	return 0
}

func writeCSV(res coordinator.Result, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := res.Table.WriteCSV(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
