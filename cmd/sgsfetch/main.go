// Command sgsfetch downloads SGS time series for a CSV list of codes
// and exports their bilingual metadata as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brdatalab/sgsfetch/internal/config"
	"github.com/brdatalab/sgsfetch/internal/csvio"
	"github.com/brdatalab/sgsfetch/pkg/cache"
	"github.com/brdatalab/sgsfetch/pkg/fetcher"
	"github.com/brdatalab/sgsfetch/pkg/logging"
	"github.com/brdatalab/sgsfetch/pkg/sgs"
)

// flags override the loaded configuration for one-off runs, most
// importantly -limit for smoke-testing a handful of codes.
type flags struct {
	input string
	start string
	end   string
	limit int
	group int
}

func main() {
	fs := flag.NewFlagSet("sgsfetch", flag.ExitOnError)
	fl := flags{limit: -1, group: -1}
	fs.StringVar(&fl.input, "input", "", "path to the codes CSV (overrides config)")
	fs.StringVar(&fl.start, "start", "", "start date dd/MM/yyyy (overrides config)")
	fs.StringVar(&fl.end, "end", "", "end date dd/MM/yyyy (overrides config)")
	fs.IntVar(&fl.limit, "limit", -1, "process at most N codes, 0 = all (overrides config)")
	fs.IntVar(&fl.group, "group-size", -1, "codes per batched request (overrides config)")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sgsfetch:", err)
		os.Exit(1)
	}
	applyFlags(cfg, fl)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "sgsfetch:", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

// applyFlags copies set flags over the loaded config.
func applyFlags(cfg *config.Config, fl flags) {
	if fl.input != "" {
		cfg.Input = fl.input
	}
	if fl.start != "" {
		cfg.StartDate = fl.start
	}
	if fl.end != "" {
		cfg.EndDate = fl.end
	}
	if fl.limit >= 0 {
		cfg.Limit = fl.limit
	}
	if fl.group > 0 {
		cfg.GroupSize = fl.group
	}
}

// run executes one fetch-and-export cycle. Per-code failures never
// make it fail; only setup and export problems do.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	codes, err := csvio.ReadCodes(cfg.Input)
	if err != nil {
		return err
	}
	logger.Info().Int("codes", len(codes)).Str("input", cfg.Input).Msg("Loaded code list")

	var cacheManager *cache.Manager
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).
				Msg("Redis unreachable, metadata caching disabled")
			redisClient.Close()
		} else {
			cacheManager = cache.NewManager(redisClient)
			defer redisClient.Close()
		}
	}

	client, err := sgs.New(sgs.Config{
		BaseURL:     cfg.BaseURL,
		MetadataURL: cfg.MetadataURL,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		Cache:       cacheManager,
		CacheTTL:    cfg.CacheTTL(),
	})
	if err != nil {
		return err
	}

	start, err := cfg.Start()
	if err != nil {
		return err
	}
	end, err := cfg.End()
	if err != nil {
		return err
	}

	f := fetcher.New(client, fetcher.Config{
		GroupSize: cfg.GroupSize,
		Limit:     cfg.Limit,
		Delay:     cfg.Throttle(),
		Start:     start,
		End:       end,
		Locales:   sgs.Locales,
	})

	report, err := f.Run(ctx, codes)
	if err != nil {
		return err
	}

	if err := export(cfg, report, logger); err != nil {
		return err
	}

	printSummary(os.Stdout, report)
	return nil
}

// export writes the metadata tables, and the observation table when a
// path is configured. Nothing is written when no series was retrieved.
func export(cfg *config.Config, report *fetcher.Report, logger zerolog.Logger) error {
	if len(report.Series) == 0 {
		logger.Warn().Msg("No data was successfully downloaded, skipping export")
		return nil
	}

	outputs := map[sgs.Locale]string{
		sgs.LocaleEN: cfg.OutputEN,
		sgs.LocalePT: cfg.OutputPT,
	}
	for locale, path := range outputs {
		records := report.Meta[locale]
		if len(records) == 0 {
			logger.Warn().Str("locale", string(locale)).Msg("No metadata records to export")
			continue
		}
		if err := csvio.WriteMetadata(path, records); err != nil {
			return err
		}
		logger.Info().
			Str("locale", string(locale)).
			Str("path", path).
			Int("records", len(records)).
			Msg("Exported metadata")
	}

	if cfg.OutputSeries != "" {
		if err := csvio.WriteSeries(cfg.OutputSeries, report.Series); err != nil {
			return err
		}
		logger.Info().
			Str("path", cfg.OutputSeries).
			Int("series", len(report.Series)).
			Msg("Exported observations")
	}

	return nil
}

// printSummary writes the human-readable run summary.
func printSummary(w io.Writer, report *fetcher.Report) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Successful: %d\n", len(report.Succeeded))
	fmt.Fprintf(w, "  Failed: %d\n", len(report.Failed))
	fmt.Fprintf(w, "  Metadata extracted: %d\n", report.MetadataCount())
	if len(report.Failed) > 0 {
		fmt.Fprintf(w, "Failed series: %v\n", report.Failed)
	}
}
