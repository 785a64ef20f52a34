// Package fetcher implements the batched download procedure: partition
// the code list into groups, download each group in one batched call,
// fall back to throttled per-code requests when a group fails, and
// collect bilingual metadata for everything retrieved.
package fetcher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brdatalab/sgsfetch/pkg/sgs"
	"github.com/brdatalab/sgsfetch/pkg/throttle"
)

// Prometheus metrics for fetch runs.
var (
	fetchGroupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgs_fetch_groups_total",
		Help: "Total groups processed by outcome (batch_ok, fallback)",
	}, []string{"outcome"})

	fetchCodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgs_fetch_codes_total",
		Help: "Total codes processed by outcome (ok, failed)",
	}, []string{"outcome"})

	fetchMetadataRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgs_fetch_metadata_records_total",
		Help: "Total metadata records collected by locale",
	}, []string{"locale"})
)

// Service is the remote data service the fetcher drives. The SGS
// client satisfies it; tests substitute mocks.
type Service interface {
	// Fetch retrieves one series for the date range.
	Fetch(ctx context.Context, code int, start, end time.Time) ([]sgs.Observation, error)

	// FetchMany retrieves several series in one batched call, failing
	// as a whole if any of them fails.
	FetchMany(ctx context.Context, codes []int, start, end time.Time) (map[int][]sgs.Observation, error)

	// Metadata retrieves descriptive metadata for the codes in one
	// locale, failing as a whole if any of them fails.
	Metadata(ctx context.Context, codes []int, locale sgs.Locale) ([]sgs.Metadata, error)
}

// Config holds the fetch-run parameters.
type Config struct {
	// GroupSize is the number of codes per batched request.
	GroupSize int

	// Limit caps how many codes are attempted (0 = all). Codes past
	// the limit are neither attempted nor counted as failed.
	Limit int

	// Delay is the throttle between consecutive individual requests.
	Delay time.Duration

	// Start and End bound the observation date range.
	Start time.Time
	End   time.Time

	// Locales are the metadata languages to collect.
	Locales []sgs.Locale
}

// DefaultConfig returns the conventional run parameters: groups of 10
// and a one-second throttle, the values the BCB API tolerates well.
func DefaultConfig(start, end time.Time) Config {
	return Config{
		GroupSize: 10,
		Delay:     1 * time.Second,
		Start:     start,
		End:       end,
		Locales:   sgs.Locales,
	}
}

// Fetcher runs the batched download procedure. It is sequential: one
// remote call in flight at a time.
type Fetcher struct {
	service Service
	config  Config
	pacer   *throttle.Pacer
	logger  zerolog.Logger
}

// New creates a fetcher over the given service.
func New(service Service, cfg Config) *Fetcher {
	if cfg.GroupSize <= 0 {
		cfg.GroupSize = 10
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = sgs.Locales
	}

	return &Fetcher{
		service: service,
		config:  cfg,
		pacer:   throttle.NewPacer(cfg.Delay),
		logger:  log.With().Str("component", "fetcher").Logger(),
	}
}

// Run processes the full code list and never aborts on a per-code or
// per-group failure; every remote-call error is converted into
// membership in the failed set. The only error it returns is context
// cancellation, alongside the partial report accumulated so far.
func (f *Fetcher) Run(ctx context.Context, codes []int) (*Report, error) {
	f.pacer.Reset()

	attempted := codes
	if f.config.Limit > 0 && len(attempted) > f.config.Limit {
		attempted = attempted[:f.config.Limit]
		f.logger.Info().
			Int("limit", f.config.Limit).
			Int("input", len(codes)).
			Msg("Processing limit active")
	}

	report := &Report{
		Series: make(map[int][]sgs.Observation),
		Meta:   make(map[sgs.Locale][]Record, len(f.config.Locales)),
	}
	// metaByCode tracks per-locale records keyed by code so the
	// fallback path and the bulk pass never duplicate rows.
	metaByCode := make(map[sgs.Locale]map[int]Record, len(f.config.Locales))
	for _, locale := range f.config.Locales {
		report.Meta[locale] = []Record{}
		metaByCode[locale] = make(map[int]Record)
	}

	if len(attempted) == 0 {
		f.logger.Info().Msg("Empty input, nothing to fetch")
		return report, nil
	}

	groups := partition(attempted, f.config.GroupSize)
	f.logger.Info().
		Int("codes", len(attempted)).
		Int("groups", len(groups)).
		Int("group_size", f.config.GroupSize).
		Msg("Starting fetch run")

	for i, group := range groups {
		if err := f.processGroup(ctx, i+1, len(groups), group, report, metaByCode); err != nil {
			f.finalize(report, metaByCode, attempted)
			return report, err
		}
	}

	if err := f.collectMetadata(ctx, report, metaByCode); err != nil {
		f.finalize(report, metaByCode, attempted)
		return report, err
	}

	f.finalize(report, metaByCode, attempted)

	f.logger.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("metadata", report.MetadataCount()).
		Msg("Fetch run complete")

	return report, nil
}

// processGroup attempts the batched download for one group, falling
// back to throttled per-code requests when the batch fails.
func (f *Fetcher) processGroup(ctx context.Context, num, total int, group []int, report *Report, metaByCode map[sgs.Locale]map[int]Record) error {
	f.logger.Info().
		Int("group", num).
		Int("groups", total).
		Int("codes", len(group)).
		Msg("Processing group")

	series, err := f.service.FetchMany(ctx, group, f.config.Start, f.config.End)
	if err == nil {
		for code, obs := range series {
			report.Series[code] = obs
		}
		fetchGroupsTotal.WithLabelValues("batch_ok").Inc()
		f.logger.Info().
			Int("group", num).
			Int("codes", len(group)).
			Msg("Batched download succeeded")
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	fetchGroupsTotal.WithLabelValues("fallback").Inc()
	f.logger.Warn().
		Err(err).
		Int("group", num).
		Msg("Batched download failed, falling back to individual requests")

	for _, code := range group {
		if err := f.fetchOne(ctx, code, report, metaByCode); err != nil {
			return err
		}
	}

	return nil
}

// fetchOne downloads a single series after a throttle wait, then tries
// per-code metadata in every locale. Metadata failure leaves the code
// retrieved.
func (f *Fetcher) fetchOne(ctx context.Context, code int, report *Report, metaByCode map[sgs.Locale]map[int]Record) error {
	if err := f.pacer.Wait(ctx); err != nil {
		return err
	}

	obs, err := f.service.Fetch(ctx, code, f.config.Start, f.config.End)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetchCodesTotal.WithLabelValues("failed").Inc()
		report.Failed = append(report.Failed, code)
		f.logger.Warn().
			Err(err).
			Int("code", code).
			Msg("Individual download failed")
		return nil
	}

	report.Series[code] = obs
	fetchCodesTotal.WithLabelValues("ok").Inc()
	f.logger.Info().
		Int("code", code).
		Int("observations", len(obs)).
		Msg("Individual download succeeded")

	// Collect metadata for all locales; record only when every locale
	// answered so the per-locale tables stay aligned.
	records := make(map[sgs.Locale]Record, len(f.config.Locales))
	for _, locale := range f.config.Locales {
		metas, err := f.service.Metadata(ctx, []int{code}, locale)
		if err != nil || len(metas) == 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn().
				Err(err).
				Int("code", code).
				Str("locale", string(locale)).
				Msg("Data OK but metadata failed")
			return nil
		}
		records[locale] = newRecord(metas[0])
	}
	for locale, record := range records {
		metaByCode[locale][code] = record
		fetchMetadataRecordsTotal.WithLabelValues(string(locale)).Inc()
	}

	return nil
}

// collectMetadata runs the bulk metadata pass over every retrieved
// code that the fallback path has not already described, one locale at
// a time. A failed bulk call degrades to per-code requests instead of
// leaving the locale empty.
func (f *Fetcher) collectMetadata(ctx context.Context, report *Report, metaByCode map[sgs.Locale]map[int]Record) error {
	if len(report.Series) == 0 {
		return nil
	}

	for _, locale := range f.config.Locales {
		missing := make([]int, 0, len(report.Series))
		for code := range report.Series {
			if _, ok := metaByCode[locale][code]; !ok {
				missing = append(missing, code)
			}
		}
		if len(missing) == 0 {
			continue
		}

		metas, err := f.service.Metadata(ctx, missing, locale)
		if err == nil {
			for _, meta := range metas {
				metaByCode[locale][meta.Code] = newRecord(meta)
				fetchMetadataRecordsTotal.WithLabelValues(string(locale)).Inc()
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn().
			Err(err).
			Str("locale", string(locale)).
			Int("codes", len(missing)).
			Msg("Bulk metadata failed, falling back to individual requests")

		for _, code := range missing {
			if err := f.pacer.Wait(ctx); err != nil {
				return err
			}
			metas, err := f.service.Metadata(ctx, []int{code}, locale)
			if err != nil || len(metas) == 0 {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				f.logger.Warn().
					Err(err).
					Int("code", code).
					Str("locale", string(locale)).
					Msg("Individual metadata failed")
				continue
			}
			metaByCode[locale][code] = newRecord(metas[0])
			fetchMetadataRecordsTotal.WithLabelValues(string(locale)).Inc()
		}
	}

	return nil
}

// finalize derives the outcome sets and per-locale tables in input
// order. Merge into Series is keyed by code, so ordering here depends
// only on the attempted list, not on retrieval order.
func (f *Fetcher) finalize(report *Report, metaByCode map[sgs.Locale]map[int]Record, attempted []int) {
	failed := make(map[int]bool, len(report.Failed))
	for _, code := range report.Failed {
		failed[code] = true
	}

	succeeded := make([]int, 0, len(attempted))
	orderedFailed := make([]int, 0, len(report.Failed))
	for _, code := range attempted {
		if _, ok := report.Series[code]; ok {
			succeeded = append(succeeded, code)
		} else if failed[code] {
			orderedFailed = append(orderedFailed, code)
		}
	}
	report.Succeeded = succeeded
	report.Failed = orderedFailed

	for _, locale := range f.config.Locales {
		table := make([]Record, 0, len(metaByCode[locale]))
		for _, code := range attempted {
			if record, ok := metaByCode[locale][code]; ok {
				table = append(table, record)
			}
		}
		report.Meta[locale] = table
	}
}
