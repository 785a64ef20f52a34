package sgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brdatalab/sgsfetch/pkg/cache"
)

// Prometheus metrics for SGS client operations.
var (
	sgsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgs_requests_total",
		Help: "Total SGS requests by endpoint and status",
	}, []string{"endpoint", "status"})

	sgsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sgs_request_duration_seconds",
		Help:    "SGS request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	sgsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sgs_errors_total",
		Help: "Total SGS errors by class",
	}, []string{"class"})
)

// Default SGS endpoints.
const (
	// DefaultBaseURL serves series observations as JSON.
	DefaultBaseURL = "https://api.bcb.gov.br/dados/serie"

	// DefaultMetadataURL is the public series-search page scraped for
	// descriptive metadata. The language query parameter toggles en/pt.
	DefaultMetadataURL = "https://www3.bcb.gov.br/sgspub/localizarseries/localizarSeries.do"
)

// Client is the SGS API client. It issues one request at a time; the
// caller owns throttling and fallback policy.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	metadataURL string
	userAgent   string
	cache       *cache.Manager
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the observations endpoint root (default DefaultBaseURL).
	BaseURL string

	// MetadataURL is the series-search page URL (default DefaultMetadataURL).
	MetadataURL string

	// UserAgent identifies the caller to the BCB servers.
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// Cache is an optional metadata cache. Nil disables caching.
	Cache *cache.Manager

	// CacheTTL is how long scraped metadata stays fresh.
	CacheTTL time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		MetadataURL: DefaultMetadataURL,
		UserAgent:   userAgent,
		Timeout:     30 * time.Second,
		CacheTTL:    24 * time.Hour,
	}
}

// New creates a new SGS client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MetadataURL == "" {
		cfg.MetadataURL = DefaultMetadataURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	logger := log.With().Str("component", "sgs-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		metadataURL: cfg.MetadataURL,
		userAgent:   cfg.UserAgent,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		logger:      logger,
	}, nil
}

// Fetch retrieves the observations of one series for the date range.
// An empty slice with a nil error means the series exists but has no
// observations in the range.
func (c *Client) Fetch(ctx context.Context, code int, start, end time.Time) ([]Observation, error) {
	endpoint := fmt.Sprintf("%s/bcdata.sgs.%d/dados", c.baseURL, code)

	q := url.Values{}
	q.Set("formato", "json")
	q.Set("dataInicial", start.Format(DateLayout))
	q.Set("dataFinal", end.Format(DateLayout))

	body, err := c.get(ctx, "observations", code, endpoint+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	obs, err := parseObservations(body)
	if err != nil {
		return nil, &APIError{
			Code:       code,
			ErrorClass: ErrorClassServer,
			Message:    "malformed observations payload",
			Err:        err,
		}
	}

	c.logger.Debug().
		Int("code", code).
		Int("observations", len(obs)).
		Msg("Fetched series")

	return obs, nil
}

// FetchMany retrieves several series as one batched request. The batch
// fails as a whole on the first failing code, mirroring the all-or-
// nothing semantics of a grouped download; callers fall back to Fetch
// per code on failure.
func (c *Client) FetchMany(ctx context.Context, codes []int, start, end time.Time) (map[int][]Observation, error) {
	series := make(map[int][]Observation, len(codes))
	for _, code := range codes {
		obs, err := c.Fetch(ctx, code, start, end)
		if err != nil {
			return nil, fmt.Errorf("batched fetch (series %d): %w", code, err)
		}
		series[code] = obs
	}
	return series, nil
}

// Metadata retrieves descriptive metadata for the given codes in one
// locale. It fails as a whole on the first failing code; callers that
// want per-code granularity pass a single code.
func (c *Client) Metadata(ctx context.Context, codes []int, locale Locale) ([]Metadata, error) {
	records := make([]Metadata, 0, len(codes))
	for _, code := range codes {
		record, err := c.metadataOne(ctx, code, locale)
		if err != nil {
			return nil, fmt.Errorf("metadata (series %d, locale %s): %w", code, locale, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// metadataOne fetches and parses the series-search page for one code,
// consulting the cache first when one is configured.
func (c *Client) metadataOne(ctx context.Context, code int, locale Locale) (Metadata, error) {
	key := cache.Key{Code: code, Locale: string(locale)}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Int("code", code).Msg("Cache get error")
		}
		if entry != nil {
			var record Metadata
			if err := json.Unmarshal(entry.Data, &record); err == nil {
				c.logger.Debug().Int("code", code).Str("locale", string(locale)).Msg("Metadata cache hit")
				return record, nil
			}
		}
	}

	q := url.Values{}
	q.Set("method", "localizarSeriesPorCodigo")
	q.Set("periodicidade", "0")
	q.Set("codigo", strconv.Itoa(code))
	q.Set("language", string(locale))

	body, err := c.get(ctx, "metadata", code, c.metadataURL+"?"+q.Encode())
	if err != nil {
		return Metadata{}, err
	}

	record, err := parseMetadataPage(body, code)
	if err != nil {
		return Metadata{}, err
	}

	if c.cache != nil {
		data, err := json.Marshal(record)
		if err == nil {
			entry := &cache.Entry{
				Data:     data,
				CachedAt: time.Now(),
				Expires:  time.Now().Add(c.cacheTTL),
			}
			if err := c.cache.Set(ctx, key, entry); err != nil {
				c.logger.Warn().Err(err).Int("code", code).Msg("Failed to cache metadata")
			}
		}
	}

	return record, nil
}

// get performs a single GET and returns the response body, converting
// transport and HTTP failures into classified APIErrors. There is no
// retry here: recovery happens at a coarser granularity (group to
// per-code fallback) in the fetcher.
func (c *Client) get(ctx context.Context, endpoint string, code int, rawURL string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		sgsRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := classify(0, err)
		sgsErrorsTotal.WithLabelValues(string(class)).Inc()
		sgsRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()

		c.logger.Error().Err(err).
			Str("endpoint", endpoint).
			Int("code", code).
			Msg("HTTP request failed")

		return nil, &APIError{
			Code:       code,
			ErrorClass: class,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	sgsRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := classify(resp.StatusCode, nil)
		sgsErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("code", code).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("SGS request error")

		apiErr := &APIError{
			Code:       code,
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
		if resp.StatusCode == http.StatusNotFound {
			apiErr.Err = ErrSeriesNotFound
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		sgsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &APIError{
			Code:       code,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	return body, nil
}
