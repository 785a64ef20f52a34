// Package testutil provides testing utilities for the sgsfetch client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// MetadataPath is the path the mock serves series-search pages on.
const MetadataPath = "/localizarseries/localizarSeries.do"

// SeriesMeta is the canned metadata the mock renders into a search page.
type SeriesMeta struct {
	Code      int
	Title     string
	Unit      string
	Frequency string
	Source    string
}

// MockSGS is a configurable mock SGS server for testing. Observation
// endpoints are configured per code; metadata requests are dispatched
// on the codigo query parameter.
type MockSGS struct {
	server *httptest.Server
	mu     sync.RWMutex

	observations map[int]response
	metadata     map[string]response // key: "code:locale"

	// Tracking
	RequestCount        int
	ObservationRequests int
	MetadataRequests    int
}

type response struct {
	statusCode int
	body       string
}

// NewMockSGS creates a new mock SGS server.
func NewMockSGS() *MockSGS {
	mock := &MockSGS{
		observations: make(map[int]response),
		metadata:     make(map[string]response),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		if r.URL.Path == MetadataPath {
			mock.serveMetadata(w, r)
			return
		}
		mock.serveObservations(w, r)
	}))

	return mock
}

// URL returns the mock server URL, usable as the client base URL.
func (m *MockSGS) URL() string {
	return m.server.URL
}

// MetadataURL returns the mock's series-search page URL.
func (m *MockSGS) MetadataURL() string {
	return m.server.URL + MetadataPath
}

// Close shuts down the mock server.
func (m *MockSGS) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSGS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ObservationRequests = 0
	m.MetadataRequests = 0
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSGS) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// SetObservations configures a 200 observations response for a code.
func (m *MockSGS) SetObservations(code int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[code] = response{statusCode: http.StatusOK, body: body}
}

// SetObservationsError configures an error status for a code's
// observations endpoint.
func (m *MockSGS) SetObservationsError(code, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observations[code] = response{statusCode: statusCode, body: `{"error": "unavailable"}`}
}

// SetMetadata configures the search page served for a code and locale.
func (m *MockSGS) SetMetadata(locale string, meta SeriesMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d:%s", meta.Code, locale)
	m.metadata[key] = response{statusCode: http.StatusOK, body: MetadataHTML(locale, meta)}
}

// SetMetadataError configures an error status for a code's metadata
// in one locale.
func (m *MockSGS) SetMetadataError(code int, locale string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d:%s", code, locale)
	m.metadata[key] = response{statusCode: statusCode, body: "server error"}
}

// serveObservations handles /bcdata.sgs.{code}/dados requests.
// Unconfigured codes get 404, like the real API for unknown series.
func (m *MockSGS) serveObservations(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.ObservationRequests++
	m.mu.Unlock()

	code, ok := codeFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	resp, exists := m.observations[code]
	m.mu.RUnlock()

	if !exists {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.statusCode)
	fmt.Fprint(w, resp.body)
}

// serveMetadata handles series-search page requests.
func (m *MockSGS) serveMetadata(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.MetadataRequests++
	m.mu.Unlock()

	code := r.URL.Query().Get("codigo")
	locale := r.URL.Query().Get("language")

	m.mu.RLock()
	resp, exists := m.metadata[code+":"+locale]
	m.mu.RUnlock()

	if !exists {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(resp.statusCode)
	fmt.Fprint(w, resp.body)
}

// codeFromPath extracts the series code from a path like
// /bcdata.sgs.433/dados.
func codeFromPath(path string) (int, bool) {
	const prefix = "/bcdata.sgs."
	idx := strings.Index(path, prefix)
	if idx < 0 {
		return 0, false
	}
	rest := path[idx+len(prefix):]
	end := strings.Index(rest, "/")
	if end < 0 {
		end = len(rest)
	}
	code, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}

// ObservationsJSON renders observation pairs into the SGS wire format.
// Pairs are (date, value) with dates already in dd/MM/yyyy.
func ObservationsJSON(pairs ...[2]string) string {
	entries := make([]string, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, fmt.Sprintf(`{"data":"%s","valor":"%s"}`, p[0], p[1]))
	}
	return "[" + strings.Join(entries, ",") + "]"
}

// MetadataHTML renders a canned series-search results page with the
// localized header labels the parser matches on.
func MetadataHTML(locale string, meta SeriesMeta) string {
	headers := []string{"Code", "Name", "Unit", "Periodicity", "Source"}
	if locale == "pt" {
		headers = []string{"Código", "Nome completo", "Unidade", "Periodicidade", "Fonte"}
	}

	var b strings.Builder
	b.WriteString("<html><body><table id=\"tabelaSeries\"><tr>")
	for _, h := range headers {
		fmt.Fprintf(&b, "<th>%s</th>", h)
	}
	b.WriteString("</tr><tr>")
	for _, cell := range []string{
		strconv.Itoa(meta.Code), meta.Title, meta.Unit, meta.Frequency, meta.Source,
	} {
		fmt.Fprintf(&b, "<td>%s</td>", cell)
	}
	b.WriteString("</tr></table></body></html>")
	return b.String()
}
