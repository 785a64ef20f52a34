// Package sgs provides the Banco Central do Brasil SGS API client with
// bilingual metadata retrieval, caching, and error classification.
package sgs

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format used by SGS for dates (dd/MM/yyyy),
// both in query parameters and in observation payloads.
const DateLayout = "02/01/2006"

// Locale selects the language of descriptive metadata.
type Locale string

const (
	// LocaleEN selects English metadata.
	LocaleEN Locale = "en"

	// LocalePT selects Portuguese metadata.
	LocalePT Locale = "pt"
)

// Locales lists the metadata languages served by SGS.
var Locales = []Locale{LocaleEN, LocalePT}

// Observation is a single dated value of a time series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Metadata describes one series in one locale. Missing fields are
// empty strings, never absent.
type Metadata struct {
	Code      int
	Title     string
	Unit      string
	Frequency string
	Source    string
}

// observationPayload mirrors the SGS JSON wire format:
// [{"data":"02/01/2018","valor":"3.2"}, ...]. Values arrive as strings
// and may be empty for days without a quote.
type observationPayload struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

// parseObservations decodes an SGS observations body. Entries with an
// empty value are dropped rather than reported as zero.
func parseObservations(body []byte) ([]Observation, error) {
	var payload []observationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	obs := make([]Observation, 0, len(payload))
	for _, p := range payload {
		raw := strings.TrimSpace(p.Value)
		if raw == "" {
			continue
		}

		date, err := time.Parse(DateLayout, strings.TrimSpace(p.Date))
		if err != nil {
			return nil, err
		}

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}

		obs = append(obs, Observation{Date: date, Value: value})
	}

	return obs, nil
}
