// Package csvio reads the input code list and writes the export
// tables, using gota dataframes for the delimited plumbing.
package csvio

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/brdatalab/sgsfetch/pkg/fetcher"
	"github.com/brdatalab/sgsfetch/pkg/sgs"
)

// ReadCodes loads the series codes from a CSV file with a header row
// and a `code` column, preserving file order. Blank cells are skipped;
// duplicates are kept as-is.
func ReadCodes(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open codes file: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		return nil, fmt.Errorf("read codes file: %w", df.Err)
	}

	hasCode := false
	for _, name := range df.Names() {
		if name == "code" {
			hasCode = true
			break
		}
	}
	if !hasCode {
		return nil, fmt.Errorf("codes file %s: missing code column", path)
	}

	raw := df.Col("code").Records()
	codes := make([]int, 0, len(raw))
	for _, cell := range raw {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		code, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("codes file %s: bad code %q: %w", path, cell, err)
		}
		codes = append(codes, code)
	}

	return codes, nil
}

// WriteMetadata writes one per-locale metadata table as CSV with a
// header row and no index column.
func WriteMetadata(path string, records []fetcher.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	defer f.Close()

	df := dataframe.LoadStructs(records)
	if df.Err != nil {
		return fmt.Errorf("build metadata table: %w", df.Err)
	}

	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}

	return nil
}

// WriteSeries writes the combined observation table as a wide CSV: one
// date column plus one column per code, rows ordered by date, columns
// by code. Cells without an observation stay empty.
func WriteSeries(path string, observations map[int][]sgs.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create series file: %w", err)
	}
	defer f.Close()

	codes := make([]int, 0, len(observations))
	for code := range observations {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	// Union of observation dates across all series.
	dateSet := make(map[string]bool)
	byCodeDate := make(map[int]map[string]string, len(observations))
	for _, code := range codes {
		cells := make(map[string]string, len(observations[code]))
		for _, obs := range observations[code] {
			date := obs.Date.Format("2006-01-02")
			dateSet[date] = true
			cells[date] = strconv.FormatFloat(obs.Value, 'f', -1, 64)
		}
		byCodeDate[code] = cells
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	header := make([]string, 0, len(codes)+1)
	header = append(header, "date")
	for _, code := range codes {
		header = append(header, strconv.Itoa(code))
	}

	rows := make([][]string, 0, len(dates)+1)
	rows = append(rows, header)
	for _, date := range dates {
		row := make([]string, 0, len(header))
		row = append(row, date)
		for _, code := range codes {
			row = append(row, byCodeDate[code][date])
		}
		rows = append(rows, row)
	}

	df := dataframe.LoadRecords(rows,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("build series table: %w", df.Err)
	}

	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("write series file: %w", err)
	}

	return nil
}
