package fetcher

import (
	"github.com/brdatalab/sgsfetch/pkg/sgs"
)

// Record is one flattened metadata row of the per-locale export table.
// Missing fields stay empty strings so every row has every column.
type Record struct {
	Code   int    `dataframe:"code"`
	Title  string `dataframe:"title"`
	Unit   string `dataframe:"unit"`
	Source string `dataframe:"source"`
}

// Report is the outcome of one fetch run.
//
// Succeeded and Failed partition the attempted input: their union is
// the attempted code list and their intersection is empty. A code can
// be in Succeeded yet have no metadata record.
type Report struct {
	// Series is the combined observation table keyed by code. A key
	// with an empty slice is a retrieved series with no observations
	// in the requested range.
	Series map[int][]sgs.Observation

	// Meta holds one export table per locale, in input order.
	Meta map[sgs.Locale][]Record

	// Succeeded lists codes whose observations were retrieved.
	Succeeded []int

	// Failed lists codes for which no observations could be retrieved.
	Failed []int
}

// MetadataCount returns the number of codes that have a metadata
// record in every requested locale.
func (r *Report) MetadataCount() int {
	count := 0
	seen := make(map[int]int)
	for _, records := range r.Meta {
		for _, record := range records {
			seen[record.Code]++
		}
	}
	for _, n := range seen {
		if n == len(r.Meta) {
			count++
		}
	}
	return count
}

// newRecord flattens a metadata response into an export row.
func newRecord(meta sgs.Metadata) Record {
	return Record{
		Code:   meta.Code,
		Title:  meta.Title,
		Unit:   meta.Unit,
		Source: meta.Source,
	}
}

// partition splits codes into consecutive groups of at most size,
// preserving input order.
func partition(codes []int, size int) [][]int {
	if size <= 0 {
		size = 1
	}
	groups := make([][]int, 0, (len(codes)+size-1)/size)
	for start := 0; start < len(codes); start += size {
		end := start + size
		if end > len(codes) {
			end = len(codes)
		}
		groups = append(groups, codes[start:end])
	}
	return groups
}
