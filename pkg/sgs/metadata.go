package sgs

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Header labels of the series-search results table, per locale. The
// page localizes column names, so both variants are matched.
var headerFields = map[string]string{
	"name":          "title",
	"nome completo": "title",
	"full name":     "title",
	"unit":          "unit",
	"unidade":       "unit",
	"periodicity":   "frequency",
	"periodicidade": "frequency",
	"source":        "source",
	"fonte":         "source",
	"code":          "code",
	"código":        "code",
	"codigo":        "code",
}

// parseMetadataPage extracts the metadata record for one series code
// from the search-results HTML. The page lists matches in a table; the
// row whose code column equals the requested code wins.
func parseMetadataPage(html []byte, code int) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Metadata{}, &APIError{
			Code:       code,
			ErrorClass: ErrorClassServer,
			Message:    "malformed metadata page",
			Err:        err,
		}
	}

	table := doc.Find("table#tabelaSeries").First()
	if table.Length() == 0 {
		return Metadata{}, &APIError{
			Code:       code,
			ErrorClass: ErrorClassServer,
			Message:    "metadata table missing",
			Err:        ErrNoMetadata,
		}
	}

	// Map column index -> normalized field name from the header row.
	columns := make(map[int]string)
	table.Find("th").Each(func(i int, s *goquery.Selection) {
		label := strings.ToLower(normSpace(s.Text()))
		if field, ok := headerFields[label]; ok {
			columns[i] = field
		}
	})

	record := Metadata{Code: code}
	found := false

	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return true
		}

		fields := make(map[string]string)
		cells.Each(func(i int, cell *goquery.Selection) {
			if field, ok := columns[i]; ok {
				fields[field] = normSpace(cell.Text())
			}
		})

		rowCode, err := strconv.Atoi(fields["code"])
		if err != nil || rowCode != code {
			return true
		}

		record.Title = fields["title"]
		record.Unit = fields["unit"]
		record.Frequency = fields["frequency"]
		record.Source = fields["source"]
		found = true
		return false
	})

	if !found {
		return Metadata{}, &APIError{
			Code:       code,
			ErrorClass: ErrorClassClient,
			Message:    "series not in metadata table",
			Err:        ErrNoMetadata,
		}
	}

	return record, nil
}

// normSpace collapses runs of whitespace into single spaces.
func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
