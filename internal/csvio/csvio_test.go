package csvio

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/brdatalab/sgsfetch/pkg/fetcher"
	"github.com/brdatalab/sgsfetch/pkg/sgs"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCodes(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		want      []int
		expectErr bool
	}{
		{
			name:    "simple list",
			content: "code\n433\n1\n4189\n",
			want:    []int{433, 1, 4189},
		},
		{
			name:    "extra columns ignored",
			content: "name,code\nipca,433\nselic,4189\n",
			want:    []int{433, 4189},
		},
		{
			name:    "duplicates kept in order",
			content: "code\n7\n7\n3\n",
			want:    []int{7, 7, 3},
		},
		{
			name:      "missing code column",
			content:   "id\n433\n",
			expectErr: true,
		},
		{
			name:      "non-numeric code",
			content:   "code\nabc\n",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, "codes.csv", tt.content)

			codes, err := ReadCodes(path)
			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadCodes failed: %v", err)
			}
			if !reflect.DeepEqual(codes, tt.want) {
				t.Errorf("Codes = %v, want %v", codes, tt.want)
			}
		})
	}
}

func TestReadCodes_MissingFile(t *testing.T) {
	_, err := ReadCodes(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestWriteMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.csv")

	records := []fetcher.Record{
		{Code: 433, Title: "IPCA", Unit: "Monthly % var.", Source: "IBGE"},
		{Code: 4189, Title: "Selic", Unit: "% p.y.", Source: "BCB"},
	}
	if err := WriteMetadata(path, records); err != nil {
		t.Fatalf("WriteMetadata failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if len(lines) != 3 {
		t.Fatalf("Lines = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "code,title,unit,source" {
		t.Errorf("Header = %q, want code,title,unit,source", lines[0])
	}
	if !strings.Contains(lines[1], "IPCA") {
		t.Errorf("First row = %q, missing IPCA", lines[1])
	}
	// No index column: the first field is the code itself.
	if !strings.HasPrefix(lines[1], "433,") {
		t.Errorf("First row = %q, should start with the code", lines[1])
	}
}

func TestWriteSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.csv")

	day1 := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC)
	series := map[int][]sgs.Observation{
		433: {{Date: day1, Value: 0.29}},
		1:   {{Date: day1, Value: 3.2}, {Date: day2, Value: 3.25}},
	}

	if err := WriteSeries(path, series); err != nil {
		t.Fatalf("WriteSeries failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if lines[0] != "date,1,433" {
		t.Errorf("Header = %q, want date,1,433 (codes sorted)", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("Lines = %d, want header + 2 date rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "2018-01-02,") {
		t.Errorf("First row = %q, want 2018-01-02 first", lines[1])
	}
	// Code 433 has no value on day 2: the cell stays empty.
	if !strings.HasPrefix(lines[2], "2018-01-03,3.25,") {
		t.Errorf("Second row = %q, want value for code 1 only", lines[2])
	}
}
