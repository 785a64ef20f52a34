package sgs

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/brdatalab/sgsfetch/internal/testutil"
)

func testDates(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start, err := time.Parse(DateLayout, "02/01/2018")
	if err != nil {
		t.Fatal(err)
	}
	end, err := time.Parse(DateLayout, "31/12/2018")
	if err != nil {
		t.Fatal(err)
	}
	return start, end
}

func newTestClient(t *testing.T, mock *testutil.MockSGS) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:     mock.URL(),
		MetadataURL: mock.MetadataURL(),
		UserAgent:   "sgsfetch-test/0.0.0",
		Timeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:   "valid config",
			config: Config{UserAgent: "TestApp/1.0.0"},
		},
		{
			name:        "empty user agent",
			config:      Config{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Client is nil")
			}
			if client.baseURL != DefaultBaseURL {
				t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
			}
			if client.metadataURL != DefaultMetadataURL {
				t.Errorf("metadataURL = %q, want %q", client.metadataURL, DefaultMetadataURL)
			}
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetObservations(433, testutil.ObservationsJSON(
		[2]string{"02/01/2018", "0.29"},
		[2]string{"01/02/2018", "0.32"},
	))

	client := newTestClient(t, mock)
	start, end := testDates(t)

	obs, err := client.Fetch(context.Background(), 433, start, end)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("Observations = %d, want 2", len(obs))
	}
	if obs[0].Value != 0.29 {
		t.Errorf("First value = %v, want 0.29", obs[0].Value)
	}
}

func TestClient_Fetch_EmptySeries(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetObservations(7, "[]")

	client := newTestClient(t, mock)
	start, end := testDates(t)

	obs, err := client.Fetch(context.Background(), 7, start, end)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("Observations = %d, want 0 (degenerate success)", len(obs))
	}
}

func TestClient_Fetch_NotFound(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	client := newTestClient(t, mock)
	start, end := testDates(t)

	_, err := client.Fetch(context.Background(), 99999, start, end)
	if err == nil {
		t.Fatal("Expected error for unknown series")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, ErrorClassClient)
	}
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Error("Expected ErrSeriesNotFound in chain")
	}
}

func TestClient_Fetch_ServerError(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetObservationsError(433, http.StatusInternalServerError)

	client := newTestClient(t, mock)
	start, end := testDates(t)

	_, err := client.Fetch(context.Background(), 433, start, end)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %v", err)
	}
	if apiErr.ErrorClass != ErrorClassServer {
		t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, ErrorClassServer)
	}
}

func TestClient_FetchMany(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetObservations(1, testutil.ObservationsJSON([2]string{"02/01/2018", "1.0"}))
	mock.SetObservations(2, testutil.ObservationsJSON([2]string{"02/01/2018", "2.0"}))

	client := newTestClient(t, mock)
	start, end := testDates(t)

	series, err := client.FetchMany(context.Background(), []int{1, 2}, start, end)
	if err != nil {
		t.Fatalf("FetchMany failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("Series = %d, want 2", len(series))
	}
	if series[2][0].Value != 2.0 {
		t.Errorf("Series 2 value = %v, want 2.0", series[2][0].Value)
	}
}

func TestClient_FetchMany_FailsAsWhole(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetObservations(1, testutil.ObservationsJSON([2]string{"02/01/2018", "1.0"}))
	// Code 2 is not configured: 404.

	client := newTestClient(t, mock)
	start, end := testDates(t)

	_, err := client.FetchMany(context.Background(), []int{1, 2}, start, end)
	if err == nil {
		t.Fatal("Expected batch to fail when one code fails")
	}
}

func TestClient_Metadata(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetMetadata("en", testutil.SeriesMeta{
		Code: 433, Title: "IPCA", Unit: "Monthly % var.", Frequency: "M", Source: "IBGE",
	})
	mock.SetMetadata("pt", testutil.SeriesMeta{
		Code: 433, Title: "IPCA amplo", Unit: "Var. % mensal", Frequency: "M", Source: "IBGE",
	})

	client := newTestClient(t, mock)

	for _, tt := range []struct {
		locale Locale
		title  string
	}{
		{LocaleEN, "IPCA"},
		{LocalePT, "IPCA amplo"},
	} {
		records, err := client.Metadata(context.Background(), []int{433}, tt.locale)
		if err != nil {
			t.Fatalf("Metadata(%s) failed: %v", tt.locale, err)
		}
		if len(records) != 1 {
			t.Fatalf("Records = %d, want 1", len(records))
		}
		if records[0].Title != tt.title {
			t.Errorf("Title = %q, want %q", records[0].Title, tt.title)
		}
	}
}

func TestClient_Metadata_FailsAsWhole(t *testing.T) {
	mock := testutil.NewMockSGS()
	defer mock.Close()

	mock.SetMetadata("en", testutil.SeriesMeta{Code: 1, Title: "A"})
	// Code 2 has no metadata page: 404.

	client := newTestClient(t, mock)

	_, err := client.Metadata(context.Background(), []int{1, 2}, LocaleEN)
	if err == nil {
		t.Fatal("Expected bulk metadata to fail when one code fails")
	}
}
