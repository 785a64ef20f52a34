package sgs

import (
	"testing"
	"time"
)

func TestParseObservations(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      []Observation
		expectErr bool
	}{
		{
			name: "valid payload",
			body: `[{"data":"02/01/2018","valor":"3.2"},{"data":"03/01/2018","valor":"3.25"}]`,
			want: []Observation{
				{Date: time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC), Value: 3.2},
				{Date: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC), Value: 3.25},
			},
		},
		{
			name: "empty array",
			body: `[]`,
			want: []Observation{},
		},
		{
			name: "empty values dropped",
			body: `[{"data":"02/01/2018","valor":""},{"data":"03/01/2018","valor":"1.5"}]`,
			want: []Observation{
				{Date: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC), Value: 1.5},
			},
		},
		{
			name:      "not json",
			body:      `<html>error page</html>`,
			expectErr: true,
		},
		{
			name:      "bad date",
			body:      `[{"data":"2018-01-02","valor":"3.2"}]`,
			expectErr: true,
		},
		{
			name:      "bad value",
			body:      `[{"data":"02/01/2018","valor":"n/a"}]`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := parseObservations([]byte(tt.body))

			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if len(obs) != len(tt.want) {
				t.Fatalf("Observations = %d, want %d", len(obs), len(tt.want))
			}
			for i := range obs {
				if !obs[i].Date.Equal(tt.want[i].Date) {
					t.Errorf("Date[%d] = %v, want %v", i, obs[i].Date, tt.want[i].Date)
				}
				if obs[i].Value != tt.want[i].Value {
					t.Errorf("Value[%d] = %v, want %v", i, obs[i].Value, tt.want[i].Value)
				}
			}
		})
	}
}
