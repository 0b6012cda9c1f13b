package search

import (
	"testing"

	"github.com/JonMunkholm/csvmaps/internal/csvdata"
)

func TestSuggestColumn(t *testing.T) {
	header := csvdata.Row{"County", "State", "Broadband Pct"}

	tests := []struct {
		name string
		want string
	}{
		{"Countie", "County"},
		{"STAT", "State"},
		{"broadband_pct", "Broadband Pct"},
		{"population", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestColumn(header, tt.name); got != tt.want {
				t.Errorf("SuggestColumn(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSuggestColumn_EmptyHeader(t *testing.T) {
	if got := SuggestColumn(nil, "x"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
