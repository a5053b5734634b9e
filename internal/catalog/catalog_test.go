package catalog

import (
	"testing"
)

func TestNew(t *testing.T) {
	cat := New("")

	if len(cat) != 45 {
		t.Fatalf("New() returned %d entries, want 45", len(cat))
	}

	seen := make(map[string]bool)
	for _, e := range cat {
		if len(e.Currency) != 3 {
			t.Errorf("currency %q is not a 3-letter code", e.Currency)
		}
		if len(e.ResourceKey) != 2 {
			t.Errorf("resource key %q is not a 2-letter code", e.ResourceKey)
		}
		if seen[e.ResourceKey] {
			t.Errorf("duplicate resource key %q", e.ResourceKey)
		}
		seen[e.ResourceKey] = true
	}
}

func TestNew_Entry(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantURL string
	}{
		{"default base", "", DefaultFlagBaseURL + "/us.svg"},
		{"custom base", "http://localhost:9000/flags", "http://localhost:9000/flags/us.svg"},
		{"trailing slash", "http://localhost:9000/flags/", "http://localhost:9000/flags/us.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var usd CountryEntry
			for _, e := range New(tt.baseURL) {
				if e.Currency == "usd" {
					usd = e
				}
			}

			if usd.DisplayName != "United States" {
				t.Errorf("DisplayName = %q, want %q", usd.DisplayName, "United States")
			}
			if usd.ResourceKey != "us" {
				t.Errorf("ResourceKey = %q, want %q", usd.ResourceKey, "us")
			}
			if usd.ResourceURL != tt.wantURL {
				t.Errorf("ResourceURL = %q, want %q", usd.ResourceURL, tt.wantURL)
			}
		})
	}
}

func TestCurrencies(t *testing.T) {
	cat := New("")

	codes := cat.Currencies("usd")
	if len(codes) != len(cat) {
		t.Errorf("Currencies(usd) returned %d codes, want %d (usd is already in the catalog)", len(codes), len(cat))
	}
	if codes[0] != "aed" {
		t.Errorf("Currencies()[0] = %q, want catalog order starting with %q", codes[0], "aed")
	}

	codes = cat.Currencies("btc", "sats")
	if len(codes) != len(cat)+2 {
		t.Fatalf("Currencies(btc, sats) returned %d codes, want %d", len(codes), len(cat)+2)
	}
	if codes[len(codes)-2] != "btc" || codes[len(codes)-1] != "sats" {
		t.Errorf("extra codes not appended in order: %v", codes[len(codes)-2:])
	}
}
