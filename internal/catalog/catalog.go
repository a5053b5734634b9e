// Package catalog holds the fixed table of currencies the monitor quotes,
// each paired with the country whose flag is shown next to it.
package catalog

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultFlagBaseURL is where the 4x3 SVG country flags are downloaded from
const DefaultFlagBaseURL = "https://raw.githubusercontent.com/lipis/flag-icons/refs/heads/main/flags/4x3"

// CountryEntry is one row of the catalog
type CountryEntry struct {
	Currency    string // 3-letter lowercase currency code, e.g. "usd"
	DisplayName string
	ResourceKey string // 2-letter country code, the key of the flag resource
	ResourceURL string
}

// Catalog is the immutable, ordered list of entries. It is built once at
// startup and shared read-only by every refresh cycle.
type Catalog []CountryEntry

type country struct {
	currency string
	name     string
}

var countries = []country{
	{"aed", "United Arab Emirates"},
	{"ars", "Argentina"},
	{"aud", "Australia"},
	{"bdt", "Bangladesh"},
	{"bhd", "Bahrain"},
	{"bmd", "Bermuda"},
	{"brl", "Brazil"},
	{"cad", "Canada"},
	{"chf", "Switzerland"},
	{"clp", "Chile"},
	{"cny", "China"},
	{"czk", "Czech Republic"},
	{"dkk", "Denmark"},
	{"gbp", "United Kingdom"},
	{"gel", "Georgia"},
	{"hkd", "China Hong Kong"},
	{"huf", "Hungary"},
	{"idr", "Indonesia"},
	{"ils", "Israel"},
	{"inr", "India"},
	{"jpy", "Japan"},
	{"krw", "South Korea"},
	{"kwd", "Kuwait"},
	{"lkr", "Sri Lanka"},
	{"mmk", "Myanmar"},
	{"mxn", "Mexico"},
	{"myr", "Malaysia"},
	{"ngn", "Nigeria"},
	{"nok", "Norway"},
	{"nzd", "New Zealand"},
	{"php", "Philippines"},
	{"pkr", "Pakistan"},
	{"pln", "Poland"},
	{"rub", "Russia"},
	{"sar", "Saudi Arabia"},
	{"sek", "Sweden"},
	{"sgd", "Singapore"},
	{"thb", "Thailand"},
	{"try", "Turkey"},
	{"twd", "China Taiwan"},
	{"uah", "Ukraine"},
	{"usd", "United States"},
	{"vef", "Venezuela"},
	{"vnd", "Vietnam"},
	{"zar", "South Africa"},
}

// New builds the catalog, deriving each flag URL from flagBaseURL.
// An empty flagBaseURL selects DefaultFlagBaseURL.
func New(flagBaseURL string) Catalog {
	if flagBaseURL == "" {
		flagBaseURL = DefaultFlagBaseURL
	}
	flagBaseURL = strings.TrimRight(flagBaseURL, "/")

	return lo.Map(countries, func(c country, _ int) CountryEntry {
		key := c.currency[:2]
		return CountryEntry{
			Currency:    c.currency,
			DisplayName: c.name,
			ResourceKey: key,
			ResourceURL: flagBaseURL + "/" + key + ".svg",
		}
	})
}

// Currencies returns the currency codes in catalog order, followed by any
// of the extra codes not already present
func (c Catalog) Currencies(extra ...string) []string {
	codes := lo.Map(c, func(e CountryEntry, _ int) string {
		return e.Currency
	})
	return lo.Uniq(append(codes, extra...))
}
