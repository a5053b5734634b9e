// Package view turns coordinator snapshots into display text. It is shared by
// the dashboard and the headless printer.
package view

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"pricewatch/internal/coordinator"
)

// DefaultFlag is shown for countries whose flag was not downloaded
var DefaultFlag = []byte(`<svg width="40" height="30" xmlns="http://www.w3.org/2000/svg"><rect width="100%" height="100%" fill="gray"/></svg>`)

// FlagFor returns the downloaded flag for key, or DefaultFlag
func FlagFor(resources map[string][]byte, key string) []byte {
	if data, ok := resources[key]; ok && len(data) > 0 {
		return data
	}
	return DefaultFlag
}

// FormatPrice renders a price with two decimals. Zero means unknown.
func FormatPrice(price float64) string {
	if price == 0 {
		return "n/a"
	}
	return decimal.NewFromFloat(price).StringFixed(2)
}

// Row is one line of the currency table. Flag is never empty; HasFlag
// reports whether it is the downloaded image rather than the placeholder.
type Row struct {
	Currency string
	Country  string
	Price    string
	Flag     []byte
	HasFlag  bool
}

// Rows projects the quotes of a state in catalog order
func Rows(state coordinator.ViewState) []Row {
	return lo.Map(state.Quotes, func(q coordinator.Quote, _ int) Row {
		flag := FlagFor(state.Resources, q.Entry.ResourceKey)
		return Row{
			Currency: strings.ToUpper(q.Entry.Currency),
			Country:  q.Entry.DisplayName,
			Price:    FormatPrice(q.Price),
			Flag:     flag,
			HasFlag:  !bytes.Equal(flag, DefaultFlag),
		}
	})
}

// Headline is the reference price line
func Headline(state coordinator.ViewState) string {
	if state.PriceUSD == 0 {
		if state.Status == coordinator.StatusLoading {
			return "Loading..."
		}
		return "USD: n/a"
	}
	return "USD: $" + FormatPrice(state.PriceUSD)
}

// StatusLine describes the current cycle
func StatusLine(state coordinator.ViewState) string {
	switch state.Status {
	case coordinator.StatusLoading:
		return "Loading prices..."
	case coordinator.StatusError:
		return "Error: " + state.Message
	default:
		flags := lo.CountBy(Rows(state), func(r Row) bool { return r.HasFlag })
		line := fmt.Sprintf("%d currencies, %d flags", len(state.Quotes), flags)
		if !state.UpdatedAt.IsZero() {
			line += ", updated " + state.UpdatedAt.Format("15:04:05")
		}
		return line
	}
}

// Print writes a settled state as "CODE: value" lines
func Print(w io.Writer, state coordinator.ViewState) error {
	var b strings.Builder

	fmt.Fprintf(&b, "cycle %d: %s\n", state.Cycle, state.Status)
	if state.Status == coordinator.StatusError {
		fmt.Fprintf(&b, "ERROR - %s\n", state.Message)
	}
	fmt.Fprintf(&b, "%s\n", Headline(state))
	for _, row := range Rows(state) {
		fmt.Fprintf(&b, "%s: %s\n", row.Currency, row.Price)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
