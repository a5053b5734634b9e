package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"pricewatch/internal/fetcher"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 API
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultAsset is the CoinGecko id of the monitored asset
	DefaultAsset = "bitcoin"
	// ReferenceCurrency is always requested; its quote is the reference price
	ReferenceCurrency = "usd"
)

// SimplePriceResponse represents the CoinGecko /simple/price response:
// asset id -> currency code -> price
type SimplePriceResponse map[string]map[string]float64

// PriceSource fetches the price of one asset in many currencies with a single request
type PriceSource struct {
	getter  fetcher.Getter
	baseURL string
	asset   string
}

// NewPriceSource creates a new price source
func NewPriceSource(getter fetcher.Getter, baseURL, asset string) *PriceSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if asset == "" {
		asset = DefaultAsset
	}

	return &PriceSource{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		asset:   asset,
	}
}

// Fetch requests the asset price in every given currency, plus the reference
// currency. It returns the reference price and the full currency -> price
// mapping from the response. A missing or zero reference price is an
// invalid response, not a legitimate price.
func (s *PriceSource) Fetch(ctx context.Context, currencies []string) (float64, map[string]float64, error) {
	body, err := s.getter.Get(ctx, s.baseURL+"/simple/price", s.query(currencies))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch %s price: %w", s.asset, err)
	}

	var result SimplePriceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, nil, fmt.Errorf("failed to decode %s price: %w", s.asset, fetcher.NewParseError(err))
	}

	quotes, ok := result[s.asset]
	if !ok || quotes == nil {
		return 0, nil, fmt.Errorf("failed to decode %s price: %w", s.asset,
			fetcher.NewParseError(fmt.Errorf("asset %q not found in response", s.asset)))
	}

	reference := quotes[ReferenceCurrency]
	if reference == 0 {
		return 0, nil, fetcher.NewInvalidResponseError(
			fmt.Sprintf("%s price not found in response for %s", ReferenceCurrency, s.asset))
	}

	return reference, quotes, nil
}

// query builds the /simple/price parameters for the lowercased,
// de-duplicated currency list with the reference currency appended
func (s *PriceSource) query(currencies []string) map[string]string {
	codes := lo.Uniq(append(
		lo.Map(currencies, func(c string, _ int) string { return strings.ToLower(c) }),
		ReferenceCurrency,
	))

	return map[string]string{
		"ids":           s.asset,
		"vs_currencies": strings.Join(codes, ","),
	}
}
