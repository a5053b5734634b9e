package testutil

import (
	"context"
	"sync"

	"pricewatch/internal/resource"
)

// MockGetter is a mock implementation of the fetcher.Getter interface for testing
type MockGetter struct {
	GetFunc func(ctx context.Context, url string, query map[string]string) ([]byte, error)

	mu    sync.Mutex
	calls []string
}

// Get implements the fetcher.Getter interface
func (m *MockGetter) Get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, url, query)
	}
	return nil, nil
}

// Calls returns the URLs requested so far, in arrival order
func (m *MockGetter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// NewMockGetter creates a getter that answers from a fixed url -> body table.
// URLs present in errs fail with the mapped error; unknown URLs return nil, nil.
func NewMockGetter(bodies map[string][]byte, errs map[string]error) *MockGetter {
	return &MockGetter{
		GetFunc: func(ctx context.Context, url string, query map[string]string) ([]byte, error) {
			if err, ok := errs[url]; ok {
				return nil, err
			}
			return bodies[url], nil
		},
	}
}

// MockPriceSource is a mock implementation of coordinator.PriceSource
type MockPriceSource struct {
	FetchFunc func(ctx context.Context, currencies []string) (float64, map[string]float64, error)
}

// Fetch implements coordinator.PriceSource
func (m *MockPriceSource) Fetch(ctx context.Context, currencies []string) (float64, map[string]float64, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, currencies)
	}
	return 0, nil, nil
}

// NewMockPriceSource creates a price source that always returns the given values
func NewMockPriceSource(usd float64, quotes map[string]float64, err error) *MockPriceSource {
	return &MockPriceSource{
		FetchFunc: func(ctx context.Context, currencies []string) (float64, map[string]float64, error) {
			return usd, quotes, err
		},
	}
}

// MockBatchFetcher is a mock implementation of coordinator.ResourceFetcher
type MockBatchFetcher struct {
	FetchBatchFunc func(ctx context.Context, items []resource.Item) map[string][]byte
}

// FetchBatch implements coordinator.ResourceFetcher
func (m *MockBatchFetcher) FetchBatch(ctx context.Context, items []resource.Item) map[string][]byte {
	if m.FetchBatchFunc != nil {
		return m.FetchBatchFunc(ctx, items)
	}
	return map[string][]byte{}
}

// NewMockBatchFetcher creates a batch fetcher that always returns a copy of result
func NewMockBatchFetcher(result map[string][]byte) *MockBatchFetcher {
	return &MockBatchFetcher{
		FetchBatchFunc: func(ctx context.Context, items []resource.Item) map[string][]byte {
			out := make(map[string][]byte, len(result))
			for k, v := range result {
				out[k] = v
			}
			return out
		},
	}
}
