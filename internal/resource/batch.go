// Package resource downloads independent byte resources concurrently.
package resource

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"pricewatch/internal/fetcher"
)

// Item is one resource to download. Keys must be unique within a batch.
type Item struct {
	Key string
	URL string
}

// BatchFetcher downloads a set of resources with one goroutine per item and
// joins them into a single key -> bytes mapping
type BatchFetcher struct {
	getter fetcher.Getter
	logger *slog.Logger
}

// NewBatchFetcher creates a BatchFetcher using the given transport
func NewBatchFetcher(getter fetcher.Getter, logger *slog.Logger) *BatchFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchFetcher{
		getter: getter,
		logger: logger,
	}
}

// FetchBatch downloads every item concurrently and returns the bodies of the
// ones that succeeded. It returns only after every download has finished.
// Failed items, including ones whose download panicked, are logged and left
// out of the result. The returned map is never nil.
func (b *BatchFetcher) FetchBatch(ctx context.Context, items []Item) map[string][]byte {
	resultChan := make(chan fetcher.Result, len(items))

	var wg conc.WaitGroup
	for _, item := range items {
		wg.Go(func() {
			resultChan <- b.fetchOne(ctx, item)
		})
	}

	wg.Wait()
	close(resultChan)

	results := make(map[string][]byte, len(items))
	for result := range resultChan {
		if result.Error != nil {
			b.logger.Warn("failed to download resource",
				"key", result.Key,
				"url", result.URL,
				"error", result.Error)
			continue
		}
		results[result.Key] = result.Data
	}

	b.logger.Debug("resource batch completed",
		"requested", len(items),
		"succeeded", len(results))

	return results
}

// fetchOne runs a single download, converting a panic into an ordinary failure
func (b *BatchFetcher) fetchOne(ctx context.Context, item Item) fetcher.Result {
	var (
		data []byte
		err  error
		pc   panics.Catcher
	)

	pc.Try(func() {
		data, err = b.getter.Get(ctx, item.URL, nil)
	})
	if r := pc.Recovered(); r != nil {
		err = r.AsError()
	}

	return fetcher.Result{
		Key:   item.Key,
		URL:   item.URL,
		Data:  data,
		Error: err,
	}
}
