package fetcher

// Result represents the outcome of a single download.
// It's designed to be sent through channels from worker goroutines
// to the goroutine that joins the batch.
type Result struct {
	// Key identifies the resource within its batch
	Key string

	// URL is where the resource was requested from
	URL string

	// Data is the downloaded body
	Data []byte

	// Error contains any error that occurred during the download.
	// If Error is not nil, Data should be considered invalid.
	Error error
}
