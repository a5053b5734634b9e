package fetcher

import "context"

// Getter is the transport capability shared by the price source and the
// resource batch fetcher: GET a URL and receive the body bytes, or a
// *FetchError describing why not.
type Getter interface {
	// Get issues a single GET request for url with query appended. A nil
	// error means a success status and a fully read body. query may be nil.
	Get(ctx context.Context, url string, query map[string]string) ([]byte, error)
}

// GetterFunc adapts an ordinary function to the Getter interface.
type GetterFunc func(ctx context.Context, url string, query map[string]string) ([]byte, error)

// Get implements Getter
func (f GetterFunc) Get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	return f(ctx, url, query)
}
