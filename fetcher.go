package hal

import "context"

// Download is the raw response to a plain HTTP fetch.
type Download struct {
	URL         string
	FinalURL    string
	ContentType string
	Body        []byte
}

// Fetcher retrieves documents that need no rendering, such as filing
// documents. Every hop of a redirect chain is validated before it is
// followed.
type Fetcher interface {
	// Fetch downloads the URL.
	// Returns EBLOCKED when the target or any redirect hop is refused and
	// ENOTFOUND when the server answers 404.
	Fetch(ctx context.Context, url string) (*Download, error)
}
