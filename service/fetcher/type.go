package fetcher

import "context"

// IService downloads the bytes behind a URL. Non-2xx answers and transport
// failures come back as *model.FetchError.
type IService interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
