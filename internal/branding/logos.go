// Package branding fetches the frontend's logo assets so rendered documents
// carry the same artwork the portal shows. Everything here is best-effort:
// a missing or broken logo never blocks a delivery.
package branding

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	logoDarkPath  = "/assets/logo-dark.png"
	logoLightPath = "/assets/logo-light.png"

	// Logos are small; anything bigger than this is not a logo.
	maxLogoBytes = 2 << 20
)

// Fetcher retrieves the dark/light logo pair from a frontend origin.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a logo fetcher with a short per-request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchPair downloads both logos concurrently. Failures of any kind resolve
// to a nil slice for that logo; FetchPair itself never fails.
func (f *Fetcher) FetchPair(ctx context.Context, origin string) (dark, light []byte) {
	if origin == "" {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dark = f.fetch(gctx, origin+logoDarkPath)
		return nil
	})
	g.Go(func() error {
		light = f.fetch(gctx, origin+logoLightPath)
		return nil
	})
	_ = g.Wait()
	return dark, light
}

func (f *Fetcher) fetch(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}
