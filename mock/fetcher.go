// Package mock provides function-field mocks of the weft service
// interfaces for tests.
package mock

import (
	"context"

	"github.com/weftlabs/weft"
)

var _ weft.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of weft.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*weft.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*weft.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ weft.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy is a mock implementation of weft.RobotsPolicy.
type RobotsPolicy struct {
	CanFetchFn func(ctx context.Context, url string, userAgent string) (bool, error)
}

func (p *RobotsPolicy) CanFetch(ctx context.Context, url string, userAgent string) (bool, error) {
	return p.CanFetchFn(ctx, url, userAgent)
}

var _ weft.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of weft.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL)
}
