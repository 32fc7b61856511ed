package crawler

import (
	"context"

	"fashionetl/internal/logger"
)

// PageCache stores page bytes by URL.
type PageCache interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, page []byte) error
}

// CachingFetcher serves pages from a cache and fills it on successful fetches.
// Cache errors are logged and never fail a fetch; failures are never cached.
type CachingFetcher struct {
	next  Fetcher
	cache PageCache
	log   *logger.Logger
}

func NewCachingFetcher(next Fetcher, cache PageCache, log *logger.Logger) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache, log: log}
}

func (f *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	page, ok, err := f.cache.Get(ctx, url)
	if err != nil {
		f.log.Warn("page cache read failed", "url", url, "error", err)
	} else if ok {
		f.log.Debug("page cache hit", "url", url)
		return page, nil
	}

	page, err = f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, url, page); err != nil {
		f.log.Warn("page cache write failed", "url", url, "error", err)
	}
	return page, nil
}
