package crawler

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type pageSlot struct {
	body    []byte
	err     error
	fetched bool
}

// crawlParallel issues page fetches in index order, at most Workers in flight
// and one new fetch per Delay. Once a failure is seen at page N no page above
// N is issued; in-flight lower pages complete. Pages are then processed in
// order up to the lowest failed index.
func (c *Crawler) crawlParallel(ctx context.Context) Result {
	slots := make([]pageSlot, c.opts.Pages+1)

	var failedAt atomic.Int64
	failedAt.Store(math.MaxInt64)

	limiter := rate.NewLimiter(rate.Every(c.opts.Delay), 1)

	g := new(errgroup.Group)
	g.SetLimit(c.opts.Workers)

	for page := 1; page <= c.opts.Pages; page++ {
		if int64(page) > failedAt.Load() {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			c.log.Warn("crawl cancelled", "next_page", page, "error", err)
			break
		}

		g.Go(func() error {
			if int64(page) > failedAt.Load() {
				return nil
			}

			url := PageURL(c.opts.BaseURL, page)
			c.log.Info("processing page", "page", page, "url", url)

			body, err := c.fetcher.Fetch(ctx, url)
			slots[page] = pageSlot{body: body, err: err, fetched: true}
			if err != nil {
				lowerMin(&failedAt, int64(page))
			}
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for page := 1; page <= c.opts.Pages; page++ {
		slot := slots[page]
		if !slot.fetched {
			break
		}
		if slot.err != nil {
			c.fail(&res, page, slot.err)
			break
		}
		res.Records = append(res.Records, c.processPage(&res, page, slot.body)...)
	}

	c.log.Info("crawl finished", "records", len(res.Records), "pages_fetched", res.PagesFetched, "empty_pages", res.EmptyPages, "workers", c.opts.Workers)
	return res
}

func lowerMin(v *atomic.Int64, n int64) {
	for {
		cur := v.Load()
		if n >= cur || v.CompareAndSwap(cur, n) {
			return
		}
	}
}
