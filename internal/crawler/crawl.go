package crawler

import (
	"context"
	"time"

	"fashionetl/internal/logger"
	"fashionetl/internal/model"
	"fashionetl/internal/observability"
)

// Options drives one crawl.
type Options struct {
	BaseURL string
	Pages   int
	Delay   time.Duration
	Workers int
}

// Result is what a crawl aggregated. A fetch failure ends the crawl early but
// is not an error: Records holds every page before FailedPage.
type Result struct {
	Records      []model.RawRecord
	PagesFetched int
	EmptyPages   int
	FailedPage   int // 0 when no fetch failed
	FetchErr     error
}

// Crawler walks listing pages 1..Pages.
type Crawler struct {
	fetcher   Fetcher
	extractor *Extractor
	opts      Options
	log       *logger.Logger
	sleep     func(context.Context, time.Duration) error
}

func NewCrawler(fetcher Fetcher, extractor *Extractor, opts Options, log *logger.Logger) *Crawler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		opts:      opts,
		log:       log,
		sleep:     sleepContext,
	}
}

// Crawl fetches pages in order until one fails, the context is cancelled or
// the page count is exhausted.
func (c *Crawler) Crawl(ctx context.Context) Result {
	if c.opts.Workers > 1 {
		return c.crawlParallel(ctx)
	}
	return c.crawlSequential(ctx)
}

func (c *Crawler) crawlSequential(ctx context.Context) Result {
	var res Result

	for page := 1; page <= c.opts.Pages; page++ {
		if ctx.Err() != nil {
			c.log.Warn("crawl cancelled", "next_page", page, "error", ctx.Err())
			break
		}

		url := PageURL(c.opts.BaseURL, page)
		c.log.Info("processing page", "page", page, "url", url)

		body, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			c.fail(&res, page, err)
			break
		}

		res.Records = append(res.Records, c.processPage(&res, page, body)...)

		if err := c.sleep(ctx, c.opts.Delay); err != nil {
			c.log.Warn("crawl cancelled during delay", "page", page, "error", err)
			break
		}
	}

	c.log.Info("crawl finished", "records", len(res.Records), "pages_fetched", res.PagesFetched, "empty_pages", res.EmptyPages)
	return res
}

func (c *Crawler) fail(res *Result, page int, err error) {
	c.log.Warn("failed to retrieve page, stopping crawl", "page", page, "error", err)
	observability.PagesFailed.Inc()
	res.FailedPage = page
	res.FetchErr = err
}

// processPage extracts one fetched page. Parse problems and empty pages are
// logged and yield no records; the crawl goes on.
func (c *Crawler) processPage(res *Result, page int, body []byte) []model.RawRecord {
	res.PagesFetched++
	observability.PagesFetched.Inc()

	records, err := c.extractor.ExtractPage(body)
	if err != nil {
		c.log.Error("failed to parse page", "page", page, "error", err)
		return nil
	}
	if len(records) == 0 {
		c.log.Info("no products found", "page", page)
		res.EmptyPages++
		observability.PagesEmpty.Inc()
	}
	return records
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
