// Package etl wires one scrape-normalize-load run together from configuration.
package etl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fashionetl/internal/config"
	"fashionetl/internal/crawler"
	"fashionetl/internal/loader"
	"fashionetl/internal/logger"
	"fashionetl/internal/model"
	"fashionetl/internal/normalizer"
)

// Summary describes what one run did.
type Summary struct {
	RunID        uuid.UUID
	PagesFetched int
	EmptyPages   int
	FailedPage   int
	Raw          int
	Normalized   int
	Dropped      map[string]int
	Sinks        []string
}

type Pipeline struct {
	cfg   *config.Config
	log   *logger.Logger
	runID uuid.UUID
}

func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	runID := uuid.New()
	return &Pipeline{
		cfg:   cfg,
		log:   log.With("run_id", runID.String()),
		runID: runID,
	}
}

func (p *Pipeline) RunID() uuid.UUID { return p.runID }

// Run crawls, normalizes and loads. When the crawl yields no raw records
// nothing is normalized or written.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	res, err := p.Crawl(ctx)
	if err != nil {
		return p.summary(res), err
	}
	if len(res.Records) == 0 {
		p.log.Warn("no product data scraped, skipping transform and load")
		return p.summary(res), nil
	}

	s, err := p.Transform(ctx, res.Records)
	s.PagesFetched = res.PagesFetched
	s.EmptyPages = res.EmptyPages
	s.FailedPage = res.FailedPage
	return s, err
}

// Crawl fetches the configured listing pages. A failed page ends the crawl
// but is reported through the result, not the error.
func (p *Pipeline) Crawl(ctx context.Context) (crawler.Result, error) {
	fetcher, closeFetcher, err := openFetcher(ctx, p.cfg, p.log)
	if err != nil {
		return crawler.Result{}, err
	}
	defer closeFetcher()

	c := crawler.NewCrawler(fetcher, crawler.NewExtractor(p.log), crawler.Options{
		BaseURL: p.cfg.BaseURL,
		Pages:   p.cfg.Pages,
		Delay:   p.cfg.Delay,
		Workers: p.cfg.Workers,
	}, p.log)

	res := c.Crawl(ctx)
	if res.FetchErr != nil {
		p.log.Warn("crawl ended early", "failed_page", res.FailedPage, "records", len(res.Records))
	}
	return res, nil
}

// Transform normalizes raw and writes the result to every enabled sink.
// Sinks are not opened when normalization fails.
func (p *Pipeline) Transform(ctx context.Context, raw []model.RawRecord) (Summary, error) {
	s := Summary{RunID: p.runID, Raw: len(raw)}

	records, report, err := normalizer.New(p.cfg.PriceMultiplier, p.log).Normalize(raw)
	s.Dropped = report.Dropped
	if err != nil {
		return s, err
	}
	s.Normalized = len(records)

	sinks, cleanup, err := openSinks(ctx, p.cfg.Sinks, p.runID, p.log)
	defer cleanup()
	if err != nil {
		return s, fmt.Errorf("failed to open sinks: %w", err)
	}

	l := loader.New(p.log, sinks...)
	s.Sinks = l.Sinks()
	if err := l.Load(ctx, records); err != nil {
		return s, fmt.Errorf("failed to load records: %w", err)
	}

	p.log.Info("run finished", "raw", s.Raw, "normalized", s.Normalized, "sinks", s.Sinks)
	return s, nil
}

func (p *Pipeline) summary(res crawler.Result) Summary {
	return Summary{
		RunID:        p.runID,
		PagesFetched: res.PagesFetched,
		EmptyPages:   res.EmptyPages,
		FailedPage:   res.FailedPage,
		Raw:          len(res.Records),
	}
}
