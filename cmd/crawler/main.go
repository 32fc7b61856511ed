package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"fashionetl/internal/config"
	"fashionetl/internal/etl"
	"fashionetl/internal/logger"
	"fashionetl/internal/observability"
)

// go run ./cmd/crawler run
// go run ./cmd/crawler --pages 5 crawl --out raw.json
// go run ./cmd/crawler transform --in raw.json
func main() {
	app := &cli.App{
		Name:  "fashionetl",
		Usage: "scrape the fashion catalogue, normalize it and load it into the configured sinks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", EnvVars: []string{"ETL_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "base-url", Usage: "listing root URL"},
			&cli.IntFlag{Name: "pages", Usage: "number of listing pages to crawl"},
			&cli.IntFlag{Name: "workers", Usage: "concurrent page fetches (1 crawls sequentially)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "crawl, normalize and load in one go",
				Action: runAction,
			},
			{
				Name:  "crawl",
				Usage: "crawl only and dump the raw records as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "raw_products.json"},
				},
				Action: crawlAction,
			},
			{
				Name:  "transform",
				Usage: "normalize a raw JSON dump and load it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Value: "raw_products.json"},
				},
				Action: transformAction,
			},
		},
		DefaultCommand: "run",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup loads the configuration, applies flag overrides and starts metrics.
func setup(c *cli.Context) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("pages") {
		cfg.Pages = c.Int("pages")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MetricsPort != "" {
		observability.Start(cfg.MetricsPort)
	}

	return cfg, logger.NewLogger(cfg.LogLevel), nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func runAction(c *cli.Context) error {
	cfg, lg, err := setup(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	s, err := etl.New(cfg, lg).Run(ctx)
	if err != nil {
		lg.Error("run failed", "run_id", s.RunID.String(), "error", err)
		return err
	}
	lg.Info("summary", "run_id", s.RunID.String(), "pages", s.PagesFetched, "raw", s.Raw, "normalized", s.Normalized, "dropped", s.Dropped)
	return nil
}

func crawlAction(c *cli.Context) error {
	cfg, lg, err := setup(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	res, err := etl.New(cfg, lg).Crawl(ctx)
	if err != nil {
		return err
	}
	if err := etl.WriteRaw(c.String("out"), res.Records); err != nil {
		return err
	}
	lg.Info("raw records written", "path", c.String("out"), "records", len(res.Records), "failed_page", res.FailedPage)
	return nil
}

func transformAction(c *cli.Context) error {
	cfg, lg, err := setup(c)
	if err != nil {
		return err
	}
	ctx, stop := signalContext(c)
	defer stop()

	raw, err := etl.ReadRaw(c.String("in"))
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		lg.Warn("no product data in dump, nothing to transform", "path", c.String("in"))
		return nil
	}

	s, err := etl.New(cfg, lg).Transform(ctx, raw)
	if err != nil {
		return err
	}
	lg.Info("summary", "run_id", s.RunID.String(), "raw", s.Raw, "normalized", s.Normalized, "dropped", s.Dropped)
	return nil
}
