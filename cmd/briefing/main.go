package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auto_briefing/internal/aggregator"
	"auto_briefing/internal/briefing"
	"auto_briefing/internal/config"
	"auto_briefing/internal/fetcher"
	"auto_briefing/internal/logger"
	"auto_briefing/internal/metrics"
	"auto_briefing/internal/parser"
	"auto_briefing/internal/server"
	"auto_briefing/internal/sources"
	"auto_briefing/internal/telegram"

	"github.com/urfave/cli/v2"
)

func main() {
	logger.Init()

	app := &cli.App{
		Name:  "briefing",
		Usage: "Automotive news aggregator and Telegram briefing composer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.json",
				Usage:   "path to the JSON config file",
				EnvVars: []string{"BRIEFING_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			sourcesCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return serve(ctx)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatalf("%v", err)
	}
}

// pipeline — собранные зависимости конвейера лент.
type pipeline struct {
	cfg        *config.Config
	registry   *sources.Registry
	metrics    *metrics.Metrics
	aggregator *aggregator.Aggregator
}

func buildPipeline(path string) (*pipeline, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry, err := sources.NewRegistry(cfg.Sources)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	agg := aggregator.New(
		registry,
		fetcher.NewFetcher(cfg.FetchTimeout(), cfg.UserAgent),
		parser.NewNormalizer(cfg.SummaryLength),
		m,
	)
	agg.SetMaxConcurrent(cfg.MaxConcurrentFetches)

	return &pipeline{cfg: cfg, registry: registry, metrics: m, aggregator: agg}, nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API",
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	p, err := buildPipeline(c.String("config"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if p.cfg.PollInterval > 0 {
		go fetcher.StartPolling(ctx, p.aggregator, p.metrics, time.Duration(p.cfg.PollInterval)*time.Minute)
	}

	sender := telegram.NewSender(p.cfg.TelegramAPIEndpoint, 15*time.Second, p.metrics)
	srv := server.NewServer(p.cfg, p.aggregator, sender, p.registry, p.metrics)

	httpServer := &http.Server{
		Addr:              p.cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.WithFields(logger.Fields{
			"addr":    p.cfg.ListenAddr,
			"sources": p.registry.Len(),
		}).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Log.Info("Shutting down...")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Log.Info("Application stopped")
	return nil
}

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Run one aggregation pass and print the articles",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   aggregator.DefaultLimit,
				Usage:   "maximum number of articles",
			},
			&cli.BoolFlag{
				Name:  "briefing",
				Usage: "print the Telegram MarkdownV2 briefing instead of JSON",
			},
			&cli.StringFlag{
				Name:  "note",
				Usage: "intro note prepended to the briefing",
			},
		},
		Action: func(c *cli.Context) error {
			p, err := buildPipeline(c.String("config"))
			if err != nil {
				return err
			}

			limit := min(max(c.Int("limit"), 1), p.cfg.MaxLimit)
			articles, err := p.aggregator.Aggregate(c.Context, limit)
			if err != nil {
				return err
			}

			if c.Bool("briefing") {
				_, err = fmt.Fprintln(c.App.Writer, briefing.Compose(c.String("note"), articles))
				return err
			}
			return printJSON(c, map[string]any{"articles": articles})
		},
	}
}

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List the configured feed sources",
		Action: func(c *cli.Context) error {
			p, err := buildPipeline(c.String("config"))
			if err != nil {
				return err
			}
			return printJSON(c, map[string]any{"sources": p.registry.All()})
		},
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
