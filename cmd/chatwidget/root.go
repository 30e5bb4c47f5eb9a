package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/leofalp/chatwidget/core/attachment"
	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/core/client/middleware"
	"github.com/leofalp/chatwidget/core/format"
	"github.com/leofalp/chatwidget/core/reveal"
	"github.com/leofalp/chatwidget/internal/config"
	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/ai/gemini"
	"github.com/leofalp/chatwidget/providers/memory"
	"github.com/leofalp/chatwidget/providers/memory/inmemory"
	"github.com/leofalp/chatwidget/providers/memory/pgmemory"
	"github.com/leofalp/chatwidget/providers/observability/slogobs"
)

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "chatwidget",
		Short:        "Gemini backed chat assistant for websites",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to read (default .env)")

	cmd.AddCommand(newServeCmd(opts), newChatCmd(opts))
	return cmd
}

// app bundles everything both commands build from the configuration.
type app struct {
	cfg         *config.Config
	observer    *slogobs.Observer
	provider    ai.Provider
	formatter   *format.Formatter
	loader      *attachment.Loader
	revealer    *reveal.Revealer
	middlewares []client.Middleware
	pool        *pgxpool.Pool
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, logFormat := slogobs.GetLogLevelFromEnv(), slogobs.GetFormatFromEnv()
	if cfg.LogLevel != "" {
		level = slogobs.ParseLogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		logFormat = slogobs.ParseFormat(cfg.LogFormat)
	}
	observer := slogobs.New(slogobs.WithLevel(level), slogobs.WithFormat(logFormat))

	a := &app{
		cfg:      cfg,
		observer: observer,
		provider: gemini.New().WithAPIKey(cfg.GeminiAPIKey).WithBaseURL(cfg.GeminiBaseURL),
		formatter: format.NewFormatter(
			format.WithMode(cfg.Mode()),
			format.WithHTMLConversion(cfg.ConvertHTML),
		),
		loader:   attachment.NewLoader(cfg.MaxAttachmentSizeMB),
		revealer: reveal.New(cfg.RevealInterval),
		middlewares: []client.Middleware{
			middleware.NewTimeoutMiddleware(cfg.RequestTimeout),
			middleware.NewLoggingMiddleware(observer.Logger(), middleware.ParseLogLevel(cfg.RequestLogLevel)),
		},
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pgmemory.New(pool, "", a.pgOptions()...).EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		observer.Logger().Info("using PostgreSQL history")
	}

	return a, nil
}

func (a *app) pgOptions() []pgmemory.Option {
	if a.cfg.TableName == "" {
		return nil
	}
	return []pgmemory.Option{pgmemory.WithTableName(a.cfg.TableName)}
}

// backend returns the history storage for one session.
func (a *app) backend(_ context.Context, sessionID string) (memory.Provider, error) {
	if a.pool == nil {
		return inmemory.New(), nil
	}
	return pgmemory.New(a.pool, sessionID, a.pgOptions()...), nil
}

func (a *app) logger() *slog.Logger {
	return a.observer.Logger()
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
