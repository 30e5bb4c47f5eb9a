package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leofalp/chatwidget/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Addr = addr
			}
			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides CHATWIDGET_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	srv := server.New(a.provider,
		server.WithBackend(a.backend),
		server.WithFormatter(a.formatter),
		server.WithLoader(a.loader),
		server.WithRevealer(a.revealer),
		server.WithMaxTurns(cfg.MaxTurns),
		server.WithSystemPrompt(cfg.SystemPrompt),
		server.WithModel(cfg.Model),
		server.WithGreeting(cfg.Greeting),
		server.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		server.WithMiddleware(a.middlewares...),
		server.WithObserver(a.observer),
		server.WithLogger(a.logger()),
	)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger().Info("listening", slog.String("addr", cfg.Addr), slog.String("link_mode", string(cfg.Mode())))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if cfg.SessionIdle <= 0 {
			return nil
		}
		ticker := time.NewTicker(cfg.SessionIdle / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := srv.EvictIdle(cfg.SessionIdle); n > 0 {
					a.logger().Debug("evicted idle sessions", slog.Int("count", n))
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger().Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
