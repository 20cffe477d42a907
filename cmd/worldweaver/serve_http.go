package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"worldweaver/internal/config"
	"worldweaver/internal/engine"
	"worldweaver/internal/httpapi"
	"worldweaver/internal/observability"
	"worldweaver/internal/seed"
)

func serveHTTPCmd() *cobra.Command {
	var seedOnStart bool
	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeHTTP(seedOnStart)
		},
	}
	cmd.Flags().BoolVar(&seedOnStart, "seed", false, "Seed starter worlds when the store is empty")
	return cmd
}

func runServeHTTP(seedOnStart bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("worldweaver.yaml")
	if err != nil {
		return err
	}

	tracer, err := observability.InitTracing(ctx, observability.Config{
		ServiceName:    "worldweaver",
		ServiceVersion: version,
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
	})
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	if seedOnStart {
		n, err := seed.IfEmpty(ctx, db)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("seeded %d storylets", n)
		}
	}

	game := engine.New(db, engine.WithSessionTTL(cfg.Sessions.IdleTimeout))
	api := httpapi.NewServer(game, version, httpapi.WithTracing(tracer))

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.HTTP.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
