package main

import (
	"context"

	"github.com/spf13/cobra"

	"worldweaver/internal/config"
	"worldweaver/internal/engine"
	"worldweaver/internal/mcp"
	"worldweaver/internal/observability"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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
	defer tracer.Shutdown(ctx)

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	game := engine.New(db, engine.WithSessionTTL(cfg.Sessions.IdleTimeout))
	server := mcp.NewServer(game, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
