package main

import (
	"context"

	"github.com/spf13/cobra"

	"worldweaver/internal/config"
	"worldweaver/internal/engine"
)

func assignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign",
		Short: "Assign grid positions to unpositioned storylets",
		Args:  cobra.NoArgs,
		RunE:  runAssign,
	}
}

func runAssign(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load("worldweaver.yaml")
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	game := engine.New(db)
	count, err := game.AutoAssign(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		cmd.Println("every storylet already has a position")
		return nil
	}
	cmd.Printf("assigned positions to %d storylets\n", count)
	return nil
}
