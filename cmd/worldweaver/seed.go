package main

import (
	"context"

	"github.com/spf13/cobra"

	"worldweaver/internal/config"
	"worldweaver/internal/seed"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed starter worlds into an empty store",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	n, err := seed.IfEmpty(ctx, db)
	if err != nil {
		return err
	}
	if n == 0 {
		cmd.Println("store already has storylets, nothing seeded")
		return nil
	}
	cmd.Printf("seeded %d storylets\n", n)
	return nil
}
