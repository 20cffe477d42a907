package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worldweaver/internal/config"
	"worldweaver/internal/engine"
)

func mapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Print every positioned storylet",
		Args:  cobra.NoArgs,
		RunE:  runMap,
	}
}

func runMap(cmd *cobra.Command, args []string) error {
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
	entries, err := game.Map(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("no storylets positioned")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tX\tY")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", e.ID, e.Title, e.Position.X, e.Position.Y)
	}
	return w.Flush()
}
