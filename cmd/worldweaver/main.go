package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional; deployment env vars win over .env values.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "worldweaver",
		Short: "Storylet-driven interactive fiction engine",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(serveHTTPCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(assignCmd())
	root.AddCommand(mapCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
