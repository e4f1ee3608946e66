package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "omnibox",
		Short: "Multi-tenant inbox ingestion and auto-reply service",
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
