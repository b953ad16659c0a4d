package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	serve := serveCmd()
	rootCmd := &cobra.Command{
		Use:     "egov-portal",
		Short:   "Municipal e-government portal API",
		Version: Version,
		// Running without a subcommand starts the server
		RunE: serve.RunE,
	}

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
