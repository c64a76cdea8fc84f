package main

import (
	"fmt"
	"os"

	"github.com/docsmith-ai/docsmith/internal/cli"
	"github.com/docsmith-ai/docsmith/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsmithd",
		Short: "Docsmith daemon and CLI",
		Long:  "Docsmith daemon for running the API server and managing the document collection",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.CollectionCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
