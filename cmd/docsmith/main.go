package main

import (
	"fmt"
	"os"

	"github.com/docsmith-ai/docsmith/internal/cli"
	"github.com/docsmith-ai/docsmith/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docsmith",
		Short: "Docsmith CLI - Documentation Q&A over your repositories",
		Long: `Docsmith CLI provides commands to ingest repository documentation and ask questions about it.

Environment variables:
  DOCSMITH_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.CollectionCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
