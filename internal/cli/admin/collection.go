package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docsmith-ai/docsmith/internal/config"
	"github.com/docsmith-ai/docsmith/internal/database"
	"github.com/docsmith-ai/docsmith/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the document collection",
		Long:  "Inspect and migrate the document collection directly against the database",
	}

	cmd.AddCommand(CollectionEnsureCmd())
	cmd.AddCommand(CollectionStatusCmd())

	return cmd
}

// MigrateCmd returns the top-level migrate command, a shorthand for
// 'collection ensure'.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Run the embedded migrations against the configured database",
		RunE:  runCollectionEnsure,
	}
}

func CollectionEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the collection schema if it does not exist",
		Long:  "Run the embedded migrations against the configured database",
		RunE:  runCollectionEnsure,
	}
}

func runCollectionEnsure(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	created, err := database.EnsureCollection(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	if created {
		fmt.Println("Collection created.")
	} else {
		fmt.Println("Collection already up to date.")
	}
	return nil
}

func CollectionStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show collection status",
		Long:  "Report whether the collection exists and how many chunks it holds",
		RunE:  runCollectionStatus,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runCollectionStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	documentRepo := repository.NewDocumentRepository(pool)

	exists, err := documentRepo.CollectionExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	var count int64
	if exists {
		count, err = documentRepo.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count documents: %w", err)
		}
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"exists": exists,
			"count":  count,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else if exists {
		fmt.Printf("Collection exists with %d chunks.\n", count)
	} else {
		fmt.Println("Collection does not exist. Run 'docsmithd collection ensure'.")
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
