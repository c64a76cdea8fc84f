package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// CollectionItem represents a stored chunk returned by the API.
type CollectionItem struct {
	ID              string `json:"id"`
	DocumentSource  string `json:"document_source"`
	DocumentURL     string `json:"document_url"`
	DocumentContent string `json:"document_content"`
	CreatedAt       string `json:"created_at"`
}

// CollectionCmd creates the collection command group.
func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the document collection",
	}

	cmd.AddCommand(collectionEnsureCmd())
	cmd.AddCommand(collectionExistsCmd())
	cmd.AddCommand(collectionCountCmd())
	cmd.AddCommand(collectionItemsCmd())
	cmd.AddCommand(collectionDeleteCmd())

	return cmd
}

func collectionEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the collection if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Post("/collection", nil)
			if err != nil {
				return fmt.Errorf("ensure failed: %w", err)
			}

			var result struct {
				Created bool `json:"created"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if result.Created {
				fmt.Println("Collection created.")
			} else {
				fmt.Println("Collection already exists.")
			}
			return nil
		},
	}
}

func collectionExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists",
		Short: "Check whether the collection exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/collection/exists")
			if err != nil {
				return fmt.Errorf("exists check failed: %w", err)
			}

			var result struct {
				Exists bool `json:"exists"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Println(result.Exists)
			return nil
		},
	}
}

func collectionCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count stored chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/collection/count")
			if err != nil {
				return fmt.Errorf("count failed: %w", err)
			}

			var result struct {
				Count int64 `json:"count"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			fmt.Println(result.Count)
			return nil
		},
	}
}

func collectionItemsCmd() *cobra.Command {
	var source, sourceURL string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"items"},
		Short:   "List stored chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCollectionItems(source, sourceURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by repository identifier")
	cmd.Flags().StringVar(&sourceURL, "url", "", "Filter by source URL")

	return cmd
}

func runCollectionItems(source, sourceURL string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if source != "" {
		query.Set("source", source)
	}
	if sourceURL != "" {
		query.Set("url", sourceURL)
	}
	path := "/collection/items"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var items []CollectionItem
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		return fmt.Errorf("failed to parse items: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(items) == 0 {
		fmt.Println("No items found.")
		return nil
	}

	fmt.Printf("Found %d items:\n\n", len(items))
	for _, item := range items {
		content := item.DocumentContent
		if len(content) > 80 {
			content = content[:77] + "..."
		}
		fmt.Printf("%s  %s\n  %s\n", item.ID, item.DocumentSource, content)
	}
	return nil
}

func collectionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			if _, err := api.Delete("/collection/items/" + args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}

			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
