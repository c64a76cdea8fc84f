package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// IngestRequest represents the ingest API request.
type IngestRequest struct {
	Repository string `json:"repository"`
}

// IngestResult represents the ingest API response.
type IngestResult struct {
	Repository     string `json:"repository"`
	DocumentURL    string `json:"document_url"`
	FilesSegmented int    `json:"files_segmented"`
	FilesKept      int    `json:"files_kept"`
	ChunksStored   int    `json:"chunks_stored"`
}

// IngestJob represents a queued ingestion job.
type IngestJob struct {
	ID           string `json:"id"`
	Repository   string `json:"repository"`
	Status       string `json:"status"`
	Retries      int32  `json:"retries"`
	ChunksStored int32  `json:"chunks_stored"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	ProcessedAt  string `json:"processed_at,omitempty"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var async bool
	var wait bool

	cmd := &cobra.Command{
		Use:   "ingest <owner/repo>",
		Short: "Ingest a repository's documentation",
		Long:  "Fetches a repository dump, chunks it, and stores embedded chunks for retrieval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if async {
				return runIngestAsync(args[0], wait, outputJSON)
			}
			return runIngest(args[0], outputJSON)
		},
	}

	cmd.Flags().BoolVar(&async, "async", false, "Enqueue a background job instead of waiting for the pipeline")
	cmd.Flags().BoolVar(&wait, "wait", false, "With --async, poll the job until it completes or fails")

	cmd.AddCommand(ingestJobCmd())

	return cmd
}

func ingestJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job <id>",
		Short: "Show an ingestion job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClient()
			if err != nil {
				return err
			}
			job, err := fetchIngestJob(api, args[0])
			if err != nil {
				return err
			}
			printIngestJob(job, outputJSON)
			return nil
		},
	}
	return cmd
}

func runIngest(repository string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	fmt.Printf("Ingesting %s...\n", repository)

	resp, err := api.Post("/ingest", IngestRequest{Repository: repository})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var result IngestResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse ingest result: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Done: %d files segmented, %d kept, %d chunks stored\n",
		result.FilesSegmented, result.FilesKept, result.ChunksStored)
	fmt.Printf("Source URL: %s\n", result.DocumentURL)
	return nil
}

func runIngestAsync(repository string, wait, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/ingest/jobs", IngestRequest{Repository: repository})
	if err != nil {
		return fmt.Errorf("failed to enqueue ingest job: %w", err)
	}

	var job IngestJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse job: %w", err)
	}

	if !wait {
		printIngestJob(&job, outputJSON)
		return nil
	}

	fmt.Printf("Job %s enqueued, waiting...\n", job.ID)
	for {
		time.Sleep(3 * time.Second)
		current, err := fetchIngestJob(api, job.ID)
		if err != nil {
			return err
		}
		if current.Status == "completed" || current.Status == "failed" {
			printIngestJob(current, outputJSON)
			if current.Status == "failed" {
				return fmt.Errorf("ingest job failed: %s", current.Error)
			}
			return nil
		}
	}
}

func fetchIngestJob(api *APIClient, id string) (*IngestJob, error) {
	resp, err := api.Get("/ingest/jobs/" + id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	var job IngestJob
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &job, nil
}

func printIngestJob(job *IngestJob, outputJSON bool) {
	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("Job: %s\n", job.ID)
	fmt.Printf("Repository: %s\n", job.Repository)
	fmt.Printf("Status: %s\n", job.Status)
	if job.Retries > 0 {
		fmt.Printf("Retries: %d\n", job.Retries)
	}
	if job.Status == "completed" {
		fmt.Printf("Chunks stored: %d\n", job.ChunksStored)
	}
	if job.Error != "" {
		fmt.Printf("Error: %s\n", job.Error)
	}
}
