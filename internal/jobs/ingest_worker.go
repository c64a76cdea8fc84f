package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/service"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// claimBatchSize bounds how many jobs one poll picks up
	claimBatchSize = 10
)

// IngestJobRepository defines the interface for ingest job persistence
type IngestJobRepository interface {
	// ClaimPending retrieves and claims pending ingest jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// UpdateStatus updates the status of an ingest job
	UpdateStatus(ctx context.Context, jobID string, status domain.IngestJobStatus, errMsg string) error

	// MarkCompleted records a successful run with its chunk count
	MarkCompleted(ctx context.Context, jobID string, chunksStored int32) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, jobID string) error
}

// Ingestor defines the interface for running the ingestion pipeline
type Ingestor interface {
	Ingest(ctx context.Context, repository string) (*service.IngestResult, error)
}

// IngestWorker processes queued ingestion jobs
type IngestWorker struct {
	repo     IngestJobRepository
	ingestor Ingestor
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo IngestJobRepository, ingestor Ingestor) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		ingestor: ingestor,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	log.Printf("Processing job %s for repository %s", job.ID, job.Repository)

	result, err := w.ingestor.Ingest(ctx, job.Repository)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.MarkCompleted(ctx, job.ID, int32(result.ChunksStored)); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks stored for %s", job.ID, result.ChunksStored, job.Repository)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	// Reset to pending for retry
	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
