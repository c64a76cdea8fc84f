package domain

import (
	"fmt"
	"time"
)

// IngestJobStatus represents the status of an ingestion job
type IngestJobStatus string

const (
	IngestJobStatusPending    IngestJobStatus = "pending"
	IngestJobStatusProcessing IngestJobStatus = "processing"
	IngestJobStatusCompleted  IngestJobStatus = "completed"
	IngestJobStatusFailed     IngestJobStatus = "failed"
)

// IngestJob represents an async repository ingestion job
type IngestJob struct {
	ID           string
	Repository   string
	Status       IngestJobStatus
	Retries      int32
	ChunksStored int32
	Error        string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// NewIngestJob creates a pending IngestJob for the given repository identifier
func NewIngestJob(id, repository string, createdAt time.Time) *IngestJob {
	return &IngestJob{
		ID:         id,
		Repository: repository,
		Status:     IngestJobStatusPending,
		CreatedAt:  createdAt,
	}
}

// ValidateIngestJob validates an IngestJob instance
func ValidateIngestJob(j *IngestJob) error {
	if j == nil {
		return fmt.Errorf("ingest job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("ingest job ID is required")
	}

	if j.Repository == "" {
		return fmt.Errorf("ingest job Repository is required")
	}

	if !isValidIngestJobStatus(j.Status) {
		return fmt.Errorf("ingest job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("ingest job Retries cannot be negative")
	}

	return nil
}

// isValidIngestJobStatus checks if an IngestJobStatus is valid
func isValidIngestJobStatus(s IngestJobStatus) bool {
	switch s {
	case IngestJobStatusPending, IngestJobStatusProcessing,
		IngestJobStatusCompleted, IngestJobStatusFailed:
		return true
	}
	return false
}
