package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIngestJobRepository is a mock implementation of IngestJobRepository
type MockIngestJobRepository struct {
	mock.Mock
}

func (m *MockIngestJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.IngestJob), args.Error(1)
}

func (m *MockIngestJobRepository) UpdateStatus(ctx context.Context, jobID string, status domain.IngestJobStatus, errMsg string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockIngestJobRepository) MarkCompleted(ctx context.Context, jobID string, chunksStored int32) error {
	args := m.Called(ctx, jobID, chunksStored)
	return args.Error(0)
}

func (m *MockIngestJobRepository) IncrementRetries(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockIngestor is a mock implementation of Ingestor
type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, repository string) (*service.IngestResult, error) {
	args := m.Called(ctx, repository)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(150 * time.Millisecond)

	cancel()
	wg.Wait()

	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestIngestWorker_ProcessJobs_NoPendingJobs tests when there are no pending jobs
func TestIngestWorker_ProcessJobs_NoPendingJobs(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{}, nil)

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

// TestIngestWorker_ProcessJobs_Success tests successful job processing
func TestIngestWorker_ProcessJobs_Success(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	job := &domain.IngestJob{
		ID:         "job-1",
		Repository: "kubeflow/website",
		Status:     domain.IngestJobStatusProcessing,
		Retries:    0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockIngestor.On("Ingest", mock.Anything, "kubeflow/website").Return(&service.IngestResult{ChunksStored: 12}, nil)
	mockRepo.On("MarkCompleted", mock.Anything, "job-1", int32(12)).Return(nil)

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_FailureWithRetry tests job failure with retry
func TestIngestWorker_ProcessJobs_FailureWithRetry(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	job := &domain.IngestJob{
		ID:         "job-1",
		Repository: "kubeflow/website",
		Status:     domain.IngestJobStatusProcessing,
		Retries:    0,
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockIngestor.On("Ingest", mock.Anything, "kubeflow/website").Return(nil, errors.New("fetch failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusPending, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_MaxRetriesExceeded tests job failure after max retries
func TestIngestWorker_ProcessJobs_MaxRetriesExceeded(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	job := &domain.IngestJob{
		ID:         "job-1",
		Repository: "kubeflow/website",
		Status:     domain.IngestJobStatusProcessing,
		Retries:    2, // Already retried twice
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return([]*domain.IngestJob{job}, nil)
	mockIngestor.On("Ingest", mock.Anything, "kubeflow/website").Return(nil, errors.New("fetch failed"))
	mockRepo.On("IncrementRetries", mock.Anything, "job-1").Return(nil)
	mockRepo.On("UpdateStatus", mock.Anything, "job-1", domain.IngestJobStatusFailed, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_MultipleJobs tests processing multiple jobs
func TestIngestWorker_ProcessJobs_MultipleJobs(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	jobs := []*domain.IngestJob{
		{ID: "job-1", Repository: "kubeflow/website", Status: domain.IngestJobStatusProcessing},
		{ID: "job-2", Repository: "grpc/grpc-go", Status: domain.IngestJobStatusProcessing},
	}

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(jobs, nil)

	mockIngestor.On("Ingest", mock.Anything, "kubeflow/website").Return(&service.IngestResult{ChunksStored: 3}, nil)
	mockRepo.On("MarkCompleted", mock.Anything, "job-1", int32(3)).Return(nil)

	mockIngestor.On("Ingest", mock.Anything, "grpc/grpc-go").Return(&service.IngestResult{ChunksStored: 7}, nil)
	mockRepo.On("MarkCompleted", mock.Anything, "job-2", int32(7)).Return(nil)

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockIngestor.AssertExpectations(t)
}

// TestIngestWorker_ProcessJobs_RepositoryError tests repository error handling
func TestIngestWorker_ProcessJobs_RepositoryError(t *testing.T) {
	mockRepo := new(MockIngestJobRepository)
	mockIngestor := new(MockIngestor)

	mockRepo.On("ClaimPending", mock.Anything, claimBatchSize).Return(nil, errors.New("database error"))

	worker := NewIngestWorker(mockRepo, mockIngestor)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to claim pending jobs")
	mockRepo.AssertExpectations(t)
}
