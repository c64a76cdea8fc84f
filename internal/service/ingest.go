package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/ingest"
	"github.com/docsmith-ai/docsmith/internal/telemetry"
)

// DumpFetcher defines the interface for retrieving a repository's flattened
// text dump
type DumpFetcher interface {
	Fetch(ctx context.Context, repository string) (string, error)
}

// DumpArchive defines the interface for archiving raw dumps
type DumpArchive interface {
	PutDump(ctx context.Context, repository, dump string) error
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// DocumentInserter defines the repository interface for storing document items
type DocumentInserter interface {
	Insert(ctx context.Context, item *domain.DocumentItem, embedding []float32) (string, error)
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Repository     string `json:"repository"`
	DocumentURL    string `json:"document_url"`
	FilesSegmented int    `json:"files_segmented"`
	FilesKept      int    `json:"files_kept"`
	ChunksStored   int    `json:"chunks_stored"`
}

// IngestService runs the ingestion pipeline: fetch a repository dump, split
// it into per-file records, drop boilerplate, chunk, embed, and store.
type IngestService struct {
	fetcher   DumpFetcher
	archive   DumpArchive
	chunker   *ingest.Chunker
	embedder  EmbeddingClient
	documents DocumentInserter
	minLength int
}

// NewIngestService creates a new IngestService instance. The archive is
// optional; pass nil to skip dump archiving.
func NewIngestService(
	fetcher DumpFetcher,
	archive DumpArchive,
	chunker *ingest.Chunker,
	embedder EmbeddingClient,
	documents DocumentInserter,
	minLength int,
) *IngestService {
	if minLength <= 0 {
		minLength = ingest.DefaultMinContentLength
	}
	return &IngestService{
		fetcher:   fetcher,
		archive:   archive,
		chunker:   chunker,
		embedder:  embedder,
		documents: documents,
		minLength: minLength,
	}
}

// Ingest runs the full pipeline for one repository. Every stored chunk from
// the run carries the same source and URL provenance. Storage is not
// transactional: a failure partway leaves earlier chunks stored.
func (s *IngestService) Ingest(ctx context.Context, repository string) (*IngestResult, error) {
	repository = strings.TrimSpace(repository)
	if repository == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "repository is required")
	}

	ctx, span := telemetry.StartSpan(ctx, "service.ingest", telemetry.SpanAttributes{
		Repository: repository,
		Operation:  "ingest",
	})
	defer span.End()

	dump, err := s.fetcher.Fetch(ctx, repository)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeFetchUnavailable,
			fmt.Sprintf("failed to fetch dump for %s", repository), err)
	}

	if s.archive != nil {
		// Archiving is best effort; the pipeline proceeds on failure.
		if err := s.archive.PutDump(ctx, repository, dump); err != nil {
			log.Printf("failed to archive dump for %s: %v", repository, err)
		}
	}

	// A dump without separator markers is a valid empty result, not a
	// failure: the run completes with zero chunks stored.
	records := ingest.Segment(dump)
	kept := ingest.Filter(records, s.minLength)

	url := "https://github.com/" + repository
	items := s.chunker.Chunk(kept, repository, url, time.Now().UTC())

	result := &IngestResult{
		Repository:     repository,
		DocumentURL:    url,
		FilesSegmented: len(records),
		FilesKept:      len(kept),
	}

	for _, item := range items {
		embedding, err := s.embedder.GenerateEmbedding(ctx, item.DocumentContent)
		if err != nil {
			return result, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingFailure,
				"failed to generate chunk embedding", err)
		}

		if _, err := s.documents.Insert(ctx, item, embedding); err != nil {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) {
				return result, err
			}
			return result, domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable,
				"failed to store chunk", err)
		}
		result.ChunksStored++
	}

	return result, nil
}
