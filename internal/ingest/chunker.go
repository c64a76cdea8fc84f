package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/pkoukk/tiktoken-go"
)

// ChunkConfig controls token-based chunking of file records.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    512,
		Overlap: 64,
	}
}

// Tokenizer converts text to and from the token vocabulary of the
// embedding model, so chunk bounds stay meaningful for its context window.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// NewTokenizerForModel returns a Tokenizer aligned with the given
// embedding model's vocabulary (cl100k_base for text-embedding-ada-002).
func NewTokenizerForModel(embeddingModel string) (Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer for model %s: %w", embeddingModel, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

// Chunker splits file records into overlapping, size-bounded document items.
type Chunker struct {
	tok Tokenizer
	cfg ChunkConfig
}

// NewChunker creates a Chunker. Overlap equal to or greater than the
// chunk size would never advance the window and is rejected.
func NewChunker(tok Tokenizer, cfg ChunkConfig) (*Chunker, error) {
	if cfg.Size <= 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("chunk size must be positive, got %d", cfg.Size))
	}
	if cfg.Overlap < 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("chunk overlap cannot be negative, got %d", cfg.Overlap))
	}
	if cfg.Overlap >= cfg.Size {
		return nil, domain.ErrInvalidChunkConfig
	}
	return &Chunker{tok: tok, cfg: cfg}, nil
}

// Chunk splits each record's content into token windows of the configured
// size, with the configured overlap shared between consecutive windows.
// All items from one call carry the same run-level source and URL; chunk
// order follows record order. Blank windows are skipped.
func (c *Chunker) Chunk(records []domain.FileRecord, source, url string, createdAt time.Time) []*domain.DocumentItem {
	items := make([]*domain.DocumentItem, 0, len(records))
	step := c.cfg.Size - c.cfg.Overlap

	for _, record := range records {
		tokens := c.tok.Encode(record.Content)

		for start := 0; start < len(tokens); start += step {
			end := start + c.cfg.Size
			if end > len(tokens) {
				end = len(tokens)
			}

			text := strings.TrimSpace(c.tok.Decode(tokens[start:end]))
			if text != "" {
				items = append(items, domain.NewDocumentItem(source, url, text, createdAt))
			}

			if end >= len(tokens) {
				break
			}
		}
	}

	return items
}
