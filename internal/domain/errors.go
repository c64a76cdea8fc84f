package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeFetchUnavailable  = "FETCH_UNAVAILABLE"
	ErrCodeEmbeddingFailure  = "EMBEDDING_FAILURE"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeCompletionFailure = "COMPLETION_FAILURE"
	ErrCodeChannelClosed     = "CHANNEL_CLOSED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidChunkConfig    = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than chunk size")
	ErrInvalidIngestJobState = NewDomainError(ErrCodeValidation, "invalid ingest job status")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound   = NewDomainError(ErrCodeNotFound, "document item not found")
	ErrCollectionNotFound = NewDomainError(ErrCodeNotFound, "document collection does not exist")
	ErrIngestJobNotFound  = NewDomainError(ErrCodeNotFound, "ingest job not found")
)

// External collaborator failures
var (
	ErrFetchUnavailable  = NewDomainError(ErrCodeFetchUnavailable, "source fetcher returned no usable content")
	ErrEmbeddingFailure  = NewDomainError(ErrCodeEmbeddingFailure, "embedding provider call failed")
	ErrStoreUnavailable  = NewDomainError(ErrCodeStoreUnavailable, "vector store unreachable")
	ErrCompletionFailure = NewDomainError(ErrCodeCompletionFailure, "completion provider call failed")
)

// Session errors
var (
	ErrChannelClosed = NewDomainError(ErrCodeChannelClosed, "session channel closed during processing")
)
