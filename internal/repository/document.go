package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// dbtx is the subset of pgx operations shared by pools and transactions.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgUndefinedTable is the Postgres error code raised when the collection
// has not been created yet.
const pgUndefinedTable = "42P01"

// DocumentRepository wraps the vector store engine behind the query
// contract the pipelines need.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Insert stores one document item with its embedding and returns the
// store-assigned identifier. Repeated inserts of identical content create
// duplicate entries by design; dedup is not this layer's concern.
func (r *DocumentRepository) Insert(ctx context.Context, item *domain.DocumentItem, embedding []float32) (string, error) {
	if err := domain.ValidateDocumentItem(item); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document item", err)
	}

	id := uuid.NewString()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, document_source, document_url, document_content, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, item.DocumentSource, item.DocumentURL, item.DocumentContent,
		pgvector.NewVector(embedding), createdAt,
	)
	if err != nil {
		return "", mapStoreError(err)
	}

	return id, nil
}

// ListFiltered returns items matching the conjunction of the supplied
// filters. Nil filters are unconstrained; with no filters all items are
// returned.
func (r *DocumentRepository) ListFiltered(ctx context.Context, source, url *string) ([]*domain.DocumentItem, error) {
	query := `SELECT id, document_source, document_url, document_content, created_at
		 FROM documents`
	args := []any{}

	// Fold the present filters into an AND chain; absent filters are
	// unconstrained.
	var conditions []string
	if source != nil {
		args = append(args, *source)
		conditions = append(conditions, fmt.Sprintf("document_source = $%d", len(args)))
	}
	if url != nil {
		args = append(args, *url)
		conditions = append(conditions, fmt.Sprintf("document_url = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

// SearchNearest returns the k stored items whose embeddings are closest
// to the query vector under cosine distance, ascending by distance.
func (r *DocumentRepository) SearchNearest(ctx context.Context, embedding []float32, k int) ([]*domain.ScoredDocument, error) {
	if k <= 0 {
		k = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT id, document_source, document_url, document_content, created_at,
		        embedding <=> $1 AS distance
		 FROM documents
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, k,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	results := make([]*domain.ScoredDocument, 0, k)
	for rows.Next() {
		var doc domain.ScoredDocument
		if err := rows.Scan(&doc.ID, &doc.DocumentSource, &doc.DocumentURL, &doc.DocumentContent, &doc.CreatedAt, &doc.Distance); err != nil {
			return nil, err
		}
		results = append(results, &doc)
	}
	return results, rows.Err()
}

// Delete removes one item by identifier. A missing item or a missing
// collection is a reported NotFound, not a silent no-op, since operators
// rely on it to detect misconfiguration.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return mapStoreError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Count returns the total number of stored items.
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	if err != nil {
		return 0, mapStoreError(err)
	}
	return count, nil
}

// CollectionExists reports whether the document collection has been created.
func (r *DocumentRepository) CollectionExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT FROM information_schema.tables WHERE table_name = 'documents'
		)`,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func scanDocumentRows(rows pgx.Rows) ([]*domain.DocumentItem, error) {
	var results []*domain.DocumentItem
	for rows.Next() {
		var d domain.DocumentItem
		if err := rows.Scan(&d.ID, &d.DocumentSource, &d.DocumentURL, &d.DocumentContent, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

// mapStoreError converts engine-level failures into domain errors. A
// query against a collection that was never created surfaces as
// CollectionNotFound rather than a raw SQL error.
func mapStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return domain.ErrCollectionNotFound
	}
	return err
}
