package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/civic-portal-api/internal/models"
)

// DocumentRepository stores request attachments.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Add attaches documents to an existing request.
func (r *DocumentRepository) Add(ctx context.Context, requestID string, documents []models.Document) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add documents tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range documents {
		documents[i].RequestID = requestID
		if err = insertDocument(ctx, tx, &documents[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add documents tx: %w", err)
	}
	return nil
}

// ListByRequest returns the documents attached to a request in upload order.
func (r *DocumentRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Document, error) {
	const query = `SELECT id, request_id, file_path, original_file_name, file_type, size_bytes, created_at FROM documents WHERE request_id = $1 ORDER BY created_at ASC, id ASC`
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, requestID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// FindByID returns one document of a request.
func (r *DocumentRepository) FindByID(ctx context.Context, requestID, documentID string) (*models.Document, error) {
	const query = `SELECT id, request_id, file_path, original_file_name, file_type, size_bytes, created_at FROM documents WHERE id = $1 AND request_id = $2`
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, documentID, requestID); err != nil {
		if IsMissing(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &document, nil
}

func insertDocument(ctx context.Context, exec sqlx.ExecerContext, document *models.Document) error {
	if document.ID == "" {
		document.ID = uuid.NewString()
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, request_id, file_path, original_file_name, file_type, size_bytes, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := exec.ExecContext(ctx, query, document.ID, document.RequestID, document.FilePath, document.OriginalFileName, document.FileType, document.SizeBytes, document.CreatedAt); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}
