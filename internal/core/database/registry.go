package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

var _ core.DocumentRegistry = (*DatabaseClient)(nil)

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, workspace_id, project_id, file_name, storage_key, mime_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.WorkspaceID, doc.ProjectID, doc.FileName, doc.StorageKey, doc.MimeType, doc.Status)
	return err
}

func (c *DatabaseClient) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	const q = `
		SELECT id, workspace_id, project_id, file_name, storage_key, mime_type, status, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var d models.Document
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.WorkspaceID, &d.ProjectID, &d.FileName, &d.StorageKey, &d.MimeType, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
