package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

const jobColumns = `id, document_id, workspace_id, project_id, storage_key, mime_type,
		status, stage, retry_count, last_error, version, created_at, updated_at`

var _ core.JobRepository = (*DatabaseClient)(nil)

// CreateOrGet inserts the job unless a row for its document already exists.
// Two workers racing to create the same job are resolved by the unique index
// on document_id: the loser's insert is a no-op and it loads the winner's row.
func (c *DatabaseClient) CreateOrGet(ctx context.Context, job models.IngestionJob) (models.IngestionJob, bool, error) {
	const q = `
		INSERT INTO ingestion_jobs
			(id, document_id, workspace_id, project_id, storage_key, mime_type,
			 status, stage, retry_count, last_error, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), 1)
		ON CONFLICT (document_id) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, q,
		job.ID, job.DocumentID, job.WorkspaceID, job.ProjectID, job.StorageKey, job.MimeType,
		job.Status, job.Stage, job.RetryCount, job.LastError)
	if err != nil {
		return models.IngestionJob{}, false, fmt.Errorf("insert ingestion job: %w", err)
	}
	n, _ := res.RowsAffected()

	stored, err := c.GetByDocumentID(ctx, job.DocumentID)
	if err != nil {
		return models.IngestionJob{}, false, err
	}
	if stored == nil {
		return models.IngestionJob{}, false, fmt.Errorf("ingestion job for document %s vanished after insert", job.DocumentID)
	}
	return *stored, n == 1, nil
}

func (c *DatabaseClient) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	q := `SELECT ` + jobColumns + ` FROM ingestion_jobs WHERE id = $1`
	return c.scanJobRow(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.IngestionJob, error) {
	q := `SELECT ` + jobColumns + ` FROM ingestion_jobs WHERE document_id = $1`
	return c.scanJobRow(c.db.QueryRowContext(ctx, q, documentID))
}

// Update persists a job snapshot with a compare-and-swap on its version. A
// stale snapshot yields core.ErrVersionConflict so the caller can reload and
// decide, instead of clobbering newer state.
func (c *DatabaseClient) Update(ctx context.Context, job models.IngestionJob) (models.IngestionJob, error) {
	const q = `
		UPDATE ingestion_jobs
		SET status = $2, stage = $3, retry_count = $4, last_error = NULLIF($5, ''),
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $6
	`
	res, err := c.db.ExecContext(ctx, q,
		job.ID, job.Status, job.Stage, job.RetryCount, job.LastError, job.Version)
	if err != nil {
		return models.IngestionJob{}, fmt.Errorf("update ingestion job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		existing, err := c.GetByID(ctx, job.ID)
		if err != nil {
			return models.IngestionJob{}, err
		}
		if existing == nil {
			return models.IngestionJob{}, fmt.Errorf("job %s: %w", job.ID, core.ErrJobNotFound)
		}
		return models.IngestionJob{}, fmt.Errorf("job %s at version %d: %w", job.ID, job.Version, core.ErrVersionConflict)
	}
	job.Version++
	return job, nil
}

func (c *DatabaseClient) List(ctx context.Context, filter core.JobFilter) ([]models.IngestionJob, error) {
	q := `SELECT ` + jobColumns + ` FROM ingestion_jobs`
	var (
		args  []any
		where string
	)
	if filter.WorkspaceID != nil {
		args = append(args, *filter.WorkspaceID)
		where = ` WHERE workspace_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		if where == "" {
			where = ` WHERE`
		} else {
			where += ` AND`
		}
		where += ` status = $` + strconv.Itoa(len(args))
	}
	q += where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngestionJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (models.IngestionJob, error) {
	var (
		j       models.IngestionJob
		lastErr sql.NullString
	)
	err := r.Scan(
		&j.ID, &j.DocumentID, &j.WorkspaceID, &j.ProjectID, &j.StorageKey, &j.MimeType,
		&j.Status, &j.Stage, &j.RetryCount, &lastErr, &j.Version, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return models.IngestionJob{}, err
	}
	j.LastError = lastErr.String
	return j, nil
}

func (c *DatabaseClient) scanJobRow(row *sql.Row) (*models.IngestionJob, error) {
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
