package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greenviz_backend/internal/projects/domain"
	"greenviz_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectNotFoundMsg = "project not found"
const leadNotFoundMsg = "lead not found"

const uniqueViolationCode = "23505"

// Repository provides database operations for projects and leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new projects repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `
	id, original_image_url, generated_image_url, analysis, estimation,
	user_description, lead_email, status, metadata, error_message,
	created_at, updated_at
`

func (r *Repository) Create(ctx context.Context, project *domain.Project) error {
	analysis, err := marshalJSON(project.Analysis)
	if err != nil {
		return err
	}
	estimation, err := marshalJSON(project.Estimation)
	if err != nil {
		return err
	}
	metadata, err := json.Marshal(project.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		project.ID,
		project.OriginalImageURL,
		project.GeneratedImageURL,
		analysis,
		estimation,
		project.UserDescription,
		project.LeadEmail,
		string(project.Status),
		metadata,
		project.ErrorMessage,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, project *domain.Project) error {
	analysis, err := marshalJSON(project.Analysis)
	if err != nil {
		return err
	}
	estimation, err := marshalJSON(project.Estimation)
	if err != nil {
		return err
	}

	query := `
		UPDATE projects SET
			generated_image_url = $2,
			analysis = $3,
			estimation = $4,
			lead_email = $5,
			status = $6,
			error_message = $7,
			updated_at = $8
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		project.ID,
		project.GeneratedImageURL,
		analysis,
		estimation,
		project.LeadEmail,
		string(project.Status),
		project.ErrorMessage,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(projectNotFoundMsg)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(projectNotFoundMsg)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

func (r *Repository) ListByLeadEmail(ctx context.Context, email string) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE lead_email = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list projects by email: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *Repository) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + `
		FROM projects
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at ASC`

	rows, err := r.pool.Query(ctx, query,
		string(domain.StatusAnalyzing), string(domain.StatusGenerating), cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale projects: %w", err)
	}
	defer rows.Close()

	return collectProjects(rows)
}

// =============================================================================
// Leads
// =============================================================================

const leadColumns = `
	id, email, project_id, metadata, created_at,
	email_sent, email_sent_at, calendly_clicked, calendly_clicked_at,
	pdf_downloaded, pdf_downloaded_at
`

func (r *Repository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	metadata, err := json.Marshal(lead.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		lead.ID,
		lead.Email,
		lead.ProjectID,
		metadata,
		lead.CreatedAt,
		lead.EmailSent,
		lead.EmailSentAt,
		lead.CalendlyClicked,
		lead.CalendlyClickedAt,
		lead.PDFDownloaded,
		lead.PDFDownloadedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperr.Conflict("a lead already exists for this project and email")
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *Repository) UpdateLead(ctx context.Context, lead *domain.Lead) error {
	query := `
		UPDATE leads SET
			email_sent = $2,
			email_sent_at = $3,
			calendly_clicked = $4,
			calendly_clicked_at = $5,
			pdf_downloaded = $6,
			pdf_downloaded_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.EmailSent,
		lead.EmailSentAt,
		lead.CalendlyClicked,
		lead.CalendlyClickedAt,
		lead.PDFDownloaded,
		lead.PDFDownloadedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

func (r *Repository) GetLeadByProjectID(ctx context.Context, projectID uuid.UUID) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE project_id = $1`

	var lead domain.Lead
	var metadata []byte
	err := r.pool.QueryRow(ctx, query, projectID).Scan(
		&lead.ID,
		&lead.Email,
		&lead.ProjectID,
		&metadata,
		&lead.CreatedAt,
		&lead.EmailSent,
		&lead.EmailSentAt,
		&lead.CalendlyClicked,
		&lead.CalendlyClickedAt,
		&lead.PDFDownloaded,
		&lead.PDFDownloadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMsg)
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}

	if err := json.Unmarshal(metadata, &lead.Metadata); err != nil {
		return nil, fmt.Errorf("decode lead metadata: %w", err)
	}
	return &lead, nil
}

// =============================================================================
// Scan helpers
// =============================================================================

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	var status string
	var analysis, estimation, metadata []byte

	err := row.Scan(
		&p.ID,
		&p.OriginalImageURL,
		&p.GeneratedImageURL,
		&analysis,
		&estimation,
		&p.UserDescription,
		&p.LeadEmail,
		&status,
		&metadata,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.Status(status)
	if err := unmarshalJSON(analysis, &p.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if err := unmarshalJSON(estimation, &p.Estimation); err != nil {
		return nil, fmt.Errorf("decode estimation: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]*domain.Project, error) {
	var projects []*domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// marshalJSON encodes a nullable struct pointer to JSON, keeping SQL NULL
// for nil values.
func marshalJSON(v interface{}) (interface{}, error) {
	if v == nil || isNilPointer(v) {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func isNilPointer(v interface{}) bool {
	switch ptr := v.(type) {
	case *domain.Analysis:
		return ptr == nil
	case *domain.Estimation:
		return ptr == nil
	}
	return false
}

func unmarshalJSON[T any](data []byte, target **T) error {
	if len(data) == 0 {
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*target = &value
	return nil
}
