package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/internal/domain"
	"github.com/vedran77/projectdesk/internal/repository"
)

const projectSelect = `
		SELECT p.id, p.name, p.status, p.start_date, p.assignee_id, p.created_at, p.updated_at,
		       u.name, u.email
		FROM projects p
		LEFT JOIN users u ON u.id = p.assignee_id`

type ProjectRepo struct {
	db DBTX
}

func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, projectSelect+" ORDER BY p.start_date DESC, p.id")
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := scanProject(r.db.QueryRowContext(ctx, projectSelect+" WHERE p.id = $1", id), &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

// Assign sets or clears (userID == nil) the project's assignee.
func (r *ProjectRepo) Assign(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID) error {
	var assignee uuid.NullUUID
	if userID != nil {
		assignee = uuid.NullUUID{UUID: *userID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET assignee_id = $1, updated_at = $2 WHERE id = $3`,
		assignee, time.Now().UTC(), projectID,
	)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return repository.ErrMissingReference
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanProject(row rowScanner, p *domain.Project) error {
	var (
		status        string
		assigneeID    uuid.NullUUID
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Name, &status, &p.StartDate, &assigneeID, &p.CreatedAt, &p.UpdatedAt,
		&assigneeName, &assigneeEmail,
	); err != nil {
		return err
	}
	p.Status = domain.ProjectStatus(status)
	if assigneeID.Valid {
		id := assigneeID.UUID
		p.AssigneeID = &id
		p.Assignee = &domain.ProjectAssignee{ID: id, Name: assigneeName.String, Email: assigneeEmail.String}
	}
	return nil
}
