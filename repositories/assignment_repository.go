package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrAssignmentStageInvalid = errors.New("assignment stage reference is invalid")
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *models.Assignment) error
	GetByID(ctx context.Context, id int) (*models.Assignment, error)
	ListByStage(ctx context.Context, stageID int, activeOnly bool) ([]models.Assignment, error)
	Update(ctx context.Context, a *models.Assignment) error
	SetActive(ctx context.Context, id int, active bool) error
}

type postgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &postgresAssignmentRepository{db: db}
}

const assignmentColumns = `id, stage_id, title, description, instructions, deadline, is_active, created_by, created_at, updated_at`

func scanAssignment(row interface{ Scan(dest ...interface{}) error }, a *models.Assignment) error {
	return row.Scan(
		&a.ID, &a.StageID, &a.Title, &a.Description, &a.Instructions,
		&a.Deadline, &a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (r *postgresAssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (stage_id, title, description, instructions, deadline, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.StageID, a.Title, a.Description, a.Instructions, a.Deadline, a.IsActive, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return r.handleAssignmentError(err)
}

func (r *postgresAssignmentRepository) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	a := &models.Assignment{}
	err := scanAssignment(r.db.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id), a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment %d: %w", id, err)
	}
	return a, nil
}

// ListByStage returns assignments ordered by deadline, earliest first.
func (r *postgresAssignmentRepository) ListByStage(ctx context.Context, stageID int, activeOnly bool) ([]models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE stage_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY deadline ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	assignments := make([]models.Assignment, 0)
	for rows.Next() {
		var a models.Assignment
		if err := scanAssignment(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *postgresAssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	query := `
		UPDATE assignments SET
			stage_id = $1,
			title = $2,
			description = $3,
			instructions = $4,
			deadline = $5,
			is_active = $6,
			updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.StageID, a.Title, a.Description, a.Instructions, a.Deadline, a.IsActive, a.ID,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAssignmentNotFound
	}
	return r.handleAssignmentError(err)
}

func (r *postgresAssignmentRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE assignments SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to toggle assignment %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrAssignmentNotFound)
}

func (r *postgresAssignmentRepository) handleAssignmentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
		if pqErr.Constraint == "assignments_stage_id_fkey" {
			return ErrAssignmentStageInvalid
		}
	}
	return fmt.Errorf("assignment repository: %w", err)
}
