package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrMaterialNotFound     = errors.New("course material not found")
	ErrMaterialStageInvalid = errors.New("course material stage reference is invalid")
)

type MaterialRepository interface {
	Create(ctx context.Context, m *models.CourseMaterial) error
	GetByID(ctx context.Context, id int) (*models.CourseMaterial, error)
	ListByStage(ctx context.Context, stageID int) ([]models.CourseMaterial, error)
	UpdateFileKey(ctx context.Context, id int, fileKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresMaterialRepository struct {
	db *sql.DB
}

func NewPostgresMaterialRepository(db *sql.DB) MaterialRepository {
	return &postgresMaterialRepository{db: db}
}

func (r *postgresMaterialRepository) Create(ctx context.Context, m *models.CourseMaterial) error {
	query := `
		INSERT INTO course_materials (stage_id, title, description, file_key, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, m.StageID, m.Title, m.Description, m.FileKey, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == "course_materials_stage_id_fkey" {
			return ErrMaterialStageInvalid
		}
		return fmt.Errorf("failed to create course material: %w", err)
	}
	return nil
}

func (r *postgresMaterialRepository) GetByID(ctx context.Context, id int) (*models.CourseMaterial, error) {
	query := `SELECT id, stage_id, title, description, file_key, created_by, created_at FROM course_materials WHERE id = $1`
	var m models.CourseMaterial
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.StageID, &m.Title, &m.Description, &m.FileKey, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMaterialNotFound
		}
		return nil, fmt.Errorf("failed to get course material %d: %w", id, err)
	}
	return &m, nil
}

func (r *postgresMaterialRepository) ListByStage(ctx context.Context, stageID int) ([]models.CourseMaterial, error) {
	query := `
		SELECT id, stage_id, title, description, file_key, created_by, created_at
		FROM course_materials
		WHERE stage_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course materials for stage %d: %w", stageID, err)
	}
	defer rows.Close()

	materials := make([]models.CourseMaterial, 0)
	for rows.Next() {
		var m models.CourseMaterial
		if err := rows.Scan(&m.ID, &m.StageID, &m.Title, &m.Description, &m.FileKey, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

func (r *postgresMaterialRepository) UpdateFileKey(ctx context.Context, id int, fileKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE course_materials SET file_key = $1 WHERE id = $2`, fileKey, id)
	if err != nil {
		return fmt.Errorf("failed to update course material file key: %w", err)
	}
	return checkAffectedRows(result, ErrMaterialNotFound)
}

func (r *postgresMaterialRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM course_materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete course material %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMaterialNotFound)
}
