package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrStageNotFound         = errors.New("stage not found")
	ErrStageSlugConflict     = errors.New("stage slug already exists")
	ErrStageSequenceConflict = errors.New("stage sequence already taken")
	ErrStageInUse            = errors.New("stage is referenced by progress entries or assignments")
)

type StageRepository interface {
	Create(ctx context.Context, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	GetBySlug(ctx context.Context, slug string) (*models.Stage, error)
	GetBySequence(ctx context.Context, exec SQLExecutor, sequence int) (*models.Stage, error)
	GetFirst(ctx context.Context, exec SQLExecutor) (*models.Stage, error)
	List(ctx context.Context) ([]models.Stage, error)
	Update(ctx context.Context, stage *models.Stage) error
	HasProgress(ctx context.Context, stageID int) (bool, error)
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `id, slug, name, sequence, starts_at, ends_at, created_at`

func scanStage(row interface{ Scan(dest ...interface{}) error }, s *models.Stage) error {
	return row.Scan(&s.ID, &s.Slug, &s.Name, &s.Sequence, &s.StartsAt, &s.EndsAt, &s.CreatedAt)
}

func (r *postgresStageRepository) Create(ctx context.Context, s *models.Stage) error {
	query := `
		INSERT INTO stages (slug, name, sequence, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, s.Slug, s.Name, s.Sequence, s.StartsAt, s.EndsAt).
		Scan(&s.ID, &s.CreatedAt)
	return r.handleStageError(err)
}

func (r *postgresStageRepository) findOne(ctx context.Context, exec SQLExecutor, where string, arg interface{}) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE ` + where
	s := &models.Stage{}
	if err := scanStage(pickExecutor(r.db, exec).QueryRowContext(ctx, query, arg), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	return r.findOne(ctx, nil, "id = $1", id)
}

func (r *postgresStageRepository) GetBySlug(ctx context.Context, slug string) (*models.Stage, error) {
	return r.findOne(ctx, nil, "slug = $1", slug)
}

func (r *postgresStageRepository) GetBySequence(ctx context.Context, exec SQLExecutor, sequence int) (*models.Stage, error) {
	return r.findOne(ctx, exec, "sequence = $1", sequence)
}

func (r *postgresStageRepository) GetFirst(ctx context.Context, exec SQLExecutor) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages ORDER BY sequence ASC LIMIT 1`
	s := &models.Stage{}
	if err := scanStage(pickExecutor(r.db, exec).QueryRowContext(ctx, query), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to get first stage: %w", err)
	}
	return s, nil
}

func (r *postgresStageRepository) List(ctx context.Context) ([]models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages ORDER BY sequence ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		var s models.Stage
		if err := scanStage(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) Update(ctx context.Context, s *models.Stage) error {
	query := `
		UPDATE stages SET
			slug = $1,
			name = $2,
			sequence = $3,
			starts_at = $4,
			ends_at = $5
		WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query, s.Slug, s.Name, s.Sequence, s.StartsAt, s.EndsAt, s.ID)
	if err != nil {
		return r.handleStageError(err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) HasProgress(ctx context.Context, stageID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM stage_progress WHERE stage_id = $1)`
	if err := r.db.QueryRowContext(ctx, query, stageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check stage %d usage: %w", stageID, err)
	}
	return exists, nil
}

func (r *postgresStageRepository) handleStageError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			switch pqErr.Constraint {
			case "stages_slug_key":
				return ErrStageSlugConflict
			case "stages_sequence_key":
				return ErrStageSequenceConflict
			}
		case pqForeignKeyViolation:
			return ErrStageInUse
		}
	}
	return err
}
