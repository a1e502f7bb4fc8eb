package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/competition-system/models"
	"github.com/lib/pq"
)

var (
	ErrProgressNotFound      = errors.New("progress entry not found")
	ErrProgressConflict      = errors.New("progress entry already exists for this team and stage")
	ErrProgressTeamInvalid   = errors.New("progress entry team reference is invalid")
	ErrProgressStageInvalid  = errors.New("progress entry stage reference is invalid")
	ErrProgressStatusInvalid = errors.New("progress entry status is invalid")
)

type ProgressRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.ProgressEntry) error
	// CreateIfAbsent inserts a not_started entry unless one already exists for
	// (team, stage). The existing or new entry is returned in both cases.
	CreateIfAbsent(ctx context.Context, exec SQLExecutor, teamID, stageID int) (*models.ProgressEntry, bool, error)
	GetByID(ctx context.Context, id int) (*models.ProgressEntry, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.ProgressEntry, error)
	GetByTeamAndStage(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.ProgressEntry, error)
	ListByStage(ctx context.Context, stageID int, status *models.ProgressStatus) ([]*models.ProgressEntry, error)
	// CompareAndSetStatus moves the entry to `to` only if its current status is
	// one of `from`. It reports false when the precondition no longer holds.
	CompareAndSetStatus(ctx context.Context, exec SQLExecutor, id int, from []models.ProgressStatus, to models.ProgressStatus, now time.Time) (bool, error)

	SeedOpenStages(ctx context.Context, now time.Time) (int64, error)
	ActivateOpenStages(ctx context.Context, now time.Time) (int64, error)
	ExpireClosedStages(ctx context.Context, now time.Time) (int64, error)
}

type postgresProgressRepository struct {
	db *sql.DB
}

func NewPostgresProgressRepository(db *sql.DB) ProgressRepository {
	return &postgresProgressRepository{db: db}
}

const progressColumns = `id, team_id, stage_id, status, notes, submitted_at, approved_at, created_at, updated_at`

func scanProgress(row interface{ Scan(dest ...interface{}) error }, p *models.ProgressEntry) error {
	return row.Scan(
		&p.ID, &p.TeamID, &p.StageID, &p.Status, &p.Notes,
		&p.SubmittedAt, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *postgresProgressRepository) Create(ctx context.Context, exec SQLExecutor, p *models.ProgressEntry) error {
	query := `
		INSERT INTO stage_progress (team_id, stage_id, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := pickExecutor(r.db, exec).QueryRowContext(ctx, query, p.TeamID, p.StageID, p.Status, p.Notes).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return r.handleProgressError(err)
}

func (r *postgresProgressRepository) CreateIfAbsent(ctx context.Context, exec SQLExecutor, teamID, stageID int) (*models.ProgressEntry, bool, error) {
	executor := pickExecutor(r.db, exec)
	query := `
		INSERT INTO stage_progress (team_id, stage_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, stage_id) DO NOTHING
		RETURNING ` + progressColumns

	p := &models.ProgressEntry{}
	err := scanProgress(executor.QueryRowContext(ctx, query, teamID, stageID, models.ProgressNotStarted), p)
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, r.handleProgressError(err)
	}

	// Запись уже существует: ON CONFLICT DO NOTHING ничего не вернул.
	existing := &models.ProgressEntry{}
	err = scanProgress(executor.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM stage_progress WHERE team_id = $1 AND stage_id = $2`,
		teamID, stageID), existing)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing progress for team %d stage %d: %w", teamID, stageID, err)
	}
	return existing, false, nil
}

func (r *postgresProgressRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.ProgressEntry, error) {
	p := &models.ProgressEntry{}
	if err := scanProgress(pickExecutor(r.db, exec).QueryRowContext(ctx, query, args...), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}
	return p, nil
}

func (r *postgresProgressRepository) GetByID(ctx context.Context, id int) (*models.ProgressEntry, error) {
	return r.findOne(ctx, nil, `SELECT `+progressColumns+` FROM stage_progress WHERE id = $1`, id)
}

func (r *postgresProgressRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.ProgressEntry, error) {
	return r.findOne(ctx, exec, `SELECT `+progressColumns+` FROM stage_progress WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresProgressRepository) GetByTeamAndStage(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error) {
	return r.findOne(ctx, nil,
		`SELECT `+progressColumns+` FROM stage_progress WHERE team_id = $1 AND stage_id = $2`,
		teamID, stageID)
}

func (r *postgresProgressRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ProgressEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.ProgressEntry, 0)
	for rows.Next() {
		var p models.ProgressEntry
		if err := scanProgress(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		entries = append(entries, &p)
	}
	return entries, rows.Err()
}

func (r *postgresProgressRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.ProgressEntry, error) {
	query := `
		SELECT p.id, p.team_id, p.stage_id, p.status, p.notes, p.submitted_at, p.approved_at, p.created_at, p.updated_at
		FROM stage_progress p
		JOIN stages s ON s.id = p.stage_id
		WHERE p.team_id = $1
		ORDER BY s.sequence ASC`
	return r.list(ctx, query, teamID)
}

func (r *postgresProgressRepository) ListByStage(ctx context.Context, stageID int, status *models.ProgressStatus) ([]*models.ProgressEntry, error) {
	var qb strings.Builder
	args := []interface{}{stageID}
	qb.WriteString(`SELECT ` + progressColumns + ` FROM stage_progress WHERE stage_id = $1`)
	if status != nil {
		qb.WriteString(" AND status = $2")
		args = append(args, *status)
	}
	qb.WriteString(" ORDER BY created_at ASC")
	return r.list(ctx, qb.String(), args...)
}

func (r *postgresProgressRepository) CompareAndSetStatus(ctx context.Context, exec SQLExecutor, id int, from []models.ProgressStatus, to models.ProgressStatus, now time.Time) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}

	var submittedAt, approvedAt *time.Time
	switch to {
	case models.ProgressSubmitted:
		submittedAt = &now
	case models.ProgressApproved:
		approvedAt = &now
	}

	query := `
		UPDATE stage_progress SET
			status = $1,
			submitted_at = COALESCE($2, submitted_at),
			approved_at = COALESCE($3, approved_at),
			updated_at = $4
		WHERE id = $5 AND status = ANY($6)`

	result, err := pickExecutor(r.db, exec).ExecContext(ctx, query,
		to, submittedAt, approvedAt, now, id, pq.Array(fromStrs),
	)
	if err != nil {
		return false, r.handleProgressError(err)
	}
	n, err := affectedRows(result)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeedOpenStages creates not_started placeholders for approved teams in every
// stage whose window contains now. A missing starts_at counts as already open. A placeholder for a later stage is only
// created when the team already has the preceding stage approved.
func (r *postgresProgressRepository) SeedOpenStages(ctx context.Context, now time.Time) (int64, error) {
	query := `
		INSERT INTO stage_progress (team_id, stage_id, status, created_at, updated_at)
		SELECT t.id, s.id, $2, $1, $1
		FROM stages s
		CROSS JOIN teams t
		WHERE t.status = $3
			AND (s.starts_at IS NULL OR s.starts_at <= $1)
			AND (s.ends_at IS NULL OR s.ends_at >= $1)
			AND (
				s.sequence = (SELECT MIN(sequence) FROM stages)
				OR EXISTS (
					SELECT 1 FROM stage_progress prev
					JOIN stages ps ON ps.id = prev.stage_id
					WHERE prev.team_id = t.id AND ps.sequence = s.sequence - 1 AND prev.status = $4
				)
			)
		ON CONFLICT (team_id, stage_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, now, models.ProgressNotStarted, models.TeamStatusApproved, models.ProgressApproved)
	if err != nil {
		return 0, fmt.Errorf("failed to seed progress for open stages: %w", err)
	}
	return affectedRows(result)
}

// ActivateOpenStages is a single bulk UPDATE; concurrent runs see rows that
// already left not_started and skip them.
func (r *postgresProgressRepository) ActivateOpenStages(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE stage_progress p SET status = $2, updated_at = $1
		FROM stages s
		WHERE p.stage_id = s.id
			AND p.status = $3
			AND (s.starts_at IS NULL OR s.starts_at <= $1)
			AND (s.ends_at IS NULL OR s.ends_at >= $1)`

	result, err := r.db.ExecContext(ctx, query, now, models.ProgressInProgress, models.ProgressNotStarted)
	if err != nil {
		return 0, fmt.Errorf("failed to activate progress for open stages: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresProgressRepository) ExpireClosedStages(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE stage_progress p SET status = $2, updated_at = $1
		FROM stages s
		WHERE p.stage_id = s.id
			AND p.status = $3
			AND s.ends_at IS NOT NULL AND s.ends_at < $1`

	result, err := r.db.ExecContext(ctx, query, now, models.ProgressRejected, models.ProgressInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to expire progress for closed stages: %w", err)
	}
	return affectedRows(result)
}

func (r *postgresProgressRepository) handleProgressError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "stage_progress_team_id_stage_id_key" {
				return ErrProgressConflict
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "stage_progress_team_id_fkey":
				return ErrProgressTeamInvalid
			case "stage_progress_stage_id_fkey":
				return ErrProgressStageInvalid
			}
		case pqCheckViolation:
			return ErrProgressStatusInvalid
		}
	}
	return fmt.Errorf("progress repository: %w", err)
}
