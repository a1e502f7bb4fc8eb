package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamLeaderConflict = errors.New("user already leads a team")
	ErrTeamLeaderInvalid  = errors.New("team leader reference is invalid")
)

type ListTeamsFilter struct {
	Status *models.TeamStatus
	Limit  int
	Offset int
}

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	AddMember(ctx context.Context, exec SQLExecutor, member *models.TeamMember) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByLeaderID(ctx context.Context, leaderID int) (*models.Team, error)
	ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
	List(ctx context.Context, filter ListTeamsFilter) ([]models.Team, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, leader_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := pickExecutor(r.db, exec).QueryRowContext(ctx, query, team.Name, team.LeaderID, team.Status).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				switch pqErr.Constraint {
				case "teams_name_key":
					return ErrTeamNameConflict
				case "teams_leader_id_key":
					return ErrTeamLeaderConflict
				}
			case pqForeignKeyViolation:
				return ErrTeamLeaderInvalid
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, m *models.TeamMember) error {
	query := `INSERT INTO team_members (team_id, name, email) VALUES ($1, $2, $3) RETURNING id`
	if err := pickExecutor(r.db, exec).QueryRowContext(ctx, query, m.TeamID, m.Name, m.Email).Scan(&m.ID); err != nil {
		if pqErr, ok := asPQError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

const teamColumns = `id, name, leader_id, status, created_at, updated_at`

func (r *postgresTeamRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.Team, error) {
	var t models.Team
	err := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE `+where, arg).
		Scan(&t.ID, &t.Name, &t.LeaderID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *postgresTeamRepository) GetByLeaderID(ctx context.Context, leaderID int) (*models.Team, error) {
	return r.findOne(ctx, "leader_id = $1", leaderID)
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, team_id, name, email FROM team_members WHERE team_id = $1 ORDER BY id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) List(ctx context.Context, filter ListTeamsFilter) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.LeaderID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TeamStatus) error {
	query := `UPDATE teams SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := pickExecutor(r.db, exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update team status: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
