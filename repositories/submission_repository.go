package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/competition-system/models"
)

var (
	ErrSubmissionNotFound          = errors.New("submission not found")
	ErrSubmissionConflict          = errors.New("team already submitted this assignment")
	ErrSubmissionAssignmentInvalid = errors.New("submission assignment reference is invalid")
	ErrSubmissionTeamInvalid       = errors.New("submission team reference is invalid")
)

type GradeUpdate struct {
	Grade    float64
	Feedback *string
	GraderID int
	GradedAt time.Time
}

type SubmissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id int) (*models.Submission, error)
	GetByAssignmentAndTeam(ctx context.Context, assignmentID, teamID int) (*models.Submission, error)
	ListByTeam(ctx context.Context, teamID int) ([]*models.Submission, error)
	// ListByAssignment returns submissions with team, leader and grader details.
	ListByAssignment(ctx context.Context, assignmentID int) ([]*models.Submission, error)
	ApplyGrade(ctx context.Context, exec SQLExecutor, id int, update GradeUpdate) (*models.Submission, error)
}

type postgresSubmissionRepository struct {
	db *sql.DB
}

func NewPostgresSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &postgresSubmissionRepository{db: db}
}

const submissionColumns = `id, assignment_id, team_id, submission_link, notes, status, grade, feedback, graded_by, submitted_at, graded_at`

func scanSubmission(row interface{ Scan(dest ...interface{}) error }, s *models.Submission) error {
	return row.Scan(
		&s.ID, &s.AssignmentID, &s.TeamID, &s.SubmissionLink, &s.Notes, &s.Status,
		&s.Grade, &s.Feedback, &s.GradedBy, &s.SubmittedAt, &s.GradedAt,
	)
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	query := `
		INSERT INTO submissions (assignment_id, team_id, submission_link, notes, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		s.AssignmentID, s.TeamID, s.SubmissionLink, s.Notes, s.Status, s.SubmittedAt,
	).Scan(&s.ID)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "submissions_assignment_id_team_id_key" {
					return ErrSubmissionConflict
				}
			case pqForeignKeyViolation:
				switch pqErr.Constraint {
				case "submissions_assignment_id_fkey":
					return ErrSubmissionAssignmentInvalid
				case "submissions_team_id_fkey":
					return ErrSubmissionTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *postgresSubmissionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Submission, error) {
	s := &models.Submission{}
	if err := scanSubmission(r.db.QueryRowContext(ctx, query, args...), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

func (r *postgresSubmissionRepository) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	return r.findOne(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
}

func (r *postgresSubmissionRepository) GetByAssignmentAndTeam(ctx context.Context, assignmentID, teamID int) (*models.Submission, error) {
	return r.findOne(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE assignment_id = $1 AND team_id = $2`,
		assignmentID, teamID)
}

func (r *postgresSubmissionRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Submission, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE team_id = $1 ORDER BY submitted_at ASC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for team %d: %w", teamID, err)
	}
	defer rows.Close()

	subs := make([]*models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func (r *postgresSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID int) ([]*models.Submission, error) {
	query := `
		SELECT
			s.id, s.assignment_id, s.team_id, s.submission_link, s.notes, s.status,
			s.grade, s.feedback, s.graded_by, s.submitted_at, s.graded_at,
			t.id, t.name, t.leader_id, t.status,
			l.id, l.first_name, l.last_name, l.email,
			g.id, g.first_name, g.last_name
		FROM submissions s
		JOIN teams t ON t.id = s.team_id
		JOIN users l ON l.id = t.leader_id
		LEFT JOIN users g ON g.id = s.graded_by
		WHERE s.assignment_id = $1
		ORDER BY s.submitted_at ASC`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for assignment %d: %w", assignmentID, err)
	}
	defer rows.Close()

	subs := make([]*models.Submission, 0)
	for rows.Next() {
		var s models.Submission
		var t models.Team
		var leader models.User
		var graderID sql.NullInt64
		var graderFirst, graderLast sql.NullString

		if err := rows.Scan(
			&s.ID, &s.AssignmentID, &s.TeamID, &s.SubmissionLink, &s.Notes, &s.Status,
			&s.Grade, &s.Feedback, &s.GradedBy, &s.SubmittedAt, &s.GradedAt,
			&t.ID, &t.Name, &t.LeaderID, &t.Status,
			&leader.ID, &leader.FirstName, &leader.LastName, &leader.Email,
			&graderID, &graderFirst, &graderLast,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}

		t.Leader = &leader
		s.Team = &t
		if graderID.Valid {
			s.Grader = &models.User{
				ID:        int(graderID.Int64),
				FirstName: graderFirst.String,
				LastName:  graderLast.String,
			}
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

// ApplyGrade sets grade, feedback, grader, graded_at and status in one statement.
func (r *postgresSubmissionRepository) ApplyGrade(ctx context.Context, exec SQLExecutor, id int, u GradeUpdate) (*models.Submission, error) {
	query := `
		UPDATE submissions SET
			grade = $1,
			feedback = $2,
			graded_by = $3,
			graded_at = $4,
			status = $5
		WHERE id = $6
		RETURNING ` + submissionColumns

	s := &models.Submission{}
	err := scanSubmission(pickExecutor(r.db, exec).QueryRowContext(ctx, query,
		u.Grade, u.Feedback, u.GraderID, u.GradedAt, models.SubmissionGraded, id,
	), s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to grade submission %d: %w", id, err)
	}
	return s, nil
}
