package models

import "time"

// SubmissionStatus хранится в БД. Просрочка (late) не хранится, а вычисляется через IsLateFor.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionGraded  SubmissionStatus = "graded"
)

const (
	MinGrade = 0
	MaxGrade = 100
)

type Submission struct {
	ID             int              `json:"id" db:"id"`
	AssignmentID   int              `json:"assignment_id" db:"assignment_id"`
	TeamID         int              `json:"team_id" db:"team_id"`
	SubmissionLink string           `json:"submission_link" db:"submission_link"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	Status         SubmissionStatus `json:"status" db:"status"`
	Grade          *float64         `json:"grade,omitempty" db:"grade"`
	Feedback       *string          `json:"feedback,omitempty" db:"feedback"`
	GradedBy       *int             `json:"graded_by,omitempty" db:"graded_by"`
	SubmittedAt    time.Time        `json:"submitted_at" db:"submitted_at"`
	GradedAt       *time.Time       `json:"graded_at,omitempty" db:"graded_at"`

	IsLate bool  `json:"is_late" db:"-"`
	Team   *Team `json:"team,omitempty" db:"-"`
	Grader *User `json:"grader,omitempty" db:"-"`
}

// IsLateFor is the single lateness rule used by listings and exports.
func (s Submission) IsLateFor(deadline time.Time) bool {
	return s.SubmittedAt.After(deadline)
}
