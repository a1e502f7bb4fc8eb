package models

import "time"

// ProgressStatus соответствует ENUM progress_status в БД.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressSubmitted  ProgressStatus = "submitted"
	ProgressApproved   ProgressStatus = "approved"
	ProgressRejected   ProgressStatus = "rejected"
)

func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressSubmitted, ProgressApproved, ProgressRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s ProgressStatus) IsTerminal() bool {
	return s == ProgressApproved || s == ProgressRejected
}

// ProgressEntry - статус команды на конкретном этапе. Не более одной записи на пару (team, stage).
type ProgressEntry struct {
	ID          int            `json:"id" db:"id"`
	TeamID      int            `json:"team_id" db:"team_id"`
	StageID     int            `json:"stage_id" db:"stage_id"`
	Status      ProgressStatus `json:"status" db:"status"`
	Notes       *string        `json:"notes,omitempty" db:"notes"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`

	Stage *Stage `json:"stage,omitempty" db:"-"`
}
