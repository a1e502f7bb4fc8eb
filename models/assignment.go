package models

import "time"

type Assignment struct {
	ID           int       `json:"id" db:"id"`
	StageID      int       `json:"stage_id" db:"stage_id"`
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Instructions *string   `json:"instructions,omitempty" db:"instructions"`
	Deadline     time.Time `json:"deadline" db:"deadline"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedBy    int       `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (a Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.Deadline)
}

// IsOpen - задание активно и дедлайн ещё не прошёл.
func (a Assignment) IsOpen(now time.Time) bool {
	return a.IsActive && !a.IsOverdue(now)
}

// AssignmentView is an assignment as a team sees it, with the derived flags
// and the team's own submission if there is one.
type AssignmentView struct {
	Assignment
	IsOverdue  bool        `json:"is_overdue"`
	IsOpen     bool        `json:"is_open"`
	Submission *Submission `json:"submission,omitempty"`
}

func NewAssignmentView(a Assignment, now time.Time) AssignmentView {
	return AssignmentView{
		Assignment: a,
		IsOverdue:  a.IsOverdue(now),
		IsOpen:     a.IsOpen(now),
	}
}
