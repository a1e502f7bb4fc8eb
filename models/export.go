package models

import "time"

// ExportRow - плоская строка выгрузки сданных работ по заданию.
type ExportRow struct {
	Team        string           `json:"team"`
	Leader      string           `json:"leader"`
	Link        string           `json:"link"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Status      SubmissionStatus `json:"status"`
	Grade       *float64         `json:"grade"`
	IsLate      bool             `json:"is_late"`
	Grader      string           `json:"grader,omitempty"`
	GradedAt    *time.Time       `json:"graded_at,omitempty"`
}

// NewExportRow projects a submission loaded with its team, leader and grader.
func NewExportRow(s *Submission, deadline time.Time) ExportRow {
	row := ExportRow{
		Link:        s.SubmissionLink,
		SubmittedAt: s.SubmittedAt,
		Status:      s.Status,
		Grade:       s.Grade,
		IsLate:      s.IsLateFor(deadline),
		GradedAt:    s.GradedAt,
	}
	if s.Team != nil {
		row.Team = s.Team.Name
		if s.Team.Leader != nil {
			row.Leader = s.Team.Leader.FullName()
		}
	}
	if s.Grader != nil {
		row.Grader = s.Grader.FullName()
	}
	return row
}
