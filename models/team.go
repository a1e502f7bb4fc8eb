package models

import "time"

type TeamStatus string

const (
	TeamStatusPending  TeamStatus = "pending"
	TeamStatusApproved TeamStatus = "approved"
	TeamStatusRejected TeamStatus = "rejected"
)

const MaxTeamMembers = 3

type Team struct {
	ID        int        `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	LeaderID  int        `json:"leader_id" db:"leader_id"`
	Status    TeamStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	Leader  *User        `json:"leader,omitempty" db:"-"`
	Members []TeamMember `json:"members,omitempty" db:"-"`
}

// TeamMember - дополнительный участник команды (кроме лидера).
type TeamMember struct {
	ID     int     `json:"id" db:"id"`
	TeamID int     `json:"team_id" db:"team_id"`
	Name   string  `json:"name" db:"name"`
	Email  *string `json:"email,omitempty" db:"email"`
}

func (s TeamStatus) IsValid() bool {
	switch s {
	case TeamStatusPending, TeamStatusApproved, TeamStatusRejected:
		return true
	}
	return false
}
