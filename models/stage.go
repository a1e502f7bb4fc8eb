package models

import "time"

// Stage - упорядоченный этап соревнования (registration, preliminary, semifinal, final).
type Stage struct {
	ID        int        `json:"id" db:"id"`
	Slug      string     `json:"slug" db:"slug"`
	Name      string     `json:"name" db:"name"`
	Sequence  int        `json:"sequence" db:"sequence"`
	StartsAt  *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// WindowContains reports whether now lies inside the stage window.
// Отсутствующая граница считается открытой: этап без starts_at открыт сразу.
func (s Stage) WindowContains(now time.Time) bool {
	if s.StartsAt != nil && now.Before(*s.StartsAt) {
		return false
	}
	return s.EndsAt == nil || !now.After(*s.EndsAt)
}
