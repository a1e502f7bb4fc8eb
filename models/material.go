package models

import "time"

type CourseMaterial struct {
	ID          int       `json:"id" db:"id"`
	StageID     int       `json:"stage_id" db:"stage_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	FileKey     *string   `json:"-" db:"file_key"`
	FileURL     *string   `json:"file_url,omitempty" db:"-"`
	CreatedBy   int       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
