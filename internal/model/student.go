package model

import "time"

// Student represents a student account. ClassID is the student's enrollment:
// a student may only check in to sessions opened for their own class.
type Student struct {
	ID           int       `json:"id"`
	NISN         string    `json:"nisn"`
	Name         string    `json:"name"`
	ClassID      int       `json:"class_id"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
