package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates attendance session states.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "ACTIVE"
	SessionStatusClosed  SessionStatus = "CLOSED"
	SessionStatusExpired SessionStatus = "EXPIRED"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusClosed || s == SessionStatusExpired
}

// AttendanceSession is a teacher-opened, time-boxed check-in window for one
// class on one date. The current code rotates; ExpiresAt is the absolute
// deadline after which no check-in is accepted regardless of rotation.
type AttendanceSession struct {
	ID             uuid.UUID     `json:"id"`
	ClassID        int           `json:"class_id"`
	TeacherID      int           `json:"teacher_id"`
	AttendanceDate time.Time     `json:"attendance_date"`
	StartedAt      time.Time     `json:"started_at"`
	ExpiresAt      time.Time     `json:"expires_at"`
	Code           string        `json:"-"`
	CodeIssuedAt   time.Time     `json:"-"`
	CodeExpiresAt  time.Time     `json:"-"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// AcceptingAt reports whether the session accepts check-ins at the given
// instant: it must be ACTIVE and before its overall expiry. Code freshness
// is a separate, narrower check.
func (s *AttendanceSession) AcceptingAt(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// CodeFreshAt reports whether the stored code is still within its rotation
// window at the given instant. An expired code matches nothing, including
// its own stale value.
func (s *AttendanceSession) CodeFreshAt(now time.Time) bool {
	return now.Before(s.CodeExpiresAt)
}

// DateOf truncates a timestamp to its calendar date in the same location.
// All (class, date) and (student, class, date) uniqueness keys use this.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
