package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus enumerates attendance record states.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

// Valid reports whether the status is one of the four known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Rank orders statuses for the upgrade-only rule on automated writes:
// absent < late < present. Excused sits outside the ladder — it is set only
// by staff and never overwritten by a scan.
func (s AttendanceStatus) Rank() int {
	switch s {
	case StatusAbsent:
		return 0
	case StatusLate:
		return 1
	case StatusPresent:
		return 2
	case StatusExcused:
		return 3
	}
	return -1
}

// AttendanceRecord is the single attendance row for a (student, class, date).
// SessionID and CheckedInAt are nil for manual entries; MarkedBy is nil for
// self-service scans.
type AttendanceRecord struct {
	ID             int64            `json:"id"`
	StudentID      int              `json:"student_id"`
	ClassID        int              `json:"class_id"`
	SessionID      *uuid.UUID       `json:"session_id,omitempty"`
	AttendanceDate time.Time        `json:"attendance_date"`
	Status         AttendanceStatus `json:"status"`
	CheckedInAt    *time.Time       `json:"checked_in_at,omitempty"`
	MarkedBy       *int             `json:"marked_by,omitempty"`
	Note           *string          `json:"note,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
