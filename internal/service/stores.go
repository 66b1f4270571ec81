package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/model"
)

// The engine talks to persistence through these narrow interfaces so the
// session and check-in semantics can be exercised against in-memory fakes.
// The pgx repositories in internal/repository satisfy them; "not found" is
// always reported as pgx.ErrNoRows.

// SessionStore is the persistence surface for attendance sessions.
type SessionStore interface {
	Create(ctx context.Context, s *model.AttendanceSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSession, error)
	GetActiveByClassDate(ctx context.Context, classID int, date time.Time) (*model.AttendanceSession, error)
	RotateCode(ctx context.Context, id uuid.UUID, oldCode, newCode string, issuedAt, expiresAt time.Time) (bool, error)
	MarkClosed(ctx context.Context, id uuid.UUID) (bool, error)
	ListByTeacherDate(ctx context.Context, teacherID int, date time.Time) ([]model.AttendanceSession, error)
}

// AttendanceStore is the persistence surface for attendance records.
type AttendanceStore interface {
	Get(ctx context.Context, studentID, classID int, date time.Time) (*model.AttendanceRecord, error)
	Upsert(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error)
	Override(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error)
	ListByClassDate(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error)
}
