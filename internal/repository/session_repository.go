package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// sessionColumns is the SELECT list shared by all session reads.
const sessionColumns = `id, class_id, teacher_id, attendance_date, started_at, expires_at,
	 code, code_issued_at, code_expires_at, status, created_at, updated_at`

// SessionRepository handles attendance session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new active session. The partial unique index on
// (class_id, attendance_date) WHERE status = 'ACTIVE' is the arbiter:
// when another active session already exists for that class and date the
// insert is a no-op and Scan returns pgx.ErrNoRows, which the service maps
// to ErrSessionConflict. A duplicate active code surfaces as a 23505 on its
// own partial index and is retried by the caller with a fresh code.
func (r *SessionRepository) Create(ctx context.Context, s *model.AttendanceSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO attendance_sessions
		   (class_id, teacher_id, attendance_date, started_at, expires_at,
		    code, code_issued_at, code_expires_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (class_id, attendance_date) WHERE status = 'ACTIVE' DO NOTHING
		 RETURNING id, created_at, updated_at`,
		s.ClassID, s.TeacherID, s.AttendanceDate, s.StartedAt, s.ExpiresAt,
		s.Code, s.CodeIssuedAt, s.CodeExpiresAt, model.SessionStatusActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSession, error) {
	s := &model.AttendanceSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.ClassID, &s.TeacherID, &s.AttendanceDate, &s.StartedAt, &s.ExpiresAt,
		&s.Code, &s.CodeIssuedAt, &s.CodeExpiresAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActiveByClassDate retrieves the single active session for a class on a
// date, if any.
func (r *SessionRepository) GetActiveByClassDate(ctx context.Context, classID int, date time.Time) (*model.AttendanceSession, error) {
	s := &model.AttendanceSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions
		 WHERE class_id = $1 AND attendance_date = $2 AND status = 'ACTIVE'`,
		classID, date,
	).Scan(&s.ID, &s.ClassID, &s.TeacherID, &s.AttendanceDate, &s.StartedAt, &s.ExpiresAt,
		&s.Code, &s.CodeIssuedAt, &s.CodeExpiresAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RotateCode swaps the session's code for a new one using a compare-and-set
// on the old code value. Returns false if the session was rotated or closed
// by someone else in the meantime (zero rows matched); the caller re-reads.
// Rotation never touches expires_at.
func (r *SessionRepository) RotateCode(ctx context.Context, id uuid.UUID, oldCode, newCode string, issuedAt, expiresAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_sessions
		 SET code = $3, code_issued_at = $4, code_expires_at = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND code = $2 AND status = 'ACTIVE'`,
		id, oldCode, newCode, issuedAt, expiresAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkClosed transitions an ACTIVE session to CLOSED. Returns false when the
// session was already terminal, which callers treat as idempotent success.
func (r *SessionRepository) MarkClosed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_sessions
		 SET status = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND status = 'ACTIVE'`,
		id, model.SessionStatusClosed,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ExpireDue flips every ACTIVE session past its overall expiry to EXPIRED
// and returns the affected sessions so they can be finalized. Used by the
// sweep worker; code validity never depends on this housekeeping because
// validation re-derives freshness from expires_at on every call.
func (r *SessionRepository) ExpireDue(ctx context.Context, now time.Time) ([]model.AttendanceSession, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE attendance_sessions
		 SET status = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE status = 'ACTIVE' AND expires_at <= $1
		 RETURNING `+sessionColumns,
		now, model.SessionStatusExpired,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []model.AttendanceSession
	for rows.Next() {
		var s model.AttendanceSession
		if err := rows.Scan(&s.ID, &s.ClassID, &s.TeacherID, &s.AttendanceDate, &s.StartedAt, &s.ExpiresAt,
			&s.Code, &s.CodeIssuedAt, &s.CodeExpiresAt, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, s)
	}
	return expired, rows.Err()
}

// ListByTeacherDate retrieves a teacher's sessions for a date, newest first.
func (r *SessionRepository) ListByTeacherDate(ctx context.Context, teacherID int, date time.Time) ([]model.AttendanceSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM attendance_sessions
		 WHERE teacher_id = $1 AND attendance_date = $2
		 ORDER BY started_at DESC`,
		teacherID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AttendanceSession
	for rows.Next() {
		var s model.AttendanceSession
		if err := rows.Scan(&s.ID, &s.ClassID, &s.TeacherID, &s.AttendanceDate, &s.StartedAt, &s.ExpiresAt,
			&s.Code, &s.CodeIssuedAt, &s.CodeExpiresAt, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
