package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/metrics"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CheckInService turns a submitted code into an attendance record. The
// caller resolves identity and role at the boundary and passes plain facts
// (studentID, classID); the service enforces everything else.
type CheckInService struct {
	sessions   SessionStore
	attendance AttendanceStore
	rdb        *redis.Client
	cfg        *config.Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewCheckInService creates a new CheckInService. rdb may be nil; the live
// monitor feed is best effort.
func NewCheckInService(sessions SessionStore, attendance AttendanceStore, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *CheckInService {
	return &CheckInService{
		sessions:   sessions,
		attendance: attendance,
		rdb:        rdb,
		cfg:        cfg,
		log:        log.With().Str("component", "checkin_service").Logger(),
		now:        time.Now,
	}
}

// WithClock replaces the service clock. Test seam.
func (s *CheckInService) WithClock(now func() time.Time) *CheckInService {
	s.now = now
	return s
}

// MonitorEvent is published on the session's Redis channel for every
// accepted check-in so the teacher's live view updates without polling.
type MonitorEvent struct {
	SessionID   string                 `json:"session_id"`
	StudentID   int                    `json:"student_id"`
	StudentName string                 `json:"student_name,omitempty"`
	Status      model.AttendanceStatus `json:"status"`
	CheckedInAt time.Time              `json:"checked_in_at"`
}

// Validate decides accept/reject for a submitted code without writing
// anything. sessionID is nil for typed entry, in which case the active
// session for (student's class, today) is the target. On accept it returns
// the session and the attendance status the record should carry.
func (s *CheckInService) Validate(ctx context.Context, sessionID *uuid.UUID, submittedCode string, studentID, studentClassID int) (*model.AttendanceSession, model.AttendanceStatus, error) {
	now := s.now()

	sess, err := s.resolveSession(ctx, sessionID, studentClassID, now)
	if err != nil {
		return nil, "", err
	}

	if !sess.AcceptingAt(now) {
		return nil, "", ErrSessionClosed
	}

	// A code that aged past the rotation interval matches nothing, not even
	// its own stale value; either side of a rotation race is therefore
	// unambiguous.
	submitted := strings.ToUpper(strings.TrimSpace(submittedCode))
	if submitted != sess.Code || !sess.CodeFreshAt(now) {
		return nil, "", ErrCodeMismatch
	}

	if sess.ClassID != studentClassID {
		return nil, "", ErrNotEnrolled
	}

	status, err := s.resolveStatus(ctx, sess, studentID, now)
	if err != nil {
		return nil, "", err
	}
	return sess, status, nil
}

// Record upserts the accepted check-in. At most one record exists per
// (student, class, date): a re-scan updates in place, the first writer keeps
// the check-in timestamp, and the status never moves down the ladder.
func (s *CheckInService) Record(ctx context.Context, studentID int, sess *model.AttendanceSession, status model.AttendanceStatus, now time.Time) (*model.AttendanceRecord, error) {
	sid := sess.ID
	cctx, cancel := s.storageCtx(ctx)
	defer cancel()
	rec, err := s.attendance.Upsert(cctx, &model.AttendanceRecord{
		StudentID:      studentID,
		ClassID:        sess.ClassID,
		SessionID:      &sid,
		AttendanceDate: sess.AttendanceDate,
		Status:         status,
		CheckedInAt:    &now,
	})
	if err != nil {
		return nil, wrapStorage("upsert attendance", err)
	}
	return rec, nil
}

// CheckIn is the full scan path: validate, record, publish. The returned
// record's status is the authoritative one (idempotent re-scans return the
// stored status, which Validate already equalized).
func (s *CheckInService) CheckIn(ctx context.Context, sessionID *uuid.UUID, submittedCode string, studentID, studentClassID int, studentName string) (*model.AttendanceRecord, error) {
	start := time.Now()
	defer func() {
		metrics.CheckinDuration.Observe(time.Since(start).Seconds())
	}()

	sess, status, err := s.Validate(ctx, sessionID, submittedCode, studentID, studentClassID)
	if err != nil {
		metrics.CheckinsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	rec, err := s.Record(ctx, studentID, sess, status, s.now())
	if err != nil {
		metrics.CheckinsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	metrics.CheckinsAccepted.WithLabelValues(string(rec.Status)).Inc()
	s.publish(ctx, sess, rec, studentName)
	s.log.Info().
		Str("session_id", sess.ID.String()).
		Int("student_id", studentID).
		Str("status", string(rec.Status)).
		Msg("Check-in accepted")
	return rec, nil
}

// resolveSession finds the target session: explicit id from a QR scan, or
// the active session for the student's class when the code was typed.
func (s *CheckInService) resolveSession(ctx context.Context, sessionID *uuid.UUID, studentClassID int, now time.Time) (*model.AttendanceSession, error) {
	cctx, cancel := s.storageCtx(ctx)
	defer cancel()

	if sessionID != nil {
		sess, err := s.sessions.GetByID(cctx, *sessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, wrapStorage("get session", err)
		}
		return sess, nil
	}

	sess, err := s.sessions.GetActiveByClassDate(cctx, studentClassID, model.DateOf(now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStorage("get active session", err)
	}
	return sess, nil
}

// resolveStatus picks the attendance status for an accepted check-in:
//   - existing present/late/excused record: idempotent, same status again
//   - existing absent record: the student showed up after being marked
//     absent, so late
//   - no record: present within the grace period after session start,
//     late beyond it
func (s *CheckInService) resolveStatus(ctx context.Context, sess *model.AttendanceSession, studentID int, now time.Time) (model.AttendanceStatus, error) {
	cctx, cancel := s.storageCtx(ctx)
	existing, err := s.attendance.Get(cctx, studentID, sess.ClassID, sess.AttendanceDate)
	cancel()
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", wrapStorage("get attendance", err)
	}

	if existing != nil {
		if existing.Status == model.StatusAbsent {
			return model.StatusLate, nil
		}
		return existing.Status, nil
	}

	if now.After(sess.StartedAt.Add(s.cfg.GracePeriod)) {
		return model.StatusLate, nil
	}
	return model.StatusPresent, nil
}

func (s *CheckInService) publish(ctx context.Context, sess *model.AttendanceSession, rec *model.AttendanceRecord, studentName string) {
	if s.rdb == nil {
		return
	}
	checkedInAt := s.now()
	if rec.CheckedInAt != nil {
		checkedInAt = *rec.CheckedInAt
	}
	payload, _ := json.Marshal(MonitorEvent{
		SessionID:   sess.ID.String(),
		StudentID:   rec.StudentID,
		StudentName: studentName,
		Status:      rec.Status,
		CheckedInAt: checkedInAt,
	})
	if err := s.rdb.Publish(ctx, config.CacheKey.SessionMonitorChannel(sess.ID.String()), payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Monitor publish failed")
	}
}

func (s *CheckInService) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StorageTimeout)
}

// rejectReason maps engine errors onto stable metric label values.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrStorageTimeout):
		return "storage_timeout"
	default:
		return "internal"
	}
}
