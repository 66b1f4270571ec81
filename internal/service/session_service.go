package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/code"
	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/metrics"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// activeCodeIndex is the partial unique index guaranteeing that a code is
// unique among all currently active sessions. A 23505 on it means the
// generator collided with a live code and the caller must draw again.
const activeCodeIndex = "attendance_sessions_active_code_idx"

// codeRetries bounds collision and CAS-race retries. With a 1e9 code space
// hitting this limit means something is broken, not unlucky.
const codeRetries = 5

// CodeInfo is the poll result for a session's current code.
type CodeInfo struct {
	SessionID        uuid.UUID `json:"session_id"`
	Code             string    `json:"code"`
	CodeIssuedAt     time.Time `json:"code_issued_at"`
	CodeExpiresAt    time.Time `json:"code_expires_at"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// SessionService owns the attendance session lifecycle: open, lazy code
// rotation, close. Rotation is driven by whoever polls CurrentCode — there
// is no background timer deciding code validity.
type SessionService struct {
	sessions SessionStore
	gen      *code.Generator
	rdb      *redis.Client
	cfg      *config.Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewSessionService creates a new SessionService. rdb may be nil; the Redis
// code cache is an optimization, never an authority.
func NewSessionService(sessions SessionStore, gen *code.Generator, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		gen:      gen,
		rdb:      rdb,
		cfg:      cfg,
		log:      log.With().Str("component", "session_service").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the service clock. Test seam.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Open creates the active session for (class, today). Exactly one open wins
// when two teachers (or two tabs) race: the partial unique index decides,
// and the loser gets ErrSessionConflict.
func (s *SessionService) Open(ctx context.Context, classID, teacherID int) (*model.AttendanceSession, error) {
	now := s.now()

	for attempt := 0; attempt < codeRetries; attempt++ {
		c, err := s.gen.Generate()
		if err != nil {
			return nil, wrapStorage("generate code", err)
		}

		sess := &model.AttendanceSession{
			ClassID:        classID,
			TeacherID:      teacherID,
			AttendanceDate: model.DateOf(now),
			StartedAt:      now,
			ExpiresAt:      now.Add(s.cfg.SessionDuration),
			Code:           c,
			CodeIssuedAt:   now,
			CodeExpiresAt:  now.Add(s.cfg.CodeRotation),
			Status:         model.SessionStatusActive,
		}

		cctx, cancel := s.storageCtx(ctx)
		err = s.sessions.Create(cctx, sess)
		cancel()
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionConflict
			}
			if isUniqueViolation(err, activeCodeIndex) {
				continue // another active session holds this code
			}
			return nil, wrapStorage("create session", err)
		}

		s.cacheCode(ctx, sess)
		metrics.SessionsOpened.Inc()
		s.log.Info().
			Str("session_id", sess.ID.String()).
			Int("class_id", classID).
			Int("teacher_id", teacherID).
			Time("expires_at", sess.ExpiresAt).
			Msg("Session opened")
		return sess, nil
	}

	return nil, wrapStorage("create session", errors.New("exhausted code collision retries"))
}

// CurrentCode returns the session's current code, rotating it first when the
// stored one has aged past the rotation interval. Concurrent pollers at the
// rotation boundary race on a compare-and-set over the old code value, so at
// most one of them rotates; the rest re-read the winner's code.
func (s *SessionService) CurrentCode(ctx context.Context, sessionID uuid.UUID) (*CodeInfo, error) {
	if info := s.cachedCode(ctx, sessionID); info != nil {
		return info, nil
	}

	cctx, cancel := s.storageCtx(ctx)
	sess, err := s.sessions.GetByID(cctx, sessionID)
	cancel()
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStorage("get session", err)
	}

	for attempt := 0; attempt < codeRetries; attempt++ {
		now := s.now()
		if !sess.AcceptingAt(now) {
			return nil, ErrSessionClosed
		}
		if sess.CodeFreshAt(now) {
			s.cacheCode(ctx, sess)
			return codeInfoOf(sess), nil
		}

		next, err := s.gen.Generate()
		if err != nil {
			return nil, wrapStorage("generate code", err)
		}
		issuedAt := now
		expiresAt := now.Add(s.cfg.CodeRotation)

		cctx, cancel := s.storageCtx(ctx)
		swapped, err := s.sessions.RotateCode(cctx, sess.ID, sess.Code, next, issuedAt, expiresAt)
		cancel()
		if err != nil {
			if isUniqueViolation(err, activeCodeIndex) {
				continue // collision with another active session's code
			}
			return nil, wrapStorage("rotate code", err)
		}

		if swapped {
			sess.Code = next
			sess.CodeIssuedAt = issuedAt
			sess.CodeExpiresAt = expiresAt
			metrics.CodeRotations.Inc()
			s.cacheCode(ctx, sess)
			return codeInfoOf(sess), nil
		}

		// A concurrent poller rotated (or the teacher closed) first.
		cctx, cancel = s.storageCtx(ctx)
		sess, err = s.sessions.GetByID(cctx, sess.ID)
		cancel()
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionNotFound
			}
			return nil, wrapStorage("get session", err)
		}
	}

	return nil, wrapStorage("rotate code", errors.New("exhausted rotation retries"))
}

// Close transitions an active session to CLOSED. Idempotent: closing an
// already-terminal session succeeds without effect. Returns the session's
// final state.
func (s *SessionService) Close(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceSession, error) {
	cctx, cancel := s.storageCtx(ctx)
	closed, err := s.sessions.MarkClosed(cctx, sessionID)
	cancel()
	if err != nil {
		return nil, wrapStorage("close session", err)
	}

	cctx, cancel = s.storageCtx(ctx)
	sess, err := s.sessions.GetByID(cctx, sessionID)
	cancel()
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStorage("get session", err)
	}

	if closed {
		s.dropCachedCode(ctx, sessionID)
		s.enqueueFinalize(ctx, sess)
		s.log.Info().Str("session_id", sessionID.String()).Msg("Session closed")
	}
	return sess, nil
}

// GetByID returns a session or ErrSessionNotFound.
func (s *SessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*model.AttendanceSession, error) {
	cctx, cancel := s.storageCtx(ctx)
	defer cancel()
	sess, err := s.sessions.GetByID(cctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStorage("get session", err)
	}
	return sess, nil
}

// ActiveForClass resolves the active session for (class, today), used when a
// student types a bare code instead of scanning the QR payload.
func (s *SessionService) ActiveForClass(ctx context.Context, classID int) (*model.AttendanceSession, error) {
	cctx, cancel := s.storageCtx(ctx)
	defer cancel()
	sess, err := s.sessions.GetActiveByClassDate(cctx, classID, model.DateOf(s.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, wrapStorage("get active session", err)
	}
	return sess, nil
}

// ListToday returns a teacher's sessions for today.
func (s *SessionService) ListToday(ctx context.Context, teacherID int) ([]model.AttendanceSession, error) {
	cctx, cancel := s.storageCtx(ctx)
	defer cancel()
	sessions, err := s.sessions.ListByTeacherDate(cctx, teacherID, model.DateOf(s.now()))
	if err != nil {
		return nil, wrapStorage("list sessions", err)
	}
	return sessions, nil
}

// IsAcceptingCheckIns reports whether the session accepts check-ins now.
func (s *SessionService) IsAcceptingCheckIns(sess *model.AttendanceSession) bool {
	return sess.AcceptingAt(s.now())
}

func (s *SessionService) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StorageTimeout)
}

func codeInfoOf(sess *model.AttendanceSession) *CodeInfo {
	return &CodeInfo{
		SessionID:        sess.ID,
		Code:             sess.Code,
		CodeIssuedAt:     sess.CodeIssuedAt,
		CodeExpiresAt:    sess.CodeExpiresAt,
		SessionExpiresAt: sess.ExpiresAt,
	}
}

// cacheCode stores the current code in Redis with a TTL bounded by both the
// code's rotation expiry and the session's overall expiry, so a cache hit is
// always a servable code. Best effort.
func (s *SessionService) cacheCode(ctx context.Context, sess *model.AttendanceSession) {
	if s.rdb == nil {
		return
	}
	ttl := codeCacheTTL(sess, s.now())
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(codeInfoOf(sess))
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.SessionCodeKey(sess.ID.String()), payload, ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Code cache write failed")
	}
}

func (s *SessionService) cachedCode(ctx context.Context, sessionID uuid.UUID) *CodeInfo {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, config.CacheKey.SessionCodeKey(sessionID.String())).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Code cache read failed")
		}
		return nil
	}
	var info CodeInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil
	}
	if !info.servableAt(s.now()) {
		return nil
	}
	return &info
}

// servableAt reports whether the cached code may be returned without hitting
// storage. Both bounds matter: the code must not have rotated out, and the
// session window must still be open. A rotation inside the final rotation
// interval leaves CodeExpiresAt past SessionExpiresAt, and the cached path
// must agree with the uncached one and stop serving at the session boundary.
func (i *CodeInfo) servableAt(now time.Time) bool {
	return now.Before(i.CodeExpiresAt) && now.Before(i.SessionExpiresAt)
}

// codeCacheTTL is the cache entry lifetime: whichever comes first of the
// code's rotation expiry and the session's overall expiry.
func codeCacheTTL(sess *model.AttendanceSession, now time.Time) time.Duration {
	until := sess.CodeExpiresAt
	if sess.ExpiresAt.Before(until) {
		until = sess.ExpiresAt
	}
	return until.Sub(now)
}

func (s *SessionService) dropCachedCode(ctx context.Context, sessionID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	s.rdb.Del(ctx, config.CacheKey.SessionCodeKey(sessionID.String()))
}

// finalizePayload is the queue message consumed by the finalize worker.
type finalizePayload struct {
	SessionID      string    `json:"session_id"`
	ClassID        int       `json:"class_id"`
	AttendanceDate time.Time `json:"attendance_date"`
}

func (s *SessionService) enqueueFinalize(ctx context.Context, sess *model.AttendanceSession) {
	if s.rdb == nil {
		return
	}
	payload, _ := json.Marshal(finalizePayload{
		SessionID:      sess.ID.String(),
		ClassID:        sess.ClassID,
		AttendanceDate: sess.AttendanceDate,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.FinalizeSessionQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Finalize enqueue failed")
	}
}

// isUniqueViolation reports whether err is a PostgreSQL 23505 on the given
// constraint (empty constraint matches any unique violation).
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
