package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory stores mirroring the PostgreSQL constraint behavior the pgx
// repositories rely on: the conditional insert reports a conflict as
// pgx.ErrNoRows, a live-code collision as a 23505 on the active-code index,
// and the attendance upsert moves status only up the rank ladder.

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.AttendanceSession

	// createErr, when set, is returned by the next Create call.
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*model.AttendanceSession)}
}

func copySession(s *model.AttendanceSession) *model.AttendanceSession {
	c := *s
	return &c
}

func (f *fakeSessionStore) Create(ctx context.Context, s *model.AttendanceSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}

	for _, existing := range f.sessions {
		if existing.Status != model.SessionStatusActive {
			continue
		}
		if existing.ClassID == s.ClassID && existing.AttendanceDate.Equal(s.AttendanceDate) {
			return pgx.ErrNoRows
		}
		if existing.Code == s.Code {
			return &pgconn.PgError{Code: "23505", ConstraintName: activeCodeIndex}
		}
	}

	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.sessions[s.ID] = copySession(s)
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*model.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copySession(s), nil
}

func (f *fakeSessionStore) GetActiveByClassDate(ctx context.Context, classID int, date time.Time) (*model.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.Status == model.SessionStatusActive && s.ClassID == classID && s.AttendanceDate.Equal(date) {
			return copySession(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionStore) RotateCode(ctx context.Context, id uuid.UUID, oldCode, newCode string, issuedAt, expiresAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Code != oldCode || s.Status != model.SessionStatusActive {
		return false, nil
	}
	for _, other := range f.sessions {
		if other.ID != id && other.Status == model.SessionStatusActive && other.Code == newCode {
			return false, &pgconn.PgError{Code: "23505", ConstraintName: activeCodeIndex}
		}
	}
	s.Code = newCode
	s.CodeIssuedAt = issuedAt
	s.CodeExpiresAt = expiresAt
	s.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeSessionStore) MarkClosed(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Status != model.SessionStatusActive {
		return false, nil
	}
	s.Status = model.SessionStatusClosed
	s.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeSessionStore) ListByTeacherDate(ctx context.Context, teacherID int, date time.Time) ([]model.AttendanceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AttendanceSession
	for _, s := range f.sessions {
		if s.TeacherID == teacherID && s.AttendanceDate.Equal(date) {
			out = append(out, *copySession(s))
		}
	}
	return out, nil
}

type recordKey struct {
	studentID int
	classID   int
	date      int64
}

type fakeAttendanceStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[recordKey]*model.AttendanceRecord

	// upsertErr, when set, is returned by the next Upsert call.
	upsertErr error
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{records: make(map[recordKey]*model.AttendanceRecord)}
}

func keyOf(studentID, classID int, date time.Time) recordKey {
	return recordKey{studentID: studentID, classID: classID, date: date.Unix()}
}

func copyRecord(r *model.AttendanceRecord) *model.AttendanceRecord {
	c := *r
	return &c
}

func (f *fakeAttendanceStore) Get(ctx context.Context, studentID, classID int, date time.Time) (*model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[keyOf(studentID, classID, date)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyRecord(r), nil
}

func (f *fakeAttendanceStore) Upsert(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertErr != nil {
		err := f.upsertErr
		f.upsertErr = nil
		return nil, err
	}

	k := keyOf(rec.StudentID, rec.ClassID, rec.AttendanceDate)
	existing, ok := f.records[k]
	if !ok {
		f.nextID++
		stored := copyRecord(rec)
		stored.ID = f.nextID
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
		f.records[k] = stored
		return copyRecord(stored), nil
	}

	if rec.Status.Rank() > existing.Status.Rank() {
		existing.Status = rec.Status
	}
	if existing.SessionID == nil {
		existing.SessionID = rec.SessionID
	}
	if existing.CheckedInAt == nil {
		existing.CheckedInAt = rec.CheckedInAt
	}
	existing.UpdatedAt = time.Now()
	return copyRecord(existing), nil
}

func (f *fakeAttendanceStore) Override(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := keyOf(rec.StudentID, rec.ClassID, rec.AttendanceDate)
	existing, ok := f.records[k]
	if !ok {
		f.nextID++
		stored := copyRecord(rec)
		stored.ID = f.nextID
		stored.CreatedAt = time.Now()
		stored.UpdatedAt = stored.CreatedAt
		f.records[k] = stored
		return copyRecord(stored), nil
	}

	existing.Status = rec.Status
	existing.MarkedBy = rec.MarkedBy
	existing.Note = rec.Note
	existing.UpdatedAt = time.Now()
	return copyRecord(existing), nil
}

func (f *fakeAttendanceStore) ListByClassDate(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range f.records {
		if r.ClassID == classID && r.AttendanceDate.Equal(date) {
			out = append(out, *copyRecord(r))
		}
	}
	return out, nil
}

// fakeClock is a settable clock shared by a service and its test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
