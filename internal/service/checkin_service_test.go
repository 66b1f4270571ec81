package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hadirku/hadirku-backend/internal/code"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/rs/zerolog"
)

// checkinFixture wires a session service and a check-in service over shared
// fakes with a session already open for class 7 at 09:00.
type checkinFixture struct {
	clock    *fakeClock
	sessions *fakeSessionStore
	records  *fakeAttendanceStore
	sessSvc  *SessionService
	svc      *CheckInService
	sess     *model.AttendanceSession
}

func newCheckinFixture(t *testing.T) *checkinFixture {
	t.Helper()
	cfg := testConfig()
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	sessions := newFakeSessionStore()
	records := newFakeAttendanceStore()

	sessSvc := NewSessionService(sessions, code.NewGenerator(cfg.CodeLength), nil, cfg, zerolog.Nop()).WithClock(clock.Now)
	svc := NewCheckInService(sessions, records, nil, cfg, zerolog.Nop()).WithClock(clock.Now)

	sess, err := sessSvc.Open(context.Background(), 7, 1)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	return &checkinFixture{
		clock:    clock,
		sessions: sessions,
		records:  records,
		sessSvc:  sessSvc,
		svc:      svc,
		sess:     sess,
	}
}

// currentCode returns the live code, rotating first if it went stale.
func (f *checkinFixture) currentCode(t *testing.T) string {
	t.Helper()
	info, err := f.sessSvc.CurrentCode(context.Background(), f.sess.ID)
	if err != nil {
		t.Fatalf("current code: %v", err)
	}
	return info.Code
}

func TestCheckInWithinGraceIsPresent(t *testing.T) {
	f := newCheckinFixture(t)

	f.clock.Advance(2 * time.Minute)
	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("status = %s, want present", rec.Status)
	}
	if rec.CheckedInAt == nil || !rec.CheckedInAt.Equal(f.clock.Now()) {
		t.Errorf("checked_in_at = %v, want %v", rec.CheckedInAt, f.clock.Now())
	}
	if rec.SessionID == nil || *rec.SessionID != f.sess.ID {
		t.Errorf("session_id = %v, want %v", rec.SessionID, f.sess.ID)
	}
}

func TestCheckInAfterGraceIsLate(t *testing.T) {
	f := newCheckinFixture(t)

	// Grace is 10 minutes; the code must be refreshed past its rotation.
	f.clock.Advance(10*time.Minute + time.Second)
	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.currentCode(t), 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != model.StatusLate {
		t.Errorf("status = %s, want late", rec.Status)
	}
}

func TestCheckInGraceBoundary(t *testing.T) {
	f := newCheckinFixture(t)

	// Exactly at start+grace the check-in still counts as present; one
	// second past it does not.
	f.clock.Advance(10 * time.Minute)
	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.currentCode(t), 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn at boundary: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("status at boundary = %s, want present", rec.Status)
	}

	f.clock.Advance(time.Second)
	rec, err = f.svc.CheckIn(context.Background(), &f.sess.ID, f.currentCode(t), 101, 7, "Siti")
	if err != nil {
		t.Fatalf("CheckIn past boundary: %v", err)
	}
	if rec.Status != model.StatusLate {
		t.Errorf("status past boundary = %s, want late", rec.Status)
	}
}

func TestCheckInStaleCodeRejected(t *testing.T) {
	f := newCheckinFixture(t)
	stale := f.sess.Code

	// The student screenshots the QR at 09:00 and submits at 09:06, after
	// a poll rotated the code.
	f.clock.Advance(6 * time.Minute)
	fresh := f.currentCode(t)
	if fresh == stale {
		t.Fatal("expected rotation to issue a different code")
	}

	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, stale, 100, 7, "Budi")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("stale code error = %v, want ErrCodeMismatch", err)
	}

	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, fresh, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("fresh code CheckIn: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("status = %s, want present", rec.Status)
	}
}

func TestCheckInExpiredUnrotatedCodeRejected(t *testing.T) {
	f := newCheckinFixture(t)

	// Nobody polled, so the stored code is still the original one but has
	// aged past the rotation interval. It must not match its own value.
	f.clock.Advance(5*time.Minute + time.Second)
	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("aged code error = %v, want ErrCodeMismatch", err)
	}
}

func TestCheckInCodeNormalization(t *testing.T) {
	f := newCheckinFixture(t)

	submitted := "  " + f.sess.Code + " "
	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, submitted, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn with padded code: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("status = %s, want present", rec.Status)
	}
}

func TestCheckInWrongCode(t *testing.T) {
	f := newCheckinFixture(t)

	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, "ZZZZZZ", 100, 7, "Budi")
	if !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("wrong code error = %v, want ErrCodeMismatch", err)
	}
}

func TestCheckInNotEnrolled(t *testing.T) {
	f := newCheckinFixture(t)

	// Student of class 8 scans class 7's QR.
	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 200, 8, "Andi")
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("cross-class error = %v, want ErrNotEnrolled", err)
	}
}

func TestCheckInClosedSession(t *testing.T) {
	f := newCheckinFixture(t)

	if _, err := f.sessSvc.Close(context.Background(), f.sess.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("closed session error = %v, want ErrSessionClosed", err)
	}
}

func TestCheckInExpiredSession(t *testing.T) {
	f := newCheckinFixture(t)

	f.clock.Advance(time.Hour + time.Minute)
	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expired session error = %v, want ErrSessionClosed", err)
	}
}

func TestCheckInUnknownSession(t *testing.T) {
	f := newCheckinFixture(t)

	bogus := uuid.New()
	_, err := f.svc.CheckIn(context.Background(), &bogus, f.sess.Code, 100, 7, "Budi")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestCheckInTypedCodeResolvesClassSession(t *testing.T) {
	f := newCheckinFixture(t)

	// No session id: the engine resolves via (student's class, today).
	rec, err := f.svc.CheckIn(context.Background(), nil, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("typed CheckIn: %v", err)
	}
	if rec.SessionID == nil || *rec.SessionID != f.sess.ID {
		t.Errorf("resolved session = %v, want %v", rec.SessionID, f.sess.ID)
	}

	// A student of a class with no session today gets not-found, even with
	// a code that is live elsewhere.
	_, err = f.svc.CheckIn(context.Background(), nil, f.sess.Code, 200, 8, "Andi")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("typed cross-class error = %v, want ErrSessionNotFound", err)
	}
}

func TestCheckInIdempotent(t *testing.T) {
	f := newCheckinFixture(t)

	first, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("first CheckIn: %v", err)
	}

	// Re-scan a minute later: same record, same status, original timestamp.
	f.clock.Advance(time.Minute)
	second, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("second CheckIn: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-scan produced a different record: %d vs %d", first.ID, second.ID)
	}
	if second.Status != first.Status {
		t.Errorf("re-scan changed status: %s -> %s", first.Status, second.Status)
	}
	if !second.CheckedInAt.Equal(*first.CheckedInAt) {
		t.Errorf("re-scan moved checked_in_at: %v -> %v", first.CheckedInAt, second.CheckedInAt)
	}
}

func TestCheckInLateRescanStaysLate(t *testing.T) {
	f := newCheckinFixture(t)

	f.clock.Advance(11 * time.Minute)
	first, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.currentCode(t), 100, 7, "Budi")
	if err != nil {
		t.Fatalf("late CheckIn: %v", err)
	}
	if first.Status != model.StatusLate {
		t.Fatalf("status = %s, want late", first.Status)
	}

	f.clock.Advance(time.Minute)
	second, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.currentCode(t), 100, 7, "Budi")
	if err != nil {
		t.Fatalf("re-scan: %v", err)
	}
	if second.Status != model.StatusLate {
		t.Errorf("re-scan status = %s, want late", second.Status)
	}
}

func TestCheckInAfterAbsentMarkUpgradesToLate(t *testing.T) {
	f := newCheckinFixture(t)

	// Staff pre-marked the student absent, then the student shows up.
	markedBy := 1
	if _, err := f.records.Override(context.Background(), &model.AttendanceRecord{
		StudentID:      100,
		ClassID:        7,
		AttendanceDate: f.sess.AttendanceDate,
		Status:         model.StatusAbsent,
		MarkedBy:       &markedBy,
	}); err != nil {
		t.Fatalf("seed absent record: %v", err)
	}

	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != model.StatusLate {
		t.Errorf("status = %s, want late", rec.Status)
	}
}

func TestCheckInExcusedIsPreserved(t *testing.T) {
	f := newCheckinFixture(t)

	markedBy := 1
	if _, err := f.records.Override(context.Background(), &model.AttendanceRecord{
		StudentID:      100,
		ClassID:        7,
		AttendanceDate: f.sess.AttendanceDate,
		Status:         model.StatusExcused,
		MarkedBy:       &markedBy,
	}); err != nil {
		t.Fatalf("seed excused record: %v", err)
	}

	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if rec.Status != model.StatusExcused {
		t.Errorf("status = %s, want excused preserved", rec.Status)
	}
}

func TestCheckInConcurrentSameStudent(t *testing.T) {
	f := newCheckinFixture(t)

	const scans = 10
	var wg sync.WaitGroup
	recs := make([]*model.AttendanceRecord, scans)
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
			if err != nil {
				t.Errorf("scan %d: %v", i, err)
				return
			}
			recs[i] = rec
		}(i)
	}
	wg.Wait()

	records, err := f.records.ListByClassDate(context.Background(), 7, f.sess.AttendanceDate)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want exactly 1", len(records))
	}
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		if rec.ID != records[0].ID {
			t.Errorf("scan %d saw record %d, want %d", i, rec.ID, records[0].ID)
		}
	}
}

// TestCheckInRotationScenario walks the projector timeline: code issued at
// 09:00 with a 5 minute rotation, scans at 09:02, 09:04 with the original
// code succeed, 09:06 with the original fails, 09:06 with the refreshed
// code succeeds.
func TestCheckInRotationScenario(t *testing.T) {
	f := newCheckinFixture(t)
	original := f.sess.Code

	f.clock.Advance(2 * time.Minute) // 09:02
	if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, original, 100, 7, "Budi"); err != nil {
		t.Fatalf("09:02 scan: %v", err)
	}

	f.clock.Advance(2 * time.Minute) // 09:04
	if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, original, 101, 7, "Siti"); err != nil {
		t.Fatalf("09:04 scan: %v", err)
	}

	f.clock.Advance(2 * time.Minute) // 09:06
	if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, original, 102, 7, "Andi"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("09:06 scan with stale code: err = %v, want ErrCodeMismatch", err)
	}

	refreshed := f.currentCode(t)
	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, refreshed, 102, 7, "Andi")
	if err != nil {
		t.Fatalf("09:06 scan with fresh code: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("09:06 status = %s, want present (grace is 10 minutes)", rec.Status)
	}
}

func TestValidateDoesNotWrite(t *testing.T) {
	f := newCheckinFixture(t)

	if _, _, err := f.svc.Validate(context.Background(), &f.sess.ID, f.sess.Code, 100, 7); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	records, err := f.records.ListByClassDate(context.Background(), 7, f.sess.AttendanceDate)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Validate wrote %d records, want 0", len(records))
	}
}

func TestCheckInStorageTimeout(t *testing.T) {
	f := newCheckinFixture(t)

	f.clock.Advance(2 * time.Minute)
	f.records.upsertErr = context.DeadlineExceeded
	_, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if !errors.Is(err, ErrStorageTimeout) {
		t.Fatalf("CheckIn error = %v, want ErrStorageTimeout", err)
	}

	// Nothing was recorded, and the student's retry succeeds normally.
	records, err := f.records.ListByClassDate(context.Background(), 7, f.sess.AttendanceDate)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("timed-out check-in left %d records, want 0", len(records))
	}

	rec, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi")
	if err != nil {
		t.Fatalf("retried CheckIn: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("status = %s, want present", rec.Status)
	}
}
