package service

import (
	"context"
	"testing"
	"time"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/rs/zerolog"
)

func TestMarkOverridesScannedStatus(t *testing.T) {
	f := newCheckinFixture(t)
	svc := NewAttendanceService(f.records, testConfig(), zerolog.Nop())

	// Student checked in present; staff later excuses the day entirely.
	if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi"); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	note := "school competition"
	rec, err := svc.Mark(context.Background(), 100, 7, f.clock.Now(), model.StatusExcused, 1, &note)
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if rec.Status != model.StatusExcused {
		t.Errorf("status = %s, want excused", rec.Status)
	}
	if rec.MarkedBy == nil || *rec.MarkedBy != 1 {
		t.Errorf("marked_by = %v, want 1", rec.MarkedBy)
	}
	if rec.Note == nil || *rec.Note != note {
		t.Errorf("note = %v, want %q", rec.Note, note)
	}
}

func TestMarkCanDowngrade(t *testing.T) {
	f := newCheckinFixture(t)
	svc := NewAttendanceService(f.records, testConfig(), zerolog.Nop())

	if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, 100, 7, "Budi"); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	// Manual corrections are not bound by the upgrade-only ladder.
	rec, err := svc.Mark(context.Background(), 100, 7, f.clock.Now(), model.StatusAbsent, 1, nil)
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if rec.Status != model.StatusAbsent {
		t.Errorf("status = %s, want absent", rec.Status)
	}
}

func TestLedgerListsClassDate(t *testing.T) {
	f := newCheckinFixture(t)
	svc := NewAttendanceService(f.records, testConfig(), zerolog.Nop())

	for _, studentID := range []int{100, 101, 102} {
		if _, err := f.svc.CheckIn(context.Background(), &f.sess.ID, f.sess.Code, studentID, 7, ""); err != nil {
			t.Fatalf("CheckIn %d: %v", studentID, err)
		}
	}

	records, err := svc.Ledger(context.Background(), 7, f.clock.Now())
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}

	empty, err := svc.Ledger(context.Background(), 8, f.clock.Now())
	if err != nil {
		t.Fatalf("Ledger for empty class: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("records for class 8 = %d, want 0", len(empty))
	}
}

// Mark and Ledger must agree on the date key regardless of the time of day
// passed in.
func TestMarkDateTruncation(t *testing.T) {
	f := newCheckinFixture(t)
	svc := NewAttendanceService(f.records, testConfig(), zerolog.Nop())

	afternoon := f.clock.Now().Add(6 * time.Hour)
	if _, err := svc.Mark(context.Background(), 100, 7, afternoon, model.StatusExcused, 1, nil); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	records, err := svc.Ledger(context.Background(), 7, f.clock.Now())
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
}
