package service

import (
	"context"
	"time"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/rs/zerolog"
)

// AttendanceService handles the class ledger: manual marks by staff and
// listing. Manual marks bypass the upgrade-only rule that governs scans —
// staff may correct in either direction.
type AttendanceService struct {
	attendance AttendanceStore
	cfg        *config.Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(attendance AttendanceStore, cfg *config.Config, log zerolog.Logger) *AttendanceService {
	return &AttendanceService{
		attendance: attendance,
		cfg:        cfg,
		log:        log.With().Str("component", "attendance_service").Logger(),
		now:        time.Now,
	}
}

// Mark writes a manual attendance entry for (student, class, date). markedBy
// identifies the staff member; note is optional free text. Manual entries
// carry no session reference and no check-in timestamp.
func (s *AttendanceService) Mark(ctx context.Context, studentID, classID int, date time.Time, status model.AttendanceStatus, markedBy int, note *string) (*model.AttendanceRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()

	rec, err := s.attendance.Override(cctx, &model.AttendanceRecord{
		StudentID:      studentID,
		ClassID:        classID,
		AttendanceDate: model.DateOf(date),
		Status:         status,
		MarkedBy:       &markedBy,
		Note:           note,
	})
	if err != nil {
		return nil, wrapStorage("override attendance", err)
	}

	s.log.Info().
		Int("student_id", studentID).
		Int("class_id", classID).
		Str("status", string(status)).
		Int("marked_by", markedBy).
		Msg("Manual attendance mark")
	return rec, nil
}

// Ledger lists a class's attendance records for one date.
func (s *AttendanceService) Ledger(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()

	records, err := s.attendance.ListByClassDate(cctx, classID, model.DateOf(date))
	if err != nil {
		return nil, wrapStorage("list attendance", err)
	}
	return records, nil
}
