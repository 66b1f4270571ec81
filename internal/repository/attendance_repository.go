package repository

import (
	"context"
	"time"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, student_id, class_id, session_id, attendance_date, status,
	 checked_in_at, marked_by, note, created_at, updated_at`

// AttendanceRepository handles attendance record data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Get retrieves the record for a (student, class, date), or pgx.ErrNoRows.
func (r *AttendanceRepository) Get(ctx context.Context, studentID, classID int, date time.Time) (*model.AttendanceRecord, error) {
	rec := &model.AttendanceRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+`
		 FROM attendance_records
		 WHERE student_id = $1 AND class_id = $2 AND attendance_date = $3`,
		studentID, classID, date,
	).Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.SessionID, &rec.AttendanceDate, &rec.Status,
		&rec.CheckedInAt, &rec.MarkedBy, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert writes an accepted check-in. The unique constraint on
// (student_id, class_id, attendance_date) makes concurrent check-ins for
// the same key collapse onto one row; inside the DO UPDATE the status only
// moves up the absent < late < present ladder and checked_in_at keeps the
// first writer's value. The resulting row is returned either way.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	out := &model.AttendanceRecord{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records
		   (student_id, class_id, session_id, attendance_date, status, checked_in_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (student_id, class_id, attendance_date) DO UPDATE SET
		   status = CASE
		     WHEN (CASE EXCLUDED.status WHEN 'absent' THEN 0 WHEN 'late' THEN 1 WHEN 'present' THEN 2 WHEN 'excused' THEN 3 ELSE -1 END)
		        > (CASE attendance_records.status WHEN 'absent' THEN 0 WHEN 'late' THEN 1 WHEN 'present' THEN 2 WHEN 'excused' THEN 3 ELSE -1 END)
		     THEN EXCLUDED.status
		     ELSE attendance_records.status
		   END,
		   session_id    = COALESCE(attendance_records.session_id, EXCLUDED.session_id),
		   checked_in_at = COALESCE(attendance_records.checked_in_at, EXCLUDED.checked_in_at),
		   updated_at    = CURRENT_TIMESTAMP
		 RETURNING `+recordColumns,
		rec.StudentID, rec.ClassID, rec.SessionID, rec.AttendanceDate, rec.Status, rec.CheckedInAt,
	).Scan(&out.ID, &out.StudentID, &out.ClassID, &out.SessionID, &out.AttendanceDate, &out.Status,
		&out.CheckedInAt, &out.MarkedBy, &out.Note, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Override writes a manual staff mark. Unlike Upsert it sets the status
// unconditionally — staff corrections may downgrade — and records who made
// the change and why.
func (r *AttendanceRepository) Override(ctx context.Context, rec *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	out := &model.AttendanceRecord{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records
		   (student_id, class_id, session_id, attendance_date, status, checked_in_at, marked_by, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (student_id, class_id, attendance_date) DO UPDATE SET
		   status     = EXCLUDED.status,
		   marked_by  = EXCLUDED.marked_by,
		   note       = EXCLUDED.note,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING `+recordColumns,
		rec.StudentID, rec.ClassID, rec.SessionID, rec.AttendanceDate, rec.Status, rec.CheckedInAt, rec.MarkedBy, rec.Note,
	).Scan(&out.ID, &out.StudentID, &out.ClassID, &out.SessionID, &out.AttendanceDate, &out.Status,
		&out.CheckedInAt, &out.MarkedBy, &out.Note, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByClassDate retrieves a class's ledger for one date, ordered by
// student name via join.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID int, date time.Time) ([]model.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.student_id, r.class_id, r.session_id, r.attendance_date, r.status,
		        r.checked_in_at, r.marked_by, r.note, r.created_at, r.updated_at
		 FROM attendance_records r
		 JOIN students s ON s.id = r.student_id
		 WHERE r.class_id = $1 AND r.attendance_date = $2
		 ORDER BY s.name`,
		classID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.SessionID, &rec.AttendanceDate, &rec.Status,
			&rec.CheckedInAt, &rec.MarkedBy, &rec.Note, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// InsertAbsentees creates an absent record for every student of the class
// who has no record for the date yet. Existing rows are left alone. Returns
// the number of rows written. Used when a session is finalized.
func (r *AttendanceRepository) InsertAbsentees(ctx context.Context, classID int, date time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_records (student_id, class_id, attendance_date, status)
		 SELECT s.id, s.class_id, $2, 'absent'
		 FROM students s
		 WHERE s.class_id = $1
		 ON CONFLICT (student_id, class_id, attendance_date) DO NOTHING`,
		classID, date,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
