package repository

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, nisn, name, class_id, password_hash, created_at, updated_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.NISN, &s.Name, &s.ClassID, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByNISN retrieves a student by their national student number.
func (r *StudentRepository) GetByNISN(ctx context.Context, nisn string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, nisn, name, class_id, password_hash, created_at, updated_at
		 FROM students WHERE nisn = $1`, nisn,
	).Scan(&s.ID, &s.NISN, &s.Name, &s.ClassID, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByClass retrieves all students of a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID int) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, nisn, name, class_id, password_hash, created_at, updated_at
		 FROM students WHERE class_id = $1 ORDER BY name`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.NISN, &s.Name, &s.ClassID, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (nisn, name, class_id, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.NISN, s.Name, s.ClassID, s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update modifies a student's profile fields.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET nisn = $1, name = $2, class_id = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		s.NISN, s.Name, s.ClassID, s.ID,
	)
	return err
}

// UpdatePassword replaces a student's password hash.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	return err
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return err
}
