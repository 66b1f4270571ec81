package repository

import (
	"context"

	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TeacherRepository handles teacher account data access.
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// GetByID retrieves a teacher by ID.
func (r *TeacherRepository) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM teachers WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByEmail retrieves a teacher by login email.
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at
		 FROM teachers WHERE email = $1`, email,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO teachers (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Email, t.PasswordHash,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// UpdatePassword replaces a teacher's password hash.
func (r *TeacherRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE teachers SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		passwordHash, id,
	)
	return err
}
