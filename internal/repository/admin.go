package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quizadmin/quiz-admin-server/internal/model"
)

type AdminRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	// CreateIfNotExists inserts the admin unless the email is taken.
	// It reports whether a row was inserted.
	CreateIfNotExists(ctx context.Context, email, passwordHash string) (bool, error)
}

type adminRepo struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		SELECT id, email, password_hash FROM admins WHERE id = $1
	`, id)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	err := r.db.GetContext(ctx, &admin, `
		SELECT id, email, password_hash FROM admins WHERE email = $1
	`, email)
	return HandleNotFound(&admin, err)
}

func (r *adminRepo) CreateIfNotExists(ctx context.Context, email, passwordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
