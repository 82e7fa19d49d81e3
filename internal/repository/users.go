package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/blueharbor/divebook/internal/domain"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, is_active, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         domain.Role
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*domain.User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.FirstName, arg.LastName, arg.Email, arg.PasswordHash, arg.Role,
	)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}
