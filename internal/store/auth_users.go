package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type AuthUser struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	LastLoginAt  pgtype.Timestamptz
	LastLoginIP  string
	CreatedAt    time.Time
}

const authUserColumns = `id, email, password_hash, role, is_active, last_login_at, COALESCE(last_login_ip, ''), created_at`

const getAuthUser = `
SELECT ` + authUserColumns + ` FROM auth_users WHERE id = $1
`

func (q *Queries) GetAuthUser(ctx context.Context, id int64) (AuthUser, error) {
	var u AuthUser
	err := q.db.QueryRow(ctx, getAuthUser, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP, &u.CreatedAt)
	return u, err
}

const getAuthUserByEmail = `
SELECT ` + authUserColumns + ` FROM auth_users WHERE email = $1
`

func (q *Queries) GetAuthUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var u AuthUser
	err := q.db.QueryRow(ctx, getAuthUserByEmail, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP, &u.CreatedAt)
	return u, err
}

const countAuthUsers = `SELECT COUNT(*) FROM auth_users`

func (q *Queries) CountAuthUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countAuthUsers).Scan(&n)
	return n, err
}

const countAuthAdmins = `SELECT COUNT(*) FROM auth_users WHERE role = 'admin' AND is_active`

func (q *Queries) CountAuthAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countAuthAdmins).Scan(&n)
	return n, err
}

type CreateAuthUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
}

const createAuthUser = `
INSERT INTO auth_users (email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4)
RETURNING ` + authUserColumns

func (q *Queries) CreateAuthUser(ctx context.Context, arg CreateAuthUserParams) (AuthUser, error) {
	var u AuthUser
	err := q.db.QueryRow(ctx, createAuthUser, arg.Email, arg.PasswordHash, arg.Role, arg.IsActive).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.LastLoginAt, &u.LastLoginIP, &u.CreatedAt)
	return u, err
}

type UpdateAuthUserLoginMetaParams struct {
	ID          int64
	LastLoginAt pgtype.Timestamptz
	LastLoginIP string
}

const updateAuthUserLoginMeta = `
UPDATE auth_users SET last_login_at = $2, last_login_ip = NULLIF($3, '') WHERE id = $1
`

func (q *Queries) UpdateAuthUserLoginMeta(ctx context.Context, arg UpdateAuthUserLoginMetaParams) error {
	_, err := q.db.Exec(ctx, updateAuthUserLoginMeta, arg.ID, arg.LastLoginAt, arg.LastLoginIP)
	return err
}
