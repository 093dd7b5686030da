package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicworks/civicd/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	role := u.Role
	if role == "" {
		role = models.RoleClient
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO users (full_name, email, password_hash, role, district, active, created) VALUES (?, ?, ?, ?, ?, 1, ?)`,
		u.FullName, u.Email, u.PasswordHash, role, u.District, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, role, district, active, created FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, role, district, active, created FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepo) SetUserActive(ctx context.Context, id int64, active bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET active = ? WHERE id = ?`, boolToInt(active), id)
	return err
}

func (r *SQLiteRepo) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var active int
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.District, &active, &u.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	u.Active = active != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
