package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/civicworks/civicd/pkg/models"
)

func (r *SQLiteRepo) CreateDepartment(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("department name is empty")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO departments (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name FROM departments WHERE name = ? COLLATE NOCASE`, name)
	return scanDepartment(row)
}

func (r *SQLiteRepo) FindDepartmentLike(ctx context.Context, fragment string) (*models.Department, error) {
	// LIKE is case-insensitive for ASCII in sqlite
	row := r.conn.QueryRow(ctx, `SELECT id, name FROM departments WHERE name LIKE ? ORDER BY id ASC LIMIT 1`, "%"+fragment+"%")
	return scanDepartment(row)
}

func (r *SQLiteRepo) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, name FROM departments ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

func scanDepartment(row *sql.Row) (*models.Department, error) {
	var d models.Department
	if err := row.Scan(&d.ID, &d.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &d, nil
}
