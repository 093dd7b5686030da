package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/civicworks/civicd/pkg/models"
)

func (r *SQLiteRepo) CreateWorker(ctx context.Context, w *models.Worker) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("worker is nil")
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO workers (user_id, department_id, daily_task_count) VALUES (?, ?, 0)`,
		w.UserID, w.DepartmentID)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT w.id, w.user_id, w.department_id, w.daily_task_count, u.district, u.active
		 FROM workers w JOIN users u ON u.id = w.user_id
		 WHERE w.id = ?`, id)
	return scanWorker(row)
}

func (r *SQLiteRepo) GetWorkerByUser(ctx context.Context, userID int64) (*models.Worker, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT w.id, w.user_id, w.department_id, w.daily_task_count, u.district, u.active
		 FROM workers w JOIN users u ON u.id = w.user_id
		 WHERE w.user_id = ?`, userID)
	return scanWorker(row)
}

func (r *SQLiteRepo) ActiveWorkers(ctx context.Context, departmentID int64, district string) ([]models.Worker, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT w.id, w.user_id, w.department_id, w.daily_task_count, u.district, u.active
		 FROM workers w JOIN users u ON u.id = w.user_id
		 WHERE w.department_id = ? AND u.district = ? AND u.active = 1
		 ORDER BY w.id ASC`, departmentID, district)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		var w models.Worker
		var active int
		if err := rows.Scan(&w.ID, &w.UserID, &w.DepartmentID, &w.DailyTaskCount, &w.District, &active); err != nil {
			return nil, err
		}

		w.Active = active != 0
		out = append(out, w)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountAssigned(ctx context.Context, workerID int64) (int64, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE assigned_worker_id = ? AND status = ?`,
		workerID, models.StatusAssigned)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) ResetDailyCounts(ctx context.Context) (int64, error) {
	res, err := r.conn.Exec(ctx, `UPDATE workers SET daily_task_count = 0 WHERE daily_task_count <> 0`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeactivateWorker flags the owning user inactive, reverts the worker's open
// reports to pending and zeroes the advisory counter, all in one transaction.
func (r *SQLiteRepo) DeactivateWorker(ctx context.Context, workerID int64) (int64, error) {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET active = 0 WHERE id = (SELECT user_id FROM workers WHERE id = ?)`, workerID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE reports SET status = ?, assigned_worker_id = NULL, updated = ?
		 WHERE assigned_worker_id = ? AND status IN (?, ?)`,
		models.StatusPending, now(), workerID, models.StatusPending, models.StatusAssigned)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	reverted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workers SET daily_task_count = 0 WHERE id = ?`, workerID); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return reverted, nil
}

func scanWorker(row *sql.Row) (*models.Worker, error) {
	var w models.Worker
	var active int
	if err := row.Scan(&w.ID, &w.UserID, &w.DepartmentID, &w.DailyTaskCount, &w.District, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	w.Active = active != 0
	return &w, nil
}
