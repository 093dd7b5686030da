package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/civicworks/civicd/pkg/models"
)

const reportColumns = `id, public_id, title, description, problem_type, district, longitude, latitude, priority, status, user_id, assigned_worker_id, created, updated`

func (r *SQLiteRepo) CreateReport(ctx context.Context, rep *models.Report) (int64, error) {
	if rep == nil {
		return 0, fmt.Errorf("report is nil")
	}

	status := rep.Status
	if status == "" {
		status = models.StatusPending
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO reports (public_id, title, description, problem_type, district, longitude, latitude, priority, status, user_id, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.PublicID, rep.Title, rep.Description, rep.ProblemType, rep.District,
		rep.Longitude, rep.Latitude, rep.Priority, status, rep.UserID, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

func (r *SQLiteRepo) ListPendingByPriority(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE status = ? ORDER BY priority DESC, created ASC LIMIT ?`,
		models.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReports(rows)
}

func (r *SQLiteRepo) ListReportsByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = ? ORDER BY created DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReports(rows)
}

func (r *SQLiteRepo) ListReportsByWorker(ctx context.Context, workerID int64) ([]models.Report, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE assigned_worker_id = ? ORDER BY priority DESC, created ASC`,
		workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReports(rows)
}

func (r *SQLiteRepo) ListReportsByDistrict(ctx context.Context, district string, limit, offset int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE district = ? ORDER BY created DESC LIMIT ? OFFSET ?`,
		district, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectReports(rows)
}

// CountPendingNear prefilters with a bounding box in SQL and applies the
// exact haversine distance to the candidates.
func (r *SQLiteRepo) CountPendingNear(ctx context.Context, lon, lat, radiusMeters float64) (int64, error) {
	latDelta := radiusMeters / metersPerDegreeLat
	lonScale := math.Cos(lat * math.Pi / 180)
	lonDelta := 180.0
	if math.Abs(lonScale) > 1e-6 {
		lonDelta = radiusMeters / (metersPerDegreeLat * math.Abs(lonScale))
	}

	rows, err := r.conn.QueryRows(ctx,
		`SELECT longitude, latitude FROM reports
		 WHERE status = ? AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		models.StatusPending, lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var plon, plat float64
		if err := rows.Scan(&plon, &plat); err != nil {
			return 0, err
		}
		if haversineMeters(lat, lon, plat, plon) <= radiusMeters {
			count++
		}
	}

	return count, rows.Err()
}

// AssignReport is the orchestrator's single write path. The conditional
// UPDATE guarantees at-most-one assignment per report even if two runs pick
// the same batch; the advisory counter increment rides the same transaction.
func (r *SQLiteRepo) AssignReport(ctx context.Context, reportID, workerID int64) (bool, error) {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE reports SET status = ?, assigned_worker_id = ?, updated = ? WHERE id = ? AND status = ?`,
		models.StatusAssigned, workerID, now(), reportID, models.StatusPending)
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if affected == 0 {
		// no longer pending; nothing to do
		_ = tx.Rollback()
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workers SET daily_task_count = daily_task_count + 1 WHERE id = ?`, workerID); err != nil {
		_ = tx.Rollback()
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

func (r *SQLiteRepo) TransitionStatus(ctx context.Context, reportID int64, from, to models.ReportStatus) (bool, error) {
	var res sql.Result
	var err error
	if to == models.StatusPending {
		// administrative revert also clears the worker reference
		res, err = r.conn.Exec(ctx,
			`UPDATE reports SET status = ?, assigned_worker_id = NULL, updated = ? WHERE id = ? AND status = ?`,
			to, now(), reportID, from)
	} else {
		res, err = r.conn.Exec(ctx,
			`UPDATE reports SET status = ?, updated = ? WHERE id = ? AND status = ?`,
			to, now(), reportID, from)
	}
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *SQLiteRepo) ReassignReport(ctx context.Context, reportID, fromWorker, toWorker int64) (bool, error) {
	res, err := r.conn.Exec(ctx,
		`UPDATE reports SET assigned_worker_id = ?, updated = ? WHERE id = ? AND status = ? AND assigned_worker_id = ?`,
		toWorker, now(), reportID, models.StatusAssigned, fromWorker)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

const (
	metersPerDegreeLat = 111320.0
	earthRadiusMeters  = 6371000.0
)

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

func scanReport(row *sql.Row) (*models.Report, error) {
	var rep models.Report
	var desc sql.NullString
	var worker sql.NullInt64
	if err := row.Scan(&rep.ID, &rep.PublicID, &rep.Title, &desc, &rep.ProblemType, &rep.District,
		&rep.Longitude, &rep.Latitude, &rep.Priority, &rep.Status, &rep.UserID, &worker, &rep.Created, &rep.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if desc.Valid {
		rep.Description = desc.String
	}
	if worker.Valid {
		id := worker.Int64
		rep.AssignedWorkerID = &id
	}

	return &rep, nil
}

func collectReports(rows *sql.Rows) ([]models.Report, error) {
	var out []models.Report
	for rows.Next() {
		var rep models.Report
		var desc sql.NullString
		var worker sql.NullInt64
		if err := rows.Scan(&rep.ID, &rep.PublicID, &rep.Title, &desc, &rep.ProblemType, &rep.District,
			&rep.Longitude, &rep.Latitude, &rep.Priority, &rep.Status, &rep.UserID, &worker, &rep.Created, &rep.Updated); err != nil {
			return nil, err
		}

		if desc.Valid {
			rep.Description = desc.String
		}
		if worker.Valid {
			id := worker.Int64
			rep.AssignedWorkerID = &id
		}

		out = append(out, rep)
	}

	return out, rows.Err()
}
