package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

// Store is an in-memory implementation of the repository interfaces used by
// unit tests. All methods are safe for concurrent use. The error fields allow
// injecting failures for specific calls.
type Store struct {
	mu sync.Mutex

	users       map[int64]*models.User
	departments map[int64]*models.Department
	workers     map[int64]*models.Worker
	reports     map[int64]*models.Report

	nextUser   int64
	nextDept   int64
	nextWorker int64
	nextReport int64

	PendingErr       error // returned by ListPendingByPriority
	CountNearErr     error // returned by CountPendingNear
	AssignErr        error // returned by AssignReport
	ActiveWorkersErr error // returned by ActiveWorkers
}

var _ repository.UserRepo = (*Store)(nil)
var _ repository.DepartmentRepo = (*Store)(nil)
var _ repository.WorkerRepo = (*Store)(nil)
var _ repository.ReportRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*models.User),
		departments: make(map[int64]*models.Department),
		workers:     make(map[int64]*models.Worker),
		reports:     make(map[int64]*models.Report),
	}
}

// UserRepo

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUser++
	cp := *u
	cp.ID = s.nextUser
	cp.Active = true
	if cp.Role == "" {
		cp.Role = models.RoleClient
	}
	s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		u.Active = active
	}
	return nil
}

// DepartmentRepo

func (s *Store) CreateDepartment(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDept++
	s.departments[s.nextDept] = &models.Department{ID: s.nextDept, Name: name}
	return s.nextDept, nil
}

func (s *Store) GetDepartmentByName(ctx context.Context, name string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.sortedDepartments() {
		if strings.EqualFold(d.Name, name) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) FindDepartmentLike(ctx context.Context, fragment string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(fragment)
	for _, d := range s.sortedDepartments() {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Department
	for _, d := range s.sortedDepartments() {
		out = append(out, *d)
	}
	return out, nil
}

func (s *Store) sortedDepartments() []*models.Department {
	out := make([]*models.Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WorkerRepo

func (s *Store) CreateWorker(ctx context.Context, w *models.Worker) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWorker++
	cp := *w
	cp.ID = s.nextWorker
	if u, ok := s.users[cp.UserID]; ok {
		cp.District = u.District
		cp.Active = u.Active
	}
	s.workers[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetWorker(ctx context.Context, id int64) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	if u, ok := s.users[w.UserID]; ok {
		cp.District = u.District
		cp.Active = u.Active
	}
	return &cp, nil
}

func (s *Store) GetWorkerByUser(ctx context.Context, userID int64) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.workers {
		if w.UserID == userID {
			cp := *w
			if u, ok := s.users[w.UserID]; ok {
				cp.District = u.District
				cp.Active = u.Active
			}
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ActiveWorkers(ctx context.Context, departmentID int64, district string) ([]models.Worker, error) {
	if s.ActiveWorkersErr != nil {
		return nil, s.ActiveWorkersErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Worker
	for _, w := range s.workers {
		u, ok := s.users[w.UserID]
		if !ok || !u.Active {
			continue
		}
		if w.DepartmentID != departmentID || u.District != district {
			continue
		}
		cp := *w
		cp.District = u.District
		cp.Active = true
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountAssigned(ctx context.Context, workerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.countAssignedLocked(workerID), nil
}

func (s *Store) countAssignedLocked(workerID int64) int64 {
	var n int64
	for _, r := range s.reports {
		if r.Status == models.StatusAssigned && r.AssignedWorkerID != nil && *r.AssignedWorkerID == workerID {
			n++
		}
	}
	return n
}

func (s *Store) ResetDailyCounts(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, w := range s.workers {
		if w.DailyTaskCount != 0 {
			w.DailyTaskCount = 0
			changed++
		}
	}
	return changed, nil
}

func (s *Store) DeactivateWorker(ctx context.Context, workerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[workerID]
	if !ok {
		return 0, nil
	}
	if u, ok := s.users[w.UserID]; ok {
		u.Active = false
	}
	w.DailyTaskCount = 0

	var reverted int64
	for _, r := range s.reports {
		if r.AssignedWorkerID != nil && *r.AssignedWorkerID == workerID &&
			(r.Status == models.StatusPending || r.Status == models.StatusAssigned) {
			r.Status = models.StatusPending
			r.AssignedWorkerID = nil
			reverted++
		}
	}
	return reverted, nil
}

// ReportRepo

func (s *Store) CreateReport(ctx context.Context, r *models.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReport++
	cp := *r
	cp.ID = s.nextReport
	if cp.Status == "" {
		cp.Status = models.StatusPending
	}
	if cp.Created == 0 {
		cp.Created = s.nextReport // monotonically increasing stand-in
	}
	s.reports[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *Store) ListPendingByPriority(ctx context.Context, limit int) ([]models.Report, error) {
	if s.PendingErr != nil {
		return nil, s.PendingErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Report
	for _, r := range s.reports {
		if r.Status == models.StatusPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Created < out[j].Created
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListReportsByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Report
	for _, r := range s.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out, nil
}

func (s *Store) ListReportsByWorker(ctx context.Context, workerID int64) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Report
	for _, r := range s.reports {
		if r.AssignedWorkerID != nil && *r.AssignedWorkerID == workerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListReportsByDistrict(ctx context.Context, district string, limit, offset int) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Report
	for _, r := range s.reports {
		if r.District == district {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created > out[j].Created })
	return out, nil
}

func (s *Store) CountPendingNear(ctx context.Context, lon, lat, radiusMeters float64) (int64, error) {
	if s.CountNearErr != nil {
		return 0, s.CountNearErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the mock treats every pending report as nearby; tests control density
	// through the number of pending reports they create
	var n int64
	for _, r := range s.reports {
		if r.Status == models.StatusPending {
			n++
		}
	}
	return n, nil
}

func (s *Store) AssignReport(ctx context.Context, reportID, workerID int64) (bool, error) {
	if s.AssignErr != nil {
		return false, s.AssignErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[reportID]
	if !ok || r.Status != models.StatusPending {
		return false, nil
	}
	r.Status = models.StatusAssigned
	r.AssignedWorkerID = &workerID
	if w, ok := s.workers[workerID]; ok {
		w.DailyTaskCount++
	}
	return true, nil
}

func (s *Store) TransitionStatus(ctx context.Context, reportID int64, from, to models.ReportStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[reportID]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if to == models.StatusPending {
		r.AssignedWorkerID = nil
	}
	return true, nil
}

func (s *Store) ReassignReport(ctx context.Context, reportID, fromWorker, toWorker int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[reportID]
	if !ok || r.Status != models.StatusAssigned || r.AssignedWorkerID == nil || *r.AssignedWorkerID != fromWorker {
		return false, nil
	}
	r.AssignedWorkerID = &toWorker
	return true, nil
}
