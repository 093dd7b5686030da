package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/civicd/internal/assign"
	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

type AdminHandler struct {
	userRepo   repository.UserRepo
	deptRepo   repository.DepartmentRepo
	workerRepo repository.WorkerRepo
	reportRepo repository.ReportRepo
	admin      *assign.Admin
	engine     *assign.Engine
}

func NewAdminHandler(
	ur repository.UserRepo,
	dr repository.DepartmentRepo,
	wr repository.WorkerRepo,
	rr repository.ReportRepo,
	admin *assign.Admin,
	engine *assign.Engine,
) *AdminHandler {
	return &AdminHandler{
		userRepo:   ur,
		deptRepo:   dr,
		workerRepo: wr,
		reportRepo: rr,
		admin:      admin,
		engine:     engine,
	}
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req createDepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if existing, err := h.deptRepo.GetDepartmentByName(ctx, req.Name); err == nil && existing != nil {
		http.Error(w, "department already exists", http.StatusConflict)
		return
	}

	id, err := h.deptRepo.CreateDepartment(ctx, req.Name)
	if err != nil {
		http.Error(w, "failed to create department", http.StatusInternalServerError)
		return
	}

	writeJSON(w, models.Department{ID: id, Name: req.Name}, http.StatusCreated)
}

func (h *AdminHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.deptRepo.ListDepartments(r.Context())
	if err != nil {
		http.Error(w, "failed to list departments", http.StatusInternalServerError)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	writeJSON(w, map[string]any{"items": depts}, http.StatusOK)
}

type createWorkerRequest struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	District     string `json:"district"`
	DepartmentID int64  `json:"department_id"`
}

type createWorkerResponse struct {
	WorkerID int64 `json:"worker_id"`
	UserID   int64 `json:"user_id"`
}

// CreateWorker provisions a worker account and its department profile in
// one call.
func (h *AdminHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req createWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.District = strings.TrimSpace(req.District)
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.District == "" || req.DepartmentID <= 0 {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if existing, err := h.userRepo.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "error hashing password", http.StatusInternalServerError)
		return
	}

	userID, err := h.userRepo.CreateUser(ctx, &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleWorker,
		District:     req.District,
		Active:       true,
	})
	if err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	workerID, err := h.workerRepo.CreateWorker(ctx, &models.Worker{
		UserID:       userID,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		http.Error(w, "failed to create worker", http.StatusInternalServerError)
		return
	}

	writeJSON(w, createWorkerResponse{WorkerID: workerID, UserID: userID}, http.StatusCreated)
}

// DeactivateWorker soft-deletes a worker; its open reports go back to the
// pending pool.
func (h *AdminHandler) DeactivateWorker(w http.ResponseWriter, r *http.Request) {
	workerID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid worker id", http.StatusBadRequest)
		return
	}

	if err := h.admin.DeactivateWorker(r.Context(), workerID); err != nil {
		if errors.Is(err, assign.ErrWorkerNotFound) {
			http.Error(w, "worker not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate worker", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type reassignRequest struct {
	WorkerID int64 `json:"worker_id"`
}

func (h *AdminHandler) ReassignReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}

	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WorkerID <= 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	err = h.admin.Reassign(r.Context(), reportID, req.WorkerID)
	switch {
	case err == nil:
		writeJSON(w, map[string]any{"id": reportID, "worker_id": req.WorkerID}, http.StatusOK)
	case errors.Is(err, assign.ErrReportNotFound), errors.Is(err, assign.ErrWorkerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, assign.ErrReportNotAssigned),
		errors.Is(err, assign.ErrWorkerInactive),
		errors.Is(err, assign.ErrWorkerAtCapacity),
		errors.Is(err, assign.ErrDepartmentMismatch),
		errors.Is(err, assign.ErrDistrictMismatch),
		errors.Is(err, assign.ErrSameWorker):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "failed to reassign report", http.StatusInternalServerError)
	}
}

// RevertReport sends an assigned report back to the pending pool.
func (h *AdminHandler) RevertReport(w http.ResponseWriter, r *http.Request) {
	reportID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}

	err = h.admin.Revert(r.Context(), reportID)
	switch {
	case err == nil:
		writeJSON(w, map[string]any{"id": reportID, "status": models.StatusPending}, http.StatusOK)
	case errors.Is(err, assign.ErrReportNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, assign.ErrReportNotAssigned):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "failed to revert report", http.StatusInternalServerError)
	}
}

// ListDistrictReports returns the reports of one district for triage.
func (h *AdminHandler) ListDistrictReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	district := strings.TrimSpace(q.Get("district"))
	if district == "" {
		http.Error(w, "district is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	reports, err := h.reportRepo.ListReportsByDistrict(r.Context(), district, limit, offset)
	if err != nil {
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	writeJSON(w, map[string]any{
		"district": district,
		"limit":    limit,
		"offset":   offset,
		"items":    reports,
	}, http.StatusOK)
}

// TriggerAssignment runs one assignment batch immediately instead of
// waiting for the next scheduled tick.
func (h *AdminHandler) TriggerAssignment(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.RunOnce(r.Context()); err != nil {
		http.Error(w, "assignment run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "ok"}, http.StatusOK)
}
