package api

import (
	"net/http"

	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

type WorkerHandler struct {
	workerRepo repository.WorkerRepo
	reportRepo repository.ReportRepo
}

func NewWorkerHandler(wr repository.WorkerRepo, rr repository.ReportRepo) *WorkerHandler {
	return &WorkerHandler{workerRepo: wr, reportRepo: rr}
}

// ListMyTasks returns the reports currently assigned to the calling worker.
func (h *WorkerHandler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()

	worker, err := h.workerRepo.GetWorkerByUser(ctx, userID)
	if err != nil {
		http.Error(w, "failed to load worker", http.StatusInternalServerError)
		return
	}
	if worker == nil {
		http.Error(w, "no worker profile", http.StatusNotFound)
		return
	}

	reports, err := h.reportRepo.ListReportsByWorker(ctx, worker.ID)
	if err != nil {
		http.Error(w, "failed to list tasks", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	writeJSON(w, map[string]any{"items": reports}, http.StatusOK)
}

// CompleteReport marks one of the worker's assigned reports as completed.
func (h *WorkerHandler) CompleteReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reportID, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	worker, err := h.workerRepo.GetWorkerByUser(ctx, userID)
	if err != nil {
		http.Error(w, "failed to load worker", http.StatusInternalServerError)
		return
	}
	if worker == nil {
		http.Error(w, "no worker profile", http.StatusNotFound)
		return
	}

	report, err := h.reportRepo.GetReport(ctx, reportID)
	if err != nil {
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if report.AssignedWorkerID == nil || *report.AssignedWorkerID != worker.ID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	moved, err := h.reportRepo.TransitionStatus(ctx, reportID, models.StatusAssigned, models.StatusCompleted)
	if err != nil {
		http.Error(w, "failed to complete report", http.StatusInternalServerError)
		return
	}
	if !moved {
		http.Error(w, "report is not assigned", http.StatusConflict)
		return
	}

	writeJSON(w, map[string]any{"id": reportID, "status": models.StatusCompleted}, http.StatusOK)
}
