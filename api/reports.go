package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qri-io/jsonschema"

	"github.com/civicworks/civicd/internal/priority"
	"github.com/civicworks/civicd/pkg/models"
	"github.com/civicworks/civicd/pkg/repository"
)

type ReportsHandler struct {
	reportRepo repository.ReportRepo
	scorer     *priority.Scorer
	schema     *jsonschema.Schema
}

func NewReportsHandler(rr repository.ReportRepo, scorer *priority.Scorer) *ReportsHandler {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(reportSchema), rs); err != nil {
		panic(fmt.Sprintf("report schema is invalid: %v", err))
	}
	return &ReportsHandler{reportRepo: rr, scorer: scorer, schema: rs}
}

type createReportRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ProblemType string  `json:"problem_type"`
	District    string  `json:"district"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
}

type createReportResponse struct {
	ID       int64   `json:"id"`
	PublicID string  `json:"public_id"`
	Priority float64 `json:"priority"`
	Status   string  `json:"status"`
}

// CreateReport stores a citizen issue. The priority score is computed once
// here and never recomputed.
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	keyErrs, err := h.schema.ValidateBytes(ctx, body)
	if err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(keyErrs) > 0 {
		http.Error(w, fmt.Sprintf("invalid report: %s", keyErrs[0].Message), http.StatusBadRequest)
		return
	}

	var req createReportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.ProblemType = strings.TrimSpace(req.ProblemType)
	req.District = strings.TrimSpace(req.District)

	score := h.scorer.Score(ctx, req.Longitude, req.Latitude, req.ProblemType)

	report := &models.Report{
		PublicID:    uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		ProblemType: req.ProblemType,
		District:    req.District,
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Priority:    score,
		Status:      models.StatusPending,
		UserID:      userID,
	}

	id, err := h.reportRepo.CreateReport(ctx, report)
	if err != nil {
		http.Error(w, "failed to store report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, createReportResponse{
		ID:       id,
		PublicID: report.PublicID,
		Priority: score,
		Status:   string(models.StatusPending),
	}, http.StatusCreated)
}

// ListMyReports returns the caller's reports, newest first.
func (h *ReportsHandler) ListMyReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
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

	reports, err := h.reportRepo.ListReportsByUser(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	resp := map[string]any{
		"limit":  limit,
		"offset": offset,
		"items":  reports,
	}

	writeJSON(w, resp, http.StatusOK)
}

// VerifyReport lets the reporter confirm a completed fix. Only the report
// owner may verify, and only from the completed state.
func (h *ReportsHandler) VerifyReport(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.reportRepo.GetReport(ctx, reportID)
	if err != nil {
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if report.UserID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	moved, err := h.reportRepo.TransitionStatus(ctx, reportID, models.StatusCompleted, models.StatusVerified)
	if err != nil {
		http.Error(w, "failed to verify report", http.StatusInternalServerError)
		return
	}
	if !moved {
		http.Error(w, "report is not completed", http.StatusConflict)
		return
	}

	writeJSON(w, map[string]any{"id": reportID, "status": models.StatusVerified}, http.StatusOK)
}
