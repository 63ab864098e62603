package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Kohanchuk66/anime-back/internal/middleware"
	"github.com/Kohanchuk66/anime-back/internal/models"
	"github.com/Kohanchuk66/anime-back/internal/services"
)

// ReportStore is the moderation-queue persistence the handler needs.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	List(ctx context.Context, opts models.ReportListOptions) ([]models.Report, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	Update(ctx context.Context, id primitive.ObjectID, req *models.ReportUpdateRequest, reviewer primitive.ObjectID) (*models.Report, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (*models.ReportStats, error)
}

type ReportHandler struct {
	reports ReportStore
}

func NewReportHandler(reports ReportStore) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "Validation failed",
			"errors":  errs,
		})
		return
	}

	kind, err := models.ParseReportTargetKind(req.TargetType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report target type")
		return
	}
	targetID, ok := parseID(req.TargetID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid target id")
		return
	}
	reporterID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	report, err := h.reports.Create(r.Context(), &models.Report{
		ReporterID:   reporterID,
		ReporterName: claims.Username,
		Target:       models.ReportTarget{Kind: kind, ID: targetID},
		Reason:       req.Reason,
		Description:  req.Description,
	})
	if err != nil {
		if err == services.ErrDuplicateReport {
			writeError(w, http.StatusBadRequest, "You have already reported this")
			return
		}
		zap.L().Error("report create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to submit report")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if status != "" && !models.ValidReportStatus(status) {
		writeError(w, http.StatusBadRequest, "Invalid report status")
		return
	}
	kind := q.Get("targetType")
	if kind != "" {
		if _, err := models.ParseReportTargetKind(kind); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid report target type")
			return
		}
	}

	opts := models.ReportListOptions{
		Status:     status,
		TargetKind: kind,
		Reason:     q.Get("reason"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
		Page:       queryInt64(r, "page", 1),
		Limit:      queryInt64(r, "limit", 20),
	}

	reports, total, err := h.reports.List(r.Context(), opts)
	if err != nil {
		zap.L().Error("report list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load reports")
		return
	}

	writeJSON(w, http.StatusOK, pagedResponse(reports, total, opts.Page, opts.Limit, 20))
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		if err == services.ErrReportNotFound {
			writeError(w, http.StatusNotFound, "Report not found")
			return
		}
		zap.L().Error("report lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Identity(r.Context())

	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	var req models.ReportUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != nil && !models.ValidReportStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid report status")
		return
	}
	if req.ActionTaken != nil && !models.ValidReportAction(*req.ActionTaken) {
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}

	reviewerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	report, err := h.reports.Update(r.Context(), id, &req, reviewerID)
	if err != nil {
		if err == services.ErrReportNotFound {
			writeError(w, http.StatusNotFound, "Report not found")
			return
		}
		zap.L().Error("report update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid report id")
		return
	}

	if err := h.reports.Delete(r.Context(), id); err != nil {
		if err == services.ErrReportNotFound {
			writeError(w, http.StatusNotFound, "Report not found")
			return
		}
		zap.L().Error("report delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Report deleted"})
}

func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.Stats(r.Context())
	if err != nil {
		zap.L().Error("report stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to load report stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
