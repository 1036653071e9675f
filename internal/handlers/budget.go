package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/ledger"
)

type BudgetHandler struct {
	logger     *zap.Logger
	controller *budget.Controller
}

func NewBudgetHandler(logger *zap.Logger, controller *budget.Controller) *BudgetHandler {
	return &BudgetHandler{logger: logger, controller: controller}
}

type setBudgetRequest struct {
	ProjectID  string  `json:"projectId"`
	LimitUsd   float64 `json:"limitUsd"`
	PeriodDays *int    `json:"periodDays"`
}

// Set upserts a project's budget. The body's projectId wins over the
// request-level project resolution.
func (h *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "failed to parse request body")
		return
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = middleware.ProjectFromContext(r.Context())
	}
	if projectID == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "projectId is required")
		return
	}
	if req.LimitUsd <= 0 {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "limitUsd must be positive")
		return
	}
	if req.PeriodDays != nil && *req.PeriodDays <= 0 {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "periodDays must be positive")
		return
	}

	b, err := h.controller.SetBudget(r.Context(), projectID, req.LimitUsd, req.PeriodDays)
	if err != nil {
		h.logger.Error("Failed to set budget",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to set budget")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BudgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := middleware.ProjectFromContext(r.Context())

	b, err := h.controller.GetBudget(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to read budget",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to read budget")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, ErrNotFound, "no budget for project "+projectID)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Reset zeroes spend and restarts the period.
func (h *BudgetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	projectID := middleware.ProjectFromContext(r.Context())

	b, err := h.controller.ResetBudget(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrNotFound, "no budget for project "+projectID)
			return
		}
		h.logger.Error("Failed to reset budget",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to reset budget")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := middleware.ProjectFromContext(r.Context())

	deleted, err := h.controller.DeleteBudget(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to delete budget",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to delete budget")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, ErrNotFound, "no budget for project "+projectID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
