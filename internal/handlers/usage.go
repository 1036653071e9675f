package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/services/ledger"
)

const historyLimitCap = 1000

type UsageHandler struct {
	logger *zap.Logger
	store  *ledger.Store
}

func NewUsageHandler(logger *zap.Logger, store *ledger.Store) *UsageHandler {
	return &UsageHandler{logger: logger, store: store}
}

// Summary aggregates a project's ledger and its budget view.
func (h *UsageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	projectID := middleware.ProjectFromContext(r.Context())

	summary, err := h.store.GetUsageSummary(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to build usage summary",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to build usage summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// History lists recent usage rows, newest first.
func (h *UsageHandler) History(w http.ResponseWriter, r *http.Request) {
	projectID := middleware.ProjectFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, ErrInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > historyLimitCap {
		limit = historyLimitCap
	}

	records, err := h.store.GetRecentUsage(r.Context(), projectID, limit)
	if err != nil {
		h.logger.Error("Failed to read usage history",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to read usage history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project_id": projectID,
		"count":      len(records),
		"records":    records,
	})
}
