package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/providers"
)

// EstimateHandler answers "what would this request cost" without
// forwarding anything or touching the ledger.
type EstimateHandler struct {
	logger     *zap.Logger
	openai     providers.Adapter
	anthropic  providers.Adapter
	estimator  *estimator.Estimator
	controller *budget.Controller
}

func NewEstimateHandler(logger *zap.Logger, openai, anthropic providers.Adapter,
	est *estimator.Estimator, controller *budget.Controller) *EstimateHandler {
	return &EstimateHandler{
		logger:     logger,
		openai:     openai,
		anthropic:  anthropic,
		estimator:  est,
		controller: controller,
	}
}

type estimateRequest struct {
	Provider string          `json:"provider"`
	Request  json.RawMessage `json:"request"`
}

type budgetPreview struct {
	RemainingUsd float64 `json:"remainingUsd"`
	WouldExceed  bool    `json:"wouldExceed"`
}

type estimateResponse struct {
	Estimate *estimator.CostEstimate `json:"estimate"`
	Budget   *budgetPreview          `json:"budget,omitempty"`
}

func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "failed to parse request body")
		return
	}

	var adapter providers.Adapter
	switch req.Provider {
	case providers.ProviderOpenAI:
		adapter = h.openai
	case providers.ProviderAnthropic:
		adapter = h.anthropic
	default:
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "provider must be openai or anthropic")
		return
	}

	parsed, err := adapter.ParseRequest(req.Request)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, err.Error())
		return
	}

	est := h.estimator.Estimate(parsed)
	resp := estimateResponse{Estimate: est}

	projectID := middleware.ProjectFromContext(r.Context())
	snapshot, err := h.controller.GetBudget(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to read budget for estimate preview",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to read budget")
		return
	}
	if snapshot != nil {
		resp.Budget = &budgetPreview{
			RemainingUsd: snapshot.Remaining(),
			WouldExceed:  snapshot.WouldExceed(est.TotalCostUsd),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
