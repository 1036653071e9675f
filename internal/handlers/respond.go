package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/pricing"
)

// Error kinds carried in the response envelope.
const (
	ErrInvalidRequest = "invalid_request"
	ErrUnauthorized   = "unauthorized"
	ErrBudgetExceeded = "budget_exceeded"
	ErrNotFound       = "not_found"
	ErrUpstream       = "upstream_error"
	ErrInternal       = "internal_error"
)

// Cost attribution headers. The names are part of the API contract;
// transports may canonicalize their casing.
const (
	HeaderRequestID             = "X-Tokencap-Request-Id"
	HeaderInputTokens           = "X-Tokencap-Input-Tokens"
	HeaderEstimatedOutputTokens = "X-Tokencap-Estimated-Output-Tokens"
	HeaderEstimatedCostUsd      = "X-Tokencap-Estimated-Cost-USD"
	HeaderConfidence            = "X-Tokencap-Confidence"
	HeaderOutputTokens          = "X-Tokencap-Output-Tokens"
	HeaderCostUsd               = "X-Tokencap-Cost-USD"
	HeaderBudgetRemaining       = "X-Tokencap-Budget-Remaining"
)

type APIError struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorEnvelope{Error: APIError{Type: kind, Message: message}})
}

func writeErrorDetails(w http.ResponseWriter, status int, kind, message string, details interface{}) {
	writeJSON(w, status, ErrorEnvelope{Error: APIError{Type: kind, Message: message, Details: details}})
}

// formatUsd renders a cost with six decimals, rounded half-up. All
// dollar values leave the process through this function.
func formatUsd(v float64) string {
	return strconv.FormatFloat(pricing.RoundUsd(v), 'f', 6, 64)
}

// setEstimateHeaders attaches the pre-execution attribution. It runs
// before the budget decision so rejections carry the estimate too.
func setEstimateHeaders(h http.Header, requestID string, est *estimator.CostEstimate) {
	h.Set(HeaderRequestID, requestID)
	h.Set(HeaderInputTokens, strconv.Itoa(est.InputTokens))
	h.Set(HeaderEstimatedOutputTokens, strconv.Itoa(est.EstimatedOutputTokens))
	h.Set(HeaderEstimatedCostUsd, formatUsd(est.TotalCostUsd))
	h.Set(HeaderConfidence, string(est.Confidence))
}
