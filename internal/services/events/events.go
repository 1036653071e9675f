// Package events fans lifecycle notifications out to the configured
// sinks. The pipeline emits an event at each decision point; sinks must
// not block and must not fail the request.
package events

import (
	"context"

	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
)

// Sink receives pipeline lifecycle events. Implementations are called
// synchronously on the request path and should return quickly.
type Sink interface {
	// OnEstimate fires after the cost estimate is computed, before the
	// budget decision.
	OnEstimate(ctx context.Context, projectID string, est *estimator.CostEstimate)

	// OnCost fires after the ledger accepted the charge.
	OnCost(ctx context.Context, record *models.UsageRecord)

	// OnBudgetWarning fires when an admitted request projects spend past
	// the warn threshold.
	OnBudgetWarning(ctx context.Context, projectID string, adm *budget.Admission)

	// OnBudgetExceeded fires when admission rejects a request.
	OnBudgetExceeded(ctx context.Context, projectID string, details budget.ExceededDetails)
}

// MultiSink forwards every event to each sink in order.
type MultiSink []Sink

// Multi combines sinks. Multi() is a valid no-op sink.
func Multi(sinks ...Sink) MultiSink {
	return MultiSink(sinks)
}

func (m MultiSink) OnEstimate(ctx context.Context, projectID string, est *estimator.CostEstimate) {
	for _, s := range m {
		s.OnEstimate(ctx, projectID, est)
	}
}

func (m MultiSink) OnCost(ctx context.Context, record *models.UsageRecord) {
	for _, s := range m {
		s.OnCost(ctx, record)
	}
}

func (m MultiSink) OnBudgetWarning(ctx context.Context, projectID string, adm *budget.Admission) {
	for _, s := range m {
		s.OnBudgetWarning(ctx, projectID, adm)
	}
}

func (m MultiSink) OnBudgetExceeded(ctx context.Context, projectID string, details budget.ExceededDetails) {
	for _, s := range m {
		s.OnBudgetExceeded(ctx, projectID, details)
	}
}
