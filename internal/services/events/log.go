package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
)

// LogSink writes one structured line per event.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) OnEstimate(_ context.Context, projectID string, est *estimator.CostEstimate) {
	s.logger.Debug("Cost estimated",
		zap.String("project_id", projectID),
		zap.String("provider", est.Provider),
		zap.String("model", est.Model),
		zap.String("resolved_model", est.ResolvedModel),
		zap.Int("input_tokens", est.InputTokens),
		zap.Int("estimated_output_tokens", est.EstimatedOutputTokens),
		zap.Float64("estimated_cost_usd", est.TotalCostUsd),
		zap.String("confidence", string(est.Confidence)),
		zap.Bool("pricing_fallback", est.PricingFallback),
	)
}

func (s *LogSink) OnCost(_ context.Context, record *models.UsageRecord) {
	s.logger.Info("Usage charged",
		zap.String("project_id", record.ProjectID),
		zap.String("request_id", record.RequestID),
		zap.String("provider", record.Provider),
		zap.String("model", record.Model),
		zap.Int("input_tokens", record.InputTokens),
		zap.Int("output_tokens", record.OutputTokens),
		zap.Float64("cost_usd", record.CostUsd),
	)
}

func (s *LogSink) OnBudgetWarning(_ context.Context, projectID string, adm *budget.Admission) {
	s.logger.Warn("Budget utilization high",
		zap.String("project_id", projectID),
		zap.Float64("projected_utilization", adm.ProjectedUtilization),
		zap.Float64("remaining_usd", adm.RemainingUsd),
	)
}

func (s *LogSink) OnBudgetExceeded(_ context.Context, projectID string, details budget.ExceededDetails) {
	s.logger.Warn("Budget exceeded, request rejected",
		zap.String("project_id", projectID),
		zap.Float64("current_spend_usd", details.CurrentSpendUsd),
		zap.Float64("limit_usd", details.LimitUsd),
		zap.Float64("estimated_cost_usd", details.EstimatedCostUsd),
		zap.Float64("remaining_budget_usd", details.RemainingBudgetUsd),
	)
}
