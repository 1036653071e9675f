package events

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
)

var (
	estimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_estimates_total",
			Help: "Total number of cost estimates computed",
		},
		[]string{"provider", "model", "confidence"},
	)

	estimatedCostUsd = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokencap_estimated_cost_usd",
			Help:    "Estimated request cost in USD",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 8),
		},
		[]string{"provider", "model"},
	)

	pricingFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_pricing_fallbacks_total",
			Help: "Estimates priced by the fallback row because the model is unknown",
		},
		[]string{"model"},
	)

	chargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_charges_total",
			Help: "Total number of requests charged to the ledger",
		},
		[]string{"provider", "model"},
	)

	costUsdTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_cost_usd_total",
			Help: "Cumulative charged cost in USD",
		},
		[]string{"provider", "model"},
	)

	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_tokens_total",
			Help: "Total number of tokens charged",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	budgetWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_budget_warnings_total",
			Help: "Admitted requests that projected spend past the warn threshold",
		},
		[]string{"project"},
	)

	budgetRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokencap_budget_rejections_total",
			Help: "Requests rejected because the estimate exceeded the remaining budget",
		},
		[]string{"project"},
	)

	budgetRemainingUsd = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tokencap_budget_remaining_usd",
			Help: "Remaining budget in USD at the last admission check",
		},
		[]string{"project"},
	)
)

// MetricsSink translates events into Prometheus series.
type MetricsSink struct{}

func NewMetricsSink() *MetricsSink {
	return &MetricsSink{}
}

func (s *MetricsSink) OnEstimate(_ context.Context, _ string, est *estimator.CostEstimate) {
	estimatesTotal.WithLabelValues(est.Provider, est.Model, string(est.Confidence)).Inc()
	estimatedCostUsd.WithLabelValues(est.Provider, est.Model).Observe(est.TotalCostUsd)
	if est.PricingFallback {
		pricingFallbacksTotal.WithLabelValues(est.Model).Inc()
	}
}

func (s *MetricsSink) OnCost(_ context.Context, record *models.UsageRecord) {
	chargesTotal.WithLabelValues(record.Provider, record.Model).Inc()
	costUsdTotal.WithLabelValues(record.Provider, record.Model).Add(record.CostUsd)
	tokensTotal.WithLabelValues(record.Provider, record.Model, "input").Add(float64(record.InputTokens))
	tokensTotal.WithLabelValues(record.Provider, record.Model, "output").Add(float64(record.OutputTokens))
}

func (s *MetricsSink) OnBudgetWarning(_ context.Context, projectID string, adm *budget.Admission) {
	budgetWarningsTotal.WithLabelValues(projectID).Inc()
	budgetRemainingUsd.WithLabelValues(projectID).Set(adm.RemainingUsd)
}

func (s *MetricsSink) OnBudgetExceeded(_ context.Context, projectID string, details budget.ExceededDetails) {
	budgetRejectionsTotal.WithLabelValues(projectID).Inc()
	budgetRemainingUsd.WithLabelValues(projectID).Set(details.RemainingBudgetUsd)
}
