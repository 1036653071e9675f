// Package budget decides whether an estimated request may proceed and
// fronts the budget CRUD. It holds no state of its own: every decision
// reads a fresh ledger snapshot, and the snapshot is not locked across
// the upstream call (see Admit).
package budget

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/ledger"
)

// ExceededDetails is the structured rejection payload. Field names are
// part of the API contract.
type ExceededDetails struct {
	CurrentSpendUsd    float64 `json:"currentSpendUsd"`
	LimitUsd           float64 `json:"limitUsd"`
	EstimatedCostUsd   float64 `json:"estimatedCostUsd"`
	RemainingBudgetUsd float64 `json:"remainingBudgetUsd"`
}

// ExceededError is returned by Admit when the estimate does not fit.
type ExceededError struct {
	Details ExceededDetails
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: estimated $%.6f, remaining $%.6f",
		e.Details.EstimatedCostUsd, e.Details.RemainingBudgetUsd)
}

// Admission is the admit-side outcome. Budget is nil when the project
// has no budget row (no gate).
type Admission struct {
	Budget        *models.Budget
	PeriodExpired bool
	RemainingUsd  float64

	// ProjectedUtilization is (spent + estimate) / limit, used for the
	// soft warning. Zero when there is no budget or no limit.
	ProjectedUtilization float64

	// Warn is set when the projected utilization crosses the configured
	// threshold without exceeding the limit.
	Warn bool
}

// Controller performs admission checks against the ledger.
type Controller struct {
	store         *ledger.Store
	warnThreshold float64
}

// New builds a controller. warnThreshold is a fraction in (0, 1]; spend
// projected past it flags Admission.Warn.
func New(store *ledger.Store, warnThreshold float64) *Controller {
	if warnThreshold <= 0 || warnThreshold > 1 {
		warnThreshold = 0.8
	}
	return &Controller{store: store, warnThreshold: warnThreshold}
}

// Admit decides whether an estimated cost fits the project's budget.
//
// Absent budget rows admit unconditionally. Expired periods admit with
// an advisory. An estimate strictly above the remaining budget returns
// *ExceededError; an estimate exactly equal to it is admitted.
//
// The snapshot is not held across the upstream call, so concurrent
// requests admitted just under the limit can collectively overshoot it.
// The ledger later charges them in serialization order; throughput is
// preferred over a strict cap.
func (c *Controller) Admit(ctx context.Context, projectID string, estimatedCostUsd float64) (*Admission, error) {
	snapshot, err := c.store.GetBudget(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return &Admission{}, nil
	}

	adm := &Admission{Budget: snapshot, RemainingUsd: snapshot.Remaining()}

	if snapshot.IsExpired(time.Now().UTC()) {
		adm.PeriodExpired = true
		return adm, nil
	}

	if estimatedCostUsd > adm.RemainingUsd {
		return nil, &ExceededError{Details: ExceededDetails{
			CurrentSpendUsd:    snapshot.SpentUsd,
			LimitUsd:           snapshot.LimitUsd,
			EstimatedCostUsd:   estimatedCostUsd,
			RemainingBudgetUsd: adm.RemainingUsd,
		}}
	}

	if snapshot.LimitUsd > 0 {
		adm.ProjectedUtilization = (snapshot.SpentUsd + estimatedCostUsd) / snapshot.LimitUsd
		adm.Warn = adm.ProjectedUtilization >= c.warnThreshold
	}

	return adm, nil
}

// SafeMaxTokens computes the largest output token count that still fits
// in the remaining budget once the input cost is paid. A non-positive
// output price means output is free and no finite cap applies.
func SafeMaxTokens(remainingUsd, inputCostUsd, outputPricePerM float64) int {
	if outputPricePerM <= 0 {
		return math.MaxInt32
	}
	headroom := remainingUsd - inputCostUsd
	if headroom <= 0 {
		return 0
	}
	return int(headroom * 1_000_000 / outputPricePerM)
}

// Budget CRUD delegates to the ledger so handlers depend on one budget
// surface.

func (c *Controller) SetBudget(ctx context.Context, projectID string, limitUsd float64, periodDays *int) (*models.Budget, error) {
	return c.store.SetBudget(ctx, projectID, limitUsd, periodDays)
}

func (c *Controller) GetBudget(ctx context.Context, projectID string) (*models.Budget, error) {
	return c.store.GetBudget(ctx, projectID)
}

func (c *Controller) ResetBudget(ctx context.Context, projectID string) (*models.Budget, error) {
	return c.store.ResetBudgetSpent(ctx, projectID)
}

func (c *Controller) DeleteBudget(ctx context.Context, projectID string) (bool, error) {
	return c.store.DeleteBudget(ctx, projectID)
}
