package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.NewTestDB(t))
}

func intPtr(v int) *int {
	return &v
}

func usageRecord(projectID, requestID string, costUsd float64) *models.UsageRecord {
	return &models.UsageRecord{
		ProjectID:     projectID,
		RequestID:     requestID,
		Provider:      "openai",
		Model:         "gpt-4o-mini",
		InputTokens:   100,
		OutputTokens:  50,
		InputCostUsd:  costUsd / 3,
		OutputCostUsd: costUsd * 2 / 3,
		CostUsd:       costUsd,
	}
}

func TestRecordUsageChargesBudget(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 1.00, nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", "req-1", 0.000045)))

	budget, err := store.GetBudget(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, budget)
	assert.InDelta(t, 0.000045, budget.SpentUsd, 1e-12)

	summary, err := store.GetUsageSummary(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalRequests)
	assert.InDelta(t, 0.000045, summary.TotalCostUsd, 1e-12)
}

func TestRecordUsageWithoutBudget(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordUsage(ctx, usageRecord("p3", "req-1", 0.01)))
	require.NoError(t, store.RecordUsage(ctx, usageRecord("p3", "req-2", 0.02)))

	budget, err := store.GetBudget(ctx, "p3")
	require.NoError(t, err)
	assert.Nil(t, budget)

	summary, err := store.GetUsageSummary(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalRequests)
	assert.InDelta(t, 0.03, summary.TotalCostUsd, 1e-9)
	assert.Nil(t, summary.BudgetLimitUsd)
}

func TestRecordUsageDuplicateRequestID(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 1.00, nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", "req-dup", 0.10)))
	require.Error(t, store.RecordUsage(ctx, usageRecord("p1", "req-dup", 0.10)))

	// The failed transaction must not have charged the budget.
	budget, err := store.GetBudget(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 0.10, budget.SpentUsd, 1e-9)

	summary, err := store.GetUsageSummary(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalRequests)
}

func TestRecordUsageComputesTotalTokens(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := usageRecord("p1", "req-1", 0.01)
	require.NoError(t, store.RecordUsage(ctx, rec))
	assert.Equal(t, 150, rec.TotalTokens)
}

func TestRecordUsageConcurrent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 10.00, nil)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.RecordUsage(ctx, usageRecord("p1", fmt.Sprintf("req-%d", i), 0.001))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}

	// Charges serialize; none may be lost.
	budget, err := store.GetBudget(ctx, "p1")
	require.NoError(t, err)
	assert.InDelta(t, 0.01, budget.SpentUsd, 1e-9)

	summary, err := store.GetUsageSummary(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), summary.TotalRequests)
}

func TestSetBudgetCreates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	budget, err := store.SetBudget(ctx, "p1", 5.00, intPtr(30))
	require.NoError(t, err)

	assert.Equal(t, "p1", budget.ProjectID)
	assert.Equal(t, 5.00, budget.LimitUsd)
	assert.Zero(t, budget.SpentUsd)
	assert.True(t, budget.PeriodStart.After(before))
	require.NotNil(t, budget.PeriodEnd)
	assert.WithinDuration(t, budget.PeriodStart.AddDate(0, 0, 30), *budget.PeriodEnd, time.Minute)
}

func TestSetBudgetPreservesSpent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 5.00, intPtr(30))
	require.NoError(t, err)
	require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", "req-1", 1.25)))

	budget, err := store.SetBudget(ctx, "p1", 20.00, nil)
	require.NoError(t, err)

	assert.Equal(t, 20.00, budget.LimitUsd)
	assert.InDelta(t, 1.25, budget.SpentUsd, 1e-9)
	assert.Nil(t, budget.PeriodEnd, "omitted periodDays clears the period")
}

func TestGetBudgetAbsent(t *testing.T) {
	store := newStore(t)

	budget, err := store.GetBudget(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, budget)
}

func TestResetBudgetSpent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p4", 10.00, intPtr(7))
	require.NoError(t, err)
	require.NoError(t, store.RecordUsage(ctx, usageRecord("p4", "req-1", 3.00)))

	budget, err := store.ResetBudgetSpent(ctx, "p4")
	require.NoError(t, err)
	assert.Zero(t, budget.SpentUsd)
	require.NotNil(t, budget.PeriodEnd)
	assert.WithinDuration(t, budget.PeriodStart.AddDate(0, 0, 7), *budget.PeriodEnd, time.Minute)

	// Applying the reset twice equals applying it once.
	again, err := store.ResetBudgetSpent(ctx, "p4")
	require.NoError(t, err)
	assert.Zero(t, again.SpentUsd)

	// History is untouched by resets.
	summary, err := store.GetUsageSummary(ctx, "p4")
	require.NoError(t, err)
	assert.InDelta(t, 3.00, summary.TotalCostUsd, 1e-9)
}

func TestResetBudgetSpentAbsent(t *testing.T) {
	store := newStore(t)

	_, err := store.ResetBudgetSpent(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBudget(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 5.00, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", "req-1", 0.50)))

	removed, err := store.DeleteBudget(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteBudget(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, removed)

	// Usage history outlives the budget row.
	summary, err := store.GetUsageSummary(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.TotalRequests)
	assert.Nil(t, summary.BudgetLimitUsd)

	// A re-created budget starts clean.
	budget, err := store.SetBudget(ctx, "p1", 2.00, nil)
	require.NoError(t, err)
	assert.Zero(t, budget.SpentUsd)
}

func TestGetRecentUsageNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", fmt.Sprintf("req-%d", i), 0.01)))
		time.Sleep(2 * time.Millisecond)
	}

	records, err := store.GetRecentUsage(ctx, "p1", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "req-4", records[0].RequestID)
	assert.Equal(t, "req-3", records[1].RequestID)
	assert.Equal(t, "req-2", records[2].RequestID)

	// Records for other projects stay invisible.
	records, err = store.GetRecentUsage(ctx, "p2", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSpentMatchesUsageSum(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SetBudget(ctx, "p1", 100.00, nil)
	require.NoError(t, err)

	costs := []float64{0.000045, 0.0123, 1.5, 0.25}
	var sum float64
	for i, c := range costs {
		require.NoError(t, store.RecordUsage(ctx, usageRecord("p1", fmt.Sprintf("req-%d", i), c)))
		sum += c
	}

	budget, err := store.GetBudget(ctx, "p1")
	require.NoError(t, err)
	summary, err := store.GetUsageSummary(ctx, "p1")
	require.NoError(t, err)

	assert.InDelta(t, sum, budget.SpentUsd, 1e-9)
	assert.InDelta(t, budget.SpentUsd, summary.TotalCostUsd, 1e-9)
}
