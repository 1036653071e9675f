// Package ledger owns all durable state: the append-only usage table and
// the per-project budget rows. Charges are transactional; nothing else in
// the process mutates spent_usd.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tokencap/tokencap/internal/models"
)

// ErrNotFound is returned when an operation targets a project without a
// budget row.
var ErrNotFound = errors.New("budget not found")

// Store wraps the database handle with the ledger's transactional API.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecordUsage appends the usage row and increments the project's
// spent_usd in one transaction. If the project has no budget row the
// charge still lands in the usage table. A duplicate request id fails
// the whole transaction, so a request can never be charged twice.
func (s *Store) RecordUsage(ctx context.Context, record *models.UsageRecord) error {
	if record.TotalTokens == 0 {
		record.TotalTokens = record.InputTokens + record.OutputTokens
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to append usage record: %w", err)
		}

		if err := tx.Model(&models.Budget{}).
			Where("project_id = ?", record.ProjectID).
			Update("spent_usd", gorm.Expr("spent_usd + ?", record.CostUsd)).Error; err != nil {
			return fmt.Errorf("failed to charge budget: %w", err)
		}

		return nil
	})
}

// SetBudget upserts the budget definition for a project. An existing
// row keeps its spent_usd and period_start; limit and period end are
// replaced by the caller's values (nil periodDays clears the period).
func (s *Store) SetBudget(ctx context.Context, projectID string, limitUsd float64, periodDays *int) (*models.Budget, error) {
	now := time.Now().UTC()

	var periodEnd *time.Time
	if periodDays != nil && *periodDays > 0 {
		end := now.AddDate(0, 0, *periodDays)
		periodEnd = &end
	}

	budget := &models.Budget{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ?", projectID).First(budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			budget = &models.Budget{
				ProjectID:   projectID,
				LimitUsd:    limitUsd,
				SpentUsd:    0,
				PeriodStart: now,
				PeriodEnd:   periodEnd,
			}
			return tx.Create(budget).Error
		}
		if err != nil {
			return err
		}

		budget.LimitUsd = limitUsd
		budget.PeriodEnd = periodEnd
		return tx.Save(budget).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set budget: %w", err)
	}

	return budget, nil
}

// GetBudget returns the project's budget, or nil when none exists.
func (s *Store) GetBudget(ctx context.Context, projectID string) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).First(&budget).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read budget: %w", err)
	}
	return &budget, nil
}

// ResetBudgetSpent zeroes spent_usd and restarts the period: period_start
// becomes now, and a bounded period keeps its length from the new start.
// Idempotent for an existing row; absent rows return ErrNotFound.
func (s *Store) ResetBudgetSpent(ctx context.Context, projectID string) (*models.Budget, error) {
	now := time.Now().UTC()

	budget := &models.Budget{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ?", projectID).First(budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if budget.PeriodEnd != nil {
			length := budget.PeriodEnd.Sub(budget.PeriodStart)
			end := now.Add(length)
			budget.PeriodEnd = &end
		}
		budget.SpentUsd = 0
		budget.PeriodStart = now
		return tx.Save(budget).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reset budget: %w", err)
	}

	return budget, nil
}

// DeleteBudget removes the budget row. Usage history stays. Returns
// false when there was nothing to delete.
func (s *Store) DeleteBudget(ctx context.Context, projectID string) (bool, error) {
	result := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.Budget{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete budget: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetUsageSummary aggregates all usage for a project together with the
// current budget view, in one consistent read.
func (s *Store) GetUsageSummary(ctx context.Context, projectID string) (*models.UsageSummary, error) {
	summary := &models.UsageSummary{ProjectID: projectID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var totals struct {
			TotalRequests     int64
			TotalInputTokens  int64
			TotalOutputTokens int64
			TotalCostUsd      float64
		}
		if err := tx.Model(&models.UsageRecord{}).
			Where("project_id = ?", projectID).
			Select("COUNT(*) AS total_requests, " +
				"COALESCE(SUM(input_tokens), 0) AS total_input_tokens, " +
				"COALESCE(SUM(output_tokens), 0) AS total_output_tokens, " +
				"COALESCE(SUM(cost_usd), 0) AS total_cost_usd").
			Scan(&totals).Error; err != nil {
			return err
		}

		summary.TotalRequests = totals.TotalRequests
		summary.TotalInputTokens = totals.TotalInputTokens
		summary.TotalOutputTokens = totals.TotalOutputTokens
		summary.TotalCostUsd = totals.TotalCostUsd

		var budget models.Budget
		err := tx.Where("project_id = ?", projectID).First(&budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		remaining := budget.Remaining()
		summary.BudgetLimitUsd = &budget.LimitUsd
		summary.BudgetSpentUsd = &budget.SpentUsd
		summary.BudgetRemaining = &remaining
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read usage summary: %w", err)
	}

	return summary, nil
}

// GetRecentUsage returns the newest records first.
func (s *Store) GetRecentUsage(ctx context.Context, projectID string, limit int) ([]models.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.UsageRecord
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read usage history: %w", err)
	}

	return records, nil
}
