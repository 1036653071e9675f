package models

import (
	"time"
)

// Budget is the per-project spend limit. SpentUsd is owned by the ledger
// store: only a charge transaction or an explicit reset may change it.
type Budget struct {
	BaseModel
	ProjectID string  `gorm:"uniqueIndex;not null" json:"project_id"`
	LimitUsd  float64 `gorm:"not null" json:"limit_usd"`
	SpentUsd  float64 `gorm:"default:0" json:"spent_usd"`

	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
}

func (b *Budget) Remaining() float64 {
	return b.LimitUsd - b.SpentUsd
}

func (b *Budget) UtilizationPercent() float64 {
	if b.LimitUsd == 0 {
		return 0
	}
	return (b.SpentUsd / b.LimitUsd) * 100
}

func (b *Budget) WouldExceed(costUsd float64) bool {
	return costUsd > b.Remaining()
}

// IsExpired reports whether the budget period has lapsed. Budgets with no
// periodEnd never expire.
func (b *Budget) IsExpired(now time.Time) bool {
	return b.PeriodEnd != nil && now.After(*b.PeriodEnd)
}
