package models

import (
	"gorm.io/datatypes"
)

// UsageRecord is one charged request. Rows are append-only: they are
// written exactly once, inside the same transaction that increments the
// project budget, and never mutated afterwards.
type UsageRecord struct {
	BaseModel
	ProjectID string `gorm:"index;not null" json:"project_id"`
	RequestID string `gorm:"uniqueIndex;not null" json:"request_id"`

	Provider string `gorm:"index" json:"provider"`
	Model    string `gorm:"index" json:"model"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`

	InputCostUsd  float64 `json:"input_cost_usd"`
	OutputCostUsd float64 `json:"output_cost_usd"`
	CostUsd       float64 `json:"cost_usd"`

	// Metadata carries per-record flags, e.g. {"estimated_input": true}
	// when a stream closed without reporting input usage.
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

func (UsageRecord) TableName() string {
	return "usage"
}

// UsageSummary aggregates a project's ledger plus its current budget view.
type UsageSummary struct {
	ProjectID         string   `json:"project_id"`
	TotalRequests     int64    `json:"total_requests"`
	TotalInputTokens  int64    `json:"total_input_tokens"`
	TotalOutputTokens int64    `json:"total_output_tokens"`
	TotalCostUsd      float64  `json:"total_cost_usd"`
	BudgetLimitUsd    *float64 `json:"budget_limit_usd,omitempty"`
	BudgetSpentUsd    *float64 `json:"budget_spent_usd,omitempty"`
	BudgetRemaining   *float64 `json:"budget_remaining_usd,omitempty"`
}
