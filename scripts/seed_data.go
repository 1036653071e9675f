package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tokencap/tokencap/internal/config"
	"github.com/tokencap/tokencap/internal/database"
	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/ledger"
	"github.com/tokencap/tokencap/internal/services/pricing"
)

func main() {
	// Load .env file
	_ = godotenv.Load("../.env")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := database.Initialize(&database.Config{
		Path:         cfg.Database.Path,
		BusyTimeout:  cfg.Database.BusyTimeout,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	ctx := context.Background()
	store := ledger.New(database.GetDB())
	controller := budget.New(store, cfg.Budget.WarnThreshold)
	catalog := pricing.Default()

	// Monthly demo budget with headroom
	monthly := 30
	if _, err := controller.SetBudget(ctx, "demo", 100.00, &monthly); err != nil {
		log.Println("Budget might already exist:", err)
	} else {
		fmt.Println("Created budget: demo ($100.00 / 30 days)")
	}

	// Tight open-ended budget, seeded close to its warning threshold
	if _, err := controller.SetBudget(ctx, "research", 5.00, nil); err != nil {
		log.Println("Budget might already exist:", err)
	} else {
		fmt.Println("Created budget: research ($5.00, open-ended)")
	}

	// Usage rows go through the ledger so spent_usd stays equal to the
	// sum of charges, same as live traffic.
	seeds := []struct {
		project      string
		provider     string
		model        string
		inputTokens  int
		outputTokens int
		age          time.Duration
	}{
		{"demo", "openai", "gpt-4o", 1200, 450, 36 * time.Hour},
		{"demo", "openai", "gpt-4o-mini", 800, 300, 24 * time.Hour},
		{"demo", "anthropic", "claude-sonnet-4-0", 2000, 900, 12 * time.Hour},
		{"demo", "openai", "gpt-4.1", 1500, 600, 3 * time.Hour},
		{"research", "anthropic", "claude-3-5-haiku-latest", 5000, 1500, 6 * time.Hour},
		{"research", "openai", "gpt-4o-mini", 3000, 1200, time.Hour},
	}

	for _, s := range seeds {
		row, _ := catalog.Resolve(s.provider, s.model)
		cost := catalog.Calculate(row, s.inputTokens, s.outputTokens)

		record := &models.UsageRecord{
			ProjectID:     s.project,
			RequestID:     "seed-" + uuid.New().String(),
			Provider:      s.provider,
			Model:         s.model,
			InputTokens:   s.inputTokens,
			OutputTokens:  s.outputTokens,
			InputCostUsd:  cost.InputUsd,
			OutputCostUsd: cost.OutputUsd,
			CostUsd:       cost.TotalUsd,
		}
		record.CreatedAt = time.Now().Add(-s.age)

		if err := store.RecordUsage(ctx, record); err != nil {
			log.Println("Usage row might already exist:", err)
		} else {
			fmt.Printf("Charged %s: %s/%s $%.6f\n", s.project, s.provider, s.model, cost.TotalUsd)
		}
	}

	fmt.Println("\nSeed data created successfully!")
	fmt.Println("Try: tokencap usage --project demo")
}
