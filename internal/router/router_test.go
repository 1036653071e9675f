package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tokencap/tokencap/internal/config"
	"github.com/tokencap/tokencap/internal/database"
	"github.com/tokencap/tokencap/internal/handlers"
	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/events"
	"github.com/tokencap/tokencap/internal/services/ledger"
	"github.com/tokencap/tokencap/internal/services/pricing"
	"github.com/tokencap/tokencap/internal/services/providers"
	"github.com/tokencap/tokencap/internal/testutil"
)

type staticCounter struct{ tokens int }

func (c staticCounter) CountChat(*providers.ChatRequest) int         { return c.tokens }
func (c staticCounter) CountMessages(*providers.MessagesRequest) int { return c.tokens }
func (c staticCounter) CounterFor(string) func(string) int {
	return func(text string) int { return len(strings.Fields(text)) }
}

type routerEnv struct {
	t       *testing.T
	handler http.Handler
	store   *ledger.Store
}

// newRouterEnv wires the full router against a throwaway database and an
// optional fake upstream. With no upstream, proxy calls fail fast on a
// closed port; the admin surface works regardless.
func newRouterEnv(t *testing.T, upstream http.HandlerFunc) *routerEnv {
	t.Helper()

	db := testutil.NewTestDB(t)

	// Health endpoints consult the package-level handle.
	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	baseURL := "http://127.0.0.1:1"
	if upstream != nil {
		srv := httptest.NewServer(upstream)
		t.Cleanup(srv.Close)
		baseURL = srv.URL
	}

	store := ledger.New(db)
	catalog := pricing.Default()
	counter := staticCounter{tokens: 100}

	cfg := &config.Config{}
	cfg.Project.DefaultID = "default"

	handler := New(Dependencies{
		Config:     cfg,
		Logger:     zaptest.NewLogger(t),
		Catalog:    catalog,
		Estimator:  estimator.New(catalog, 4096),
		Controller: budget.New(store, 0.8),
		Store:      store,
		Sink:       events.Multi(events.NewLogSink(zaptest.NewLogger(t)), events.NewMetricsSink()),
		OpenAI: providers.NewOpenAIAdapter(providers.Options{
			BaseURL: baseURL, APIKey: "sk-default", Counter: counter,
		}),
		Anthropic: providers.NewAnthropicAdapter(providers.Options{
			BaseURL: baseURL, APIKey: "sk-ant-default", Counter: counter,
		}),
	})

	return &routerEnv{t: t, handler: handler, store: store}
}

func (e *routerEnv) do(method, path, project, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if project != "" {
		req.Header.Set(middleware.ProjectHeader, project)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBudget(t *testing.T, rec *httptest.ResponseRecorder) models.Budget {
	t.Helper()
	var b models.Budget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	return b
}

// usageResponder answers every upstream call with fixed usage numbers.
func usageResponder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"chatcmpl-1","usage":{"prompt_tokens":100,"completion_tokens":50,"total_tokens":150}}`))
}

func TestRouterHealthEndpoints(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "healthy", health.Services["database"].Status)

	rec = env.do(http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	rec = env.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestRouterBudgetLifecycle(t *testing.T) {
	env := newRouterEnv(t, usageResponder)

	// Create a budget with a period.
	rec := env.do(http.MethodPost, "/v1/budget", "",
		`{"projectId":"team-a","limitUsd":10,"periodDays":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBudget(t, rec)
	assert.Equal(t, "team-a", created.ProjectID)
	assert.Equal(t, 10.0, created.LimitUsd)
	assert.Zero(t, created.SpentUsd)
	require.NotNil(t, created.PeriodEnd)

	// Charge one request against it.
	rec = env.do(http.MethodPost, "/v1/chat/completions", "team-a",
		`{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.000045", rec.Header().Get(handlers.HeaderCostUsd))

	rec = env.do(http.MethodGet, "/v1/budget", "team-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	charged := decodeBudget(t, rec)
	assert.InDelta(t, 0.000045, charged.SpentUsd, 1e-12)

	// Reset zeroes the spend but keeps the history.
	rec = env.do(http.MethodPost, "/v1/budget/reset", "team-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decodeBudget(t, rec)
	assert.Zero(t, reset.SpentUsd)
	assert.Equal(t, 10.0, reset.LimitUsd)
	assert.True(t, reset.PeriodStart.After(created.PeriodStart) || reset.PeriodStart.Equal(created.PeriodStart),
		"reset restarts the period")

	rec = env.do(http.MethodGet, "/v1/usage", "team-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary models.UsageSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, int64(1), summary.TotalRequests, "history survives the reset")
	assert.InDelta(t, 0.000045, summary.TotalCostUsd, 1e-12)
	require.NotNil(t, summary.BudgetSpentUsd)
	assert.Zero(t, *summary.BudgetSpentUsd)

	rec = env.do(http.MethodGet, "/v1/usage/history?limit=10", "team-a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		ProjectID string               `json:"project_id"`
		Count     int                  `json:"count"`
		Records   []models.UsageRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, "team-a", history.ProjectID)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, 100, history.Records[0].InputTokens)
	assert.Equal(t, 50, history.Records[0].OutputTokens)

	// Delete removes the budget entirely; the project is then unmetered.
	rec = env.do(http.MethodDelete, "/v1/budget", "team-a", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodGet, "/v1/budget", "team-a", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestRouterBudgetRejectionThroughStack(t *testing.T) {
	upstreamHit := false
	env := newRouterEnv(t, func(w http.ResponseWriter, r *http.Request) {
		upstreamHit = true
	})

	rec := env.do(http.MethodPost, "/v1/budget", "",
		`{"projectId":"tight","limitUsd":0.0001}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/v1/chat/completions", "tight",
		`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}],"max_tokens":1000}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.False(t, upstreamHit)
	assert.Contains(t, rec.Body.String(), "budget_exceeded")

	rec = env.do(http.MethodGet, "/v1/usage/history", "tight", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestRouterProjectResolution(t *testing.T) {
	env := newRouterEnv(t, usageResponder)

	body := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}]}`

	// No header, no query parameter: the default project is charged.
	rec := env.do(http.MethodPost, "/v1/chat/completions", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	// Query parameter works when the header is absent.
	rec = env.do(http.MethodPost, "/v1/chat/completions?project_id=from-query", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	// The header wins over the query parameter.
	rec = env.do(http.MethodPost, "/v1/chat/completions?project_id=from-query", "from-header", body)
	require.Equal(t, http.StatusOK, rec.Code)

	ctx := context.Background()
	for _, project := range []string{"default", "from-query", "from-header"} {
		summary, err := env.store.GetUsageSummary(ctx, project)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.TotalRequests, "project %s", project)
	}
}

func TestRouterModelsEndpoint(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.do(http.MethodGet, "/v1/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Count  int                     `json:"count"`
		Models []*pricing.ModelPricing `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Greater(t, listing.Count, 0)
	for _, row := range listing.Models {
		assert.False(t, row.Deprecated, "default listing hides deprecated rows")
	}

	rec = env.do(http.MethodGet, "/v1/models?provider=amazon", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Greater(t, listing.Count, 0)
	for _, row := range listing.Models {
		assert.Equal(t, "amazon", row.Provider)
	}

	rec = env.do(http.MethodGet, "/v1/models?provider=openai&cheapest=true", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cheapest pricing.ModelPricing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cheapest))
	assert.Equal(t, "gpt-4.1-nano", cheapest.Model)
}

func TestRouterEstimateEndpoint(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.do(http.MethodPost, "/v1/budget", "",
		`{"projectId":"est","limitUsd":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/v1/estimate", "est",
		`{"provider":"openai","request":{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}],"max_tokens":100}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Estimate *estimator.CostEstimate `json:"estimate"`
		Budget   *struct {
			RemainingUsd float64 `json:"remainingUsd"`
			WouldExceed  bool    `json:"wouldExceed"`
		} `json:"budget"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	require.NotNil(t, result.Estimate)
	assert.Equal(t, 100, result.Estimate.InputTokens)
	assert.Equal(t, 75, result.Estimate.EstimatedOutputTokens, "three quarters of the request cap")
	// 100 input at $0.15/M plus 75 output at $0.60/M.
	assert.InDelta(t, 0.00006, result.Estimate.TotalCostUsd, 1e-12)
	assert.Equal(t, "high", string(result.Estimate.Confidence))

	require.NotNil(t, result.Budget)
	assert.InDelta(t, 1.0, result.Budget.RemainingUsd, 1e-12)
	assert.False(t, result.Budget.WouldExceed)

	// Estimation never charges.
	summary, err := env.store.GetUsageSummary(context.Background(), "est")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalRequests)

	// Without a budget the preview block is omitted.
	rec = env.do(http.MethodPost, "/v1/estimate", "nobudget",
		`{"provider":"openai","request":{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hi"}]}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "wouldExceed")
}

func TestRouterErrorEnvelopes(t *testing.T) {
	env := newRouterEnv(t, nil)

	rec := env.do(http.MethodGet, "/no/such/route", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)

	rec = env.do(http.MethodPut, "/v1/budget", "", `{}`)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"invalid_request"`)
}
