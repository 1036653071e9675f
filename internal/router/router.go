package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/config"
	"github.com/tokencap/tokencap/internal/handlers"
	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/events"
	"github.com/tokencap/tokencap/internal/services/ledger"
	"github.com/tokencap/tokencap/internal/services/pricing"
	"github.com/tokencap/tokencap/internal/services/providers"
)

// tokencapHeaders is the attribution set clients must be able to read
// cross-origin.
var tokencapHeaders = []string{
	handlers.HeaderRequestID,
	handlers.HeaderInputTokens,
	handlers.HeaderEstimatedOutputTokens,
	handlers.HeaderEstimatedCostUsd,
	handlers.HeaderConfidence,
	handlers.HeaderOutputTokens,
	handlers.HeaderCostUsd,
	handlers.HeaderBudgetRemaining,
}

// Dependencies carries the wired services into the router. main builds
// them once; tests build them around a throwaway database.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Catalog    *pricing.Catalog
	Estimator  *estimator.Estimator
	Controller *budget.Controller
	Store      *ledger.Store
	Sink       events.Sink
	OpenAI     providers.Adapter
	Anthropic  providers.Adapter
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics())

	corsCfg := deps.Config.CORS
	allowedOrigins := corsCfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := corsCfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	allowedHeaders := corsCfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Api-Key", middleware.ProjectHeader}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   append(tokencapHeaders, corsCfg.ExposedHeaders...),
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	r.Use(middleware.ProjectID(deps.Config.Project.DefaultID))

	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	proxyHandler := handlers.NewProxyHandler(handlers.ProxyOptions{
		Logger:         deps.Logger,
		OpenAI:         deps.OpenAI,
		Anthropic:      deps.Anthropic,
		Estimator:      deps.Estimator,
		Controller:     deps.Controller,
		Store:          deps.Store,
		Sink:           deps.Sink,
		RequestTimeout: deps.Config.Upstream.RequestTimeout,
		IdleTimeout:    deps.Config.Upstream.IdleTimeout,
	})
	budgetHandler := handlers.NewBudgetHandler(deps.Logger, deps.Controller)
	usageHandler := handlers.NewUsageHandler(deps.Logger, deps.Store)
	modelsHandler := handlers.NewModelsHandler(deps.Catalog)
	estimateHandler := handlers.NewEstimateHandler(deps.Logger, deps.OpenAI, deps.Anthropic, deps.Estimator, deps.Controller)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat/completions", proxyHandler.ChatCompletions)
		r.Post("/messages", proxyHandler.Messages)

		r.Get("/usage", usageHandler.Summary)
		r.Get("/usage/history", usageHandler.History)

		r.Post("/budget", budgetHandler.Set)
		r.Get("/budget", budgetHandler.Get)
		r.Post("/budget/reset", budgetHandler.Reset)
		r.Delete("/budget", budgetHandler.Delete)

		r.Get("/models", modelsHandler.List)
		r.Post("/estimate", estimateHandler.Estimate)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"not_found","message":"route not found"}}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request","message":"method not allowed"}}`))
	})

	return r
}
