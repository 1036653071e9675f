package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/tokencap/tokencap/internal/middleware"
	"github.com/tokencap/tokencap/internal/models"
	"github.com/tokencap/tokencap/internal/services/budget"
	"github.com/tokencap/tokencap/internal/services/estimator"
	"github.com/tokencap/tokencap/internal/services/events"
	"github.com/tokencap/tokencap/internal/services/ledger"
	"github.com/tokencap/tokencap/internal/services/providers"
)

// ProxyHandler drives the forwarding pipeline: estimate, admit,
// forward, observe usage, charge. One instance serves both provider
// families.
type ProxyHandler struct {
	logger     *zap.Logger
	openai     providers.Adapter
	anthropic  providers.Adapter
	estimator  *estimator.Estimator
	controller *budget.Controller
	store      *ledger.Store
	sink       events.Sink

	// requestTimeout caps buffered upstream calls end to end.
	// idleTimeout bounds the gap between stream chunks instead; streams
	// have no total deadline.
	requestTimeout time.Duration
	idleTimeout    time.Duration
}

type ProxyOptions struct {
	Logger         *zap.Logger
	OpenAI         providers.Adapter
	Anthropic      providers.Adapter
	Estimator      *estimator.Estimator
	Controller     *budget.Controller
	Store          *ledger.Store
	Sink           events.Sink
	RequestTimeout time.Duration
	IdleTimeout    time.Duration
}

func NewProxyHandler(opts ProxyOptions) *ProxyHandler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Minute
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 2 * time.Minute
	}
	sink := opts.Sink
	if sink == nil {
		sink = events.Multi()
	}
	return &ProxyHandler{
		logger:         opts.Logger,
		openai:         opts.OpenAI,
		anthropic:      opts.Anthropic,
		estimator:      opts.Estimator,
		controller:     opts.Controller,
		store:          opts.Store,
		sink:           sink,
		requestTimeout: opts.RequestTimeout,
		idleTimeout:    opts.IdleTimeout,
	}
}

// ChatCompletions proxies OpenAI-shaped requests.
func (h *ProxyHandler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.openai)
}

// Messages proxies Anthropic-shaped requests.
func (h *ProxyHandler) Messages(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.anthropic)
}

func (h *ProxyHandler) proxy(w http.ResponseWriter, r *http.Request, adapter providers.Adapter) {
	ctx := r.Context()
	requestID := uuid.New().String()
	projectID := middleware.ProjectFromContext(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, "failed to read request body")
		return
	}

	parsed, err := adapter.ParseRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidRequest, err.Error())
		return
	}

	est := h.estimator.Estimate(parsed)
	h.sink.OnEstimate(ctx, projectID, est)

	// Attach the estimate before the budget decision: rejections and
	// upstream failures carry it too.
	setEstimateHeaders(w.Header(), requestID, est)

	adm, err := h.controller.Admit(ctx, projectID, est.TotalCostUsd)
	if err != nil {
		var exceeded *budget.ExceededError
		if errors.As(err, &exceeded) {
			h.sink.OnBudgetExceeded(ctx, projectID, exceeded.Details)
			writeErrorDetails(w, http.StatusPaymentRequired, ErrBudgetExceeded, exceeded.Error(), exceeded.Details)
			return
		}
		h.logger.Error("Admission check failed",
			zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "admission check failed")
		return
	}
	if adm.Warn {
		h.sink.OnBudgetWarning(ctx, projectID, adm)
	}
	if adm.PeriodExpired {
		h.logger.Warn("Budget period expired, admitting without a gate",
			zap.String("project_id", projectID))
	}

	apiKey, ok := adapter.ResolveAPIKey(r.Header)
	if !ok {
		writeError(w, http.StatusUnauthorized, ErrUnauthorized, "no upstream credentials: send the provider auth header or configure a default key")
		return
	}

	if parsed.Stream {
		h.proxyStream(w, r, adapter, parsed, est, requestID, projectID, body, apiKey)
		return
	}
	h.proxyBuffered(w, r, adapter, est, requestID, projectID, body, apiKey)
}

func (h *ProxyHandler) proxyBuffered(w http.ResponseWriter, r *http.Request, adapter providers.Adapter,
	est *estimator.CostEstimate, requestID, projectID string, body []byte, apiKey string) {

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	resp, err := adapter.Forward(ctx, body, apiKey, false)
	if err != nil {
		h.logger.Error("Upstream call failed",
			zap.String("provider", adapter.Name()), zap.Error(err))
		writeError(w, http.StatusBadGateway, ErrUpstream, "upstream request failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error("Failed to read upstream response",
			zap.String("provider", adapter.Name()), zap.Error(err))
		writeError(w, http.StatusBadGateway, ErrUpstream, "failed to read upstream response")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Proxy the failure verbatim. Usage is unknown, nothing is
		// charged.
		copyContentType(w, resp)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(respBody)
		return
	}

	usage, ok := adapter.ExtractUsage(respBody)
	if !ok {
		h.logger.Error("Upstream response carried no usage",
			zap.String("provider", adapter.Name()),
			zap.Int("status", resp.StatusCode))
		writeError(w, http.StatusBadGateway, ErrUpstream, "upstream response carried no usage")
		return
	}

	cost := h.estimator.ActualCost(est, usage.InputTokens, usage.OutputTokens)
	record := &models.UsageRecord{
		ProjectID:     projectID,
		RequestID:     requestID,
		Provider:      est.Provider,
		Model:         est.Model,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		InputCostUsd:  cost.InputUsd,
		OutputCostUsd: cost.OutputUsd,
		CostUsd:       cost.TotalUsd,
	}
	if err := h.store.RecordUsage(ctx, record); err != nil {
		h.logger.Error("Failed to record usage",
			zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrInternal, "failed to record usage")
		return
	}
	h.sink.OnCost(ctx, record)

	w.Header().Set(HeaderOutputTokens, strconv.Itoa(usage.OutputTokens))
	w.Header().Set(HeaderCostUsd, formatUsd(cost.TotalUsd))
	if snapshot, err := h.controller.GetBudget(ctx, projectID); err == nil && snapshot != nil {
		w.Header().Set(HeaderBudgetRemaining, formatUsd(snapshot.Remaining()))
	}

	copyContentType(w, resp)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)
}

func (h *ProxyHandler) proxyStream(w http.ResponseWriter, r *http.Request, adapter providers.Adapter,
	parsed *providers.ParsedRequest, est *estimator.CostEstimate, requestID, projectID string,
	body []byte, apiKey string) {

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	resp, err := adapter.Forward(ctx, body, apiKey, true)
	if err != nil {
		h.logger.Error("Upstream call failed",
			zap.String("provider", adapter.Name()), zap.Error(err))
		writeError(w, http.StatusBadGateway, ErrUpstream, "upstream request failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		copyContentType(w, resp)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(respBody)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrInternal, "streaming unsupported by this connection")
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "text/event-stream")
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(resp.StatusCode)

	interceptor := providers.NewStreamInterceptor(adapter.NewStreamParser(parsed.Model))

	// A stalled upstream cancels the request; a client disconnect
	// cancels it through r.Context(). Either way the loop exits and the
	// observed usage is charged.
	idle := time.AfterFunc(h.idleTimeout, cancel)
	defer idle.Stop()

	buf := make([]byte, 32*1024)
	var streamErr error
	for {
		idle.Reset(h.idleTimeout)
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			interceptor.Observe(chunk)
			if _, werr := w.Write(chunk); werr != nil {
				streamErr = werr
				cancel()
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				streamErr = err
			}
			break
		}
	}

	if streamErr != nil {
		h.logger.Warn("Stream ended early, charging observed usage",
			zap.String("request_id", requestID), zap.Error(streamErr))
	}

	h.chargeStream(interceptor.Finish(), est, requestID, projectID)
}

// chargeStream is the best-effort settlement after a stream ends, for
// any reason. It runs on a fresh context: the request context is
// usually canceled by the time we get here.
func (h *ProxyHandler) chargeStream(usage providers.StreamUsage, est *estimator.CostEstimate, requestID, projectID string) {
	inputTokens := usage.InputTokens
	estimatedInput := false
	if !usage.InputObserved {
		inputTokens = est.InputTokens
		estimatedInput = true
	}

	cost := h.estimator.ActualCost(est, inputTokens, usage.OutputTokens)
	record := &models.UsageRecord{
		ProjectID:     projectID,
		RequestID:     requestID,
		Provider:      est.Provider,
		Model:         est.Model,
		InputTokens:   inputTokens,
		OutputTokens:  usage.OutputTokens,
		InputCostUsd:  cost.InputUsd,
		OutputCostUsd: cost.OutputUsd,
		CostUsd:       cost.TotalUsd,
	}
	if estimatedInput {
		record.Metadata = datatypes.JSON(`{"estimated_input":true}`)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.store.RecordUsage(ctx, record); err != nil {
		h.logger.Error("Failed to record streamed usage",
			zap.String("request_id", requestID),
			zap.String("project_id", projectID),
			zap.Float64("cost_usd", cost.TotalUsd),
			zap.Error(err))
		return
	}
	h.sink.OnCost(ctx, record)
}

func copyContentType(w http.ResponseWriter, resp *http.Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
}
