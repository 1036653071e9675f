package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// AnthropicAdapter speaks the messages API.
type AnthropicAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	counter TokenCounter
}

func NewAnthropicAdapter(opts Options) *AnthropicAdapter {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	client := opts.Client
	if client == nil {
		client = NewHTTPClient(0, 0)
	}
	return &AnthropicAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  opts.APIKey,
		client:  client,
		counter: opts.Counter,
	}
}

func (a *AnthropicAdapter) Name() string {
	return ProviderAnthropic
}

func (a *AnthropicAdapter) ParseRequest(body []byte) (*ParsedRequest, error) {
	var req MessagesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request body: %w", err)
	}
	if req.Model == "" {
		return nil, errors.New("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages must not be empty")
	}
	if req.MaxTokens <= 0 {
		return nil, errors.New("max_tokens is required and must be positive")
	}

	maxTokens := req.MaxTokens
	return &ParsedRequest{
		Provider:    ProviderAnthropic,
		Model:       req.Model,
		Stream:      req.Stream,
		MaxTokens:   &maxTokens,
		InputTokens: a.counter.CountMessages(&req),
	}, nil
}

func (a *AnthropicAdapter) ResolveAPIKey(h http.Header) (string, bool) {
	if key := strings.TrimSpace(h.Get("X-Api-Key")); key != "" {
		return key, true
	}
	if a.apiKey != "" {
		return a.apiKey, true
	}
	return "", false
}

func (a *AnthropicAdapter) Forward(ctx context.Context, body []byte, apiKey string, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Anthropic-Version", anthropicVersion)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}
	return resp, nil
}

func (a *AnthropicAdapter) ExtractUsage(body []byte) (TokenUsage, bool) {
	var resp MessagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return TokenUsage{}, false
	}
	if resp.Usage.InputTokens == 0 && resp.Usage.OutputTokens == 0 {
		return TokenUsage{}, false
	}
	return TokenUsage{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, true
}

func (a *AnthropicAdapter) NewStreamParser(string) StreamParser {
	return &anthropicStreamParser{}
}

// anthropicStreamParser reads the usage the upstream reports in-band:
// message_start carries input_tokens, each message_delta carries the
// running output_tokens total. The last observed value wins.
type anthropicStreamParser struct {
	inputTokens   int
	inputObserved bool
	outputTokens  int
}

type anthropicStreamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage AnthropicUsage `json:"usage"`
	} `json:"message,omitempty"`
	Usage *AnthropicUsage `json:"usage,omitempty"`
}

func (p *anthropicStreamParser) Observe(payload []byte) {
	if bytes.Equal(payload, []byte("[DONE]")) {
		return
	}

	var event anthropicStreamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil {
			p.inputTokens = event.Message.Usage.InputTokens
			p.inputObserved = true
			if event.Message.Usage.OutputTokens > 0 {
				p.outputTokens = event.Message.Usage.OutputTokens
			}
		}
	case "message_delta":
		if event.Usage != nil && event.Usage.OutputTokens > 0 {
			p.outputTokens = event.Usage.OutputTokens
		}
	}
}

func (p *anthropicStreamParser) Usage() StreamUsage {
	return StreamUsage{
		TokenUsage: TokenUsage{
			InputTokens:  p.inputTokens,
			OutputTokens: p.outputTokens,
		},
		InputObserved: p.inputObserved,
	}
}
