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

// OpenAIAdapter speaks the chat completions API. It also covers any
// upstream that clones that shape.
type OpenAIAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
	counter TokenCounter
}

func NewOpenAIAdapter(opts Options) *OpenAIAdapter {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	client := opts.Client
	if client == nil {
		client = NewHTTPClient(0, 0)
	}
	return &OpenAIAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  opts.APIKey,
		client:  client,
		counter: opts.Counter,
	}
}

func (a *OpenAIAdapter) Name() string {
	return ProviderOpenAI
}

func (a *OpenAIAdapter) ParseRequest(body []byte) (*ParsedRequest, error) {
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request body: %w", err)
	}
	if req.Model == "" {
		return nil, errors.New("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages must not be empty")
	}

	return &ParsedRequest{
		Provider:    ProviderOpenAI,
		Model:       req.Model,
		Stream:      req.Stream,
		MaxTokens:   req.MaxTokens,
		InputTokens: a.counter.CountChat(&req),
	}, nil
}

func (a *OpenAIAdapter) ResolveAPIKey(h http.Header) (string, bool) {
	if auth := h.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if key := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); key != "" {
			return key, true
		}
	}
	if a.apiKey != "" {
		return a.apiKey, true
	}
	return "", false
}

func (a *OpenAIAdapter) Forward(ctx context.Context, body []byte, apiKey string, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}
	return resp, nil
}

func (a *OpenAIAdapter) ExtractUsage(body []byte) (TokenUsage, bool) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Usage == nil {
		return TokenUsage{}, false
	}
	return TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, true
}

func (a *OpenAIAdapter) NewStreamParser(model string) StreamParser {
	return &openAIStreamParser{count: a.counter.CounterFor(model)}
}

// openAIStreamParser counts delta content with the request model's BPE
// encoder. When the upstream sends a final usage chunk
// (stream_options.include_usage), its exact numbers win over the count.
type openAIStreamParser struct {
	count        func(string) int
	outputTokens int
	final        *TokenUsage
}

func (p *openAIStreamParser) Observe(payload []byte) {
	if bytes.Equal(payload, []byte("[DONE]")) {
		return
	}

	var chunk ChatResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return
	}

	if chunk.Usage != nil {
		p.final = &TokenUsage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		}
	}

	for _, choice := range chunk.Choices {
		if content, ok := choice.Delta.Content.(string); ok && content != "" {
			p.outputTokens += p.count(content)
		}
	}
}

func (p *openAIStreamParser) Usage() StreamUsage {
	if p.final != nil {
		return StreamUsage{TokenUsage: *p.final, InputObserved: true}
	}
	return StreamUsage{TokenUsage: TokenUsage{OutputTokens: p.outputTokens}}
}
