package providers

import (
	"context"
	"net/http"
)

// Provider family keys. They double as pricing catalog providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Adapter is the provider-family port. One implementation exists per
// upstream API shape; the pipeline drives every request through this
// interface and never branches on the concrete family.
type Adapter interface {
	// Name is the provider key used for pricing lookups.
	Name() string

	// ParseRequest validates a request body and returns the normalized
	// view needed for estimation and admission.
	ParseRequest(body []byte) (*ParsedRequest, error)

	// ResolveAPIKey picks the upstream credential. The client's
	// provider-native auth header wins; the configured default backs it
	// up. ok is false when neither is present.
	ResolveAPIKey(h http.Header) (key string, ok bool)

	// Forward sends the body verbatim to the upstream endpoint. The
	// caller owns the response body.
	Forward(ctx context.Context, body []byte, apiKey string, stream bool) (*http.Response, error)

	// ExtractUsage pulls token counts from a buffered 2xx response body.
	ExtractUsage(body []byte) (TokenUsage, bool)

	// NewStreamParser returns a per-request accumulator for SSE usage
	// signals.
	NewStreamParser(model string) StreamParser
}

// StreamParser accumulates usage from SSE payloads while the raw bytes
// flow to the client untouched.
type StreamParser interface {
	// Observe consumes one SSE data payload (the bytes after "data:").
	Observe(payload []byte)

	// Usage reports the counts accumulated so far. InputObserved is
	// false when the stream never carried an input token count; the
	// caller substitutes the pre-execution estimate.
	Usage() StreamUsage
}

// TokenCounter supplies request token counting to adapters without
// binding them to a tokenizer implementation.
type TokenCounter interface {
	CountChat(req *ChatRequest) int
	CountMessages(req *MessagesRequest) int
	CounterFor(model string) func(text string) int
}

// ParsedRequest is the provider-neutral view of an inbound request.
type ParsedRequest struct {
	Provider    string
	Model       string
	Stream      bool
	MaxTokens   *int
	InputTokens int
}

// TokenUsage is the provider-neutral view of a usage report.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// StreamUsage is what a stream parser hands back when the stream ends.
type StreamUsage struct {
	TokenUsage
	InputObserved bool
}

// Options configures an adapter.
type Options struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Counter TokenCounter
}

// Request/response types matching the OpenAI chat completions format.

type ChatRequest struct {
	Model            string          `json:"model"`
	Messages         []Message       `json:"messages"`
	Temperature      *float32        `json:"temperature,omitempty"`
	TopP             *float32        `json:"top_p,omitempty"`
	N                *int            `json:"n,omitempty"`
	Stream           bool            `json:"stream,omitempty"`
	StreamOptions    *StreamOptions  `json:"stream_options,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
	MaxTokens        *int            `json:"max_tokens,omitempty"`
	PresencePenalty  *float32        `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float32        `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]int  `json:"logit_bias,omitempty"`
	User             string          `json:"user,omitempty"`
	ResponseFormat   *ResponseFormat `json:"response_format,omitempty"`
	Seed             *int            `json:"seed,omitempty"`
	Tools            []Tool          `json:"tools,omitempty"`
	ToolChoice       interface{}     `json:"tool_choice,omitempty"`
}

type Message struct {
	Role       string      `json:"role"`
	Content    interface{} `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type Function struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  interface{} `json:"parameters,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ChatResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message,omitempty"`
	Delta        Message `json:"delta,omitempty"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request/response types matching the Anthropic messages format.

type MessagesRequest struct {
	Model         string                 `json:"model"`
	Messages      []AnthropicMessage     `json:"messages"`
	System        interface{}            `json:"system,omitempty"`
	MaxTokens     int                    `json:"max_tokens"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	StopSequences []string               `json:"stop_sequences,omitempty"`
	Stream        bool                   `json:"stream,omitempty"`
	Temperature   *float32               `json:"temperature,omitempty"`
	TopK          *int                   `json:"top_k,omitempty"`
	TopP          *float32               `json:"top_p,omitempty"`
	Tools         []AnthropicTool        `json:"tools,omitempty"`
	ToolChoice    interface{}            `json:"tool_choice,omitempty"`
}

type AnthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type AnthropicTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema interface{} `json:"input_schema,omitempty"`
}

type MessagesResponse struct {
	ID           string                   `json:"id"`
	Type         string                   `json:"type"`
	Role         string                   `json:"role"`
	Model        string                   `json:"model"`
	Content      []map[string]interface{} `json:"content"`
	StopReason   string                   `json:"stop_reason"`
	StopSequence *string                  `json:"stop_sequence"`
	Usage        AnthropicUsage           `json:"usage"`
}

type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Upstream error envelope, shared shape across both families.

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Param   string      `json:"param,omitempty"`
	Code    interface{} `json:"code,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
