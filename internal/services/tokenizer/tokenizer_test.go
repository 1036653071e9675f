package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tokencap/tokencap/internal/services/providers"
)

// wordCount stands in for a BPE encoder so the arithmetic under test is
// deterministic and needs no vocabulary download.
func wordCount(text string) int {
	return len(strings.Fields(text))
}

func intPtr(v int) *int {
	return &v
}

func TestEncodingForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{model: "gpt-4o", want: encodingO200k},
		{model: "gpt-4o-mini-2024-07-18", want: encodingO200k},
		{model: "chatgpt-4o-latest", want: encodingO200k},
		{model: "gpt-4.1-nano", want: encodingO200k},
		{model: "o1-mini", want: encodingO200k},
		{model: "o3", want: encodingO200k},
		{model: "o4-mini", want: encodingO200k},
		{model: "GPT-4O", want: encodingO200k},
		{model: "gpt-4-turbo", want: encodingCl100k},
		{model: "gpt-3.5-turbo", want: encodingCl100k},
		{model: "claude-3-5-sonnet-20241022", want: encodingCl100k},
		{model: "llama-3.1-8b-instruct", want: encodingCl100k},
		{model: "", want: encodingCl100k},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodingForModel(tt.model))
		})
	}
}

func TestCountChat(t *testing.T) {
	tests := []struct {
		name string
		req  *providers.ChatRequest
		want int
	}{
		{
			name: "single message",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{Role: "user", Content: "hello there world"},
				},
			},
			// 3 frame + 1 role + 3 content + 3 primer
			want: 10,
		},
		{
			name: "legacy 0301 frame",
			req: &providers.ChatRequest{
				Model: "gpt-3.5-turbo-0301",
				Messages: []providers.Message{
					{Role: "user", Content: "hello there world"},
				},
			},
			// 4 frame + 1 role + 3 content + 3 primer
			want: 11,
		},
		{
			name: "named participant",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{Role: "user", Content: "hi", Name: "alice"},
				},
			},
			// 3 + 1 role + 1 content + (1 name + 1) + 3 primer
			want: 10,
		},
		{
			name: "multi turn",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{Role: "system", Content: "be brief"},
					{Role: "user", Content: "question here"},
					{Role: "assistant", Content: "answer"},
				},
			},
			// 3*(3 frame + 1 role) + 2 + 2 + 1 content + 3 primer
			want: 20,
		},
		{
			name: "tool definitions",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{Role: "user", Content: "weather please"},
				},
				Tools: []providers.Tool{
					{
						Type: "function",
						Function: providers.Function{
							Name:        "get_weather",
							Description: "Gets current weather",
							Parameters:  map[string]interface{}{"type": "object"},
						},
					},
				},
			},
			// message: 3 + 1 + 2; tool: 1 name + 3 desc + 1 params json
			// + 8 per tool + 12 collection; + 3 primer
			want: 34,
		},
		{
			name: "assistant tool calls",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{
						Role: "assistant",
						ToolCalls: []providers.ToolCall{
							{
								ID:   "call_1",
								Type: "function",
								Function: providers.FunctionCall{
									Name:      "get_weather",
									Arguments: `{"city":"paris"}`,
								},
							},
						},
					},
					{Role: "tool", Content: "sunny", ToolCallID: "call_1"},
				},
			},
			// msg1: 3 + 1 role + (1 name + 1 args + 4)
			// msg2: 3 + 1 role + 1 content + 1 tool_call_id
			// + 3 primer
			want: 19,
		},
		{
			name: "multimodal content parts",
			req: &providers.ChatRequest{
				Model: "gpt-4o",
				Messages: []providers.Message{
					{
						Role: "user",
						Content: []interface{}{
							map[string]interface{}{"type": "text", "text": "describe this image"},
							map[string]interface{}{"type": "image_url", "image_url": map[string]interface{}{"url": "https://example.com/a.png"}},
						},
					},
				},
			},
			// 3 frame + 1 role + 3 text + 85 image + 3 primer
			want: 95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countChat(wordCount, tt.req))
		})
	}
}

func TestCountMessages(t *testing.T) {
	tests := []struct {
		name string
		req  *providers.MessagesRequest
		want int
	}{
		{
			name: "string content",
			req: &providers.MessagesRequest{
				Model: "claude-3-5-sonnet-20241022",
				Messages: []providers.AnthropicMessage{
					{Role: "user", Content: "hello there"},
				},
			},
			// 4 overhead + 2 content
			want: 6,
		},
		{
			name: "system prompt",
			req: &providers.MessagesRequest{
				Model:  "claude-3-5-sonnet-20241022",
				System: "answer briefly",
				Messages: []providers.AnthropicMessage{
					{Role: "user", Content: "hi"},
				},
			},
			// (4 + 1) message + (2 + 4) system
			want: 11,
		},
		{
			name: "content block array",
			req: &providers.MessagesRequest{
				Model: "claude-3-5-sonnet-20241022",
				Messages: []providers.AnthropicMessage{
					{
						Role: "user",
						Content: []interface{}{
							map[string]interface{}{"type": "text", "text": "first part"},
							map[string]interface{}{"type": "text", "text": "second part"},
						},
					},
				},
			},
			// 4 overhead + 2 + 2
			want: 8,
		},
		{
			name: "tool use and result blocks",
			req: &providers.MessagesRequest{
				Model: "claude-3-5-sonnet-20241022",
				Messages: []providers.AnthropicMessage{
					{
						Role: "assistant",
						Content: []interface{}{
							map[string]interface{}{
								"type":  "tool_use",
								"name":  "search",
								"input": map[string]interface{}{"q": "go"},
							},
						},
					},
					{
						Role: "user",
						Content: []interface{}{
							map[string]interface{}{
								"type":    "tool_result",
								"content": "found three results",
							},
						},
					},
				},
			},
			// msg1: 4 + 1 name + 1 input json
			// msg2: 4 + 3 result text
			want: 13,
		},
		{
			name: "tool definitions",
			req: &providers.MessagesRequest{
				Model: "claude-3-5-sonnet-20241022",
				Messages: []providers.AnthropicMessage{
					{Role: "user", Content: "hi"},
				},
				Tools: []providers.AnthropicTool{
					{
						Name:        "search",
						Description: "Searches the web",
						InputSchema: map[string]interface{}{"type": "object"},
					},
				},
			},
			// (4 + 1) message + 1 name + 3 desc + 1 schema json + 10
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countMessages(wordCount, tt.req))
		})
	}
}

func TestEstimateOutput(t *testing.T) {
	tests := []struct {
		name           string
		maxTokens      *int
		modelDefault   int
		configDefault  int
		wantTokens     int
		wantConfidence Confidence
	}{
		{
			name:           "client cap dominates",
			maxTokens:      intPtr(1000),
			modelDefault:   8192,
			configDefault:  4096,
			wantTokens:     750,
			wantConfidence: ConfidenceHigh,
		},
		{
			name:           "small cap never rounds to zero",
			maxTokens:      intPtr(1),
			wantTokens:     1,
			wantConfidence: ConfidenceHigh,
		},
		{
			name:           "model default at half",
			modelDefault:   8192,
			configDefault:  4096,
			wantTokens:     4096,
			wantConfidence: ConfidenceMedium,
		},
		{
			name:           "configured fallback",
			configDefault:  4096,
			wantTokens:     4096,
			wantConfidence: ConfidenceLow,
		},
		{
			name:           "zero cap treated as absent",
			maxTokens:      intPtr(0),
			modelDefault:   2048,
			configDefault:  4096,
			wantTokens:     1024,
			wantConfidence: ConfidenceMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, confidence := EstimateOutput(tt.maxTokens, tt.modelDefault, tt.configDefault)
			assert.Equal(t, tt.wantTokens, tokens)
			assert.Equal(t, tt.wantConfidence, confidence)
		})
	}
}

func TestMinConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceLow, MinConfidence(ConfidenceLow, ConfidenceHigh))
	assert.Equal(t, ConfidenceLow, MinConfidence(ConfidenceHigh, ConfidenceLow))
	assert.Equal(t, ConfidenceMedium, MinConfidence(ConfidenceMedium, ConfidenceHigh))
	assert.Equal(t, ConfidenceHigh, MinConfidence(ConfidenceHigh, ConfidenceHigh))
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 0, approxTokens("   "))
	assert.Equal(t, 1, approxTokens("a"))
	assert.Equal(t, 2, approxTokens("hello world"))
	assert.Equal(t, 10, approxTokens(strings.Repeat("abcd", 10)))
}
