package tokenizer

import (
	"strings"

	"github.com/tokencap/tokencap/internal/services/providers"
)

// Per-message and tool overheads for the OpenAI chat format. The
// per-message constant covers the <|im_start|>role / <|im_end|> framing;
// gpt-3.5-turbo-0301 used a wider frame.
const (
	chatTokensPerMessage     = 3
	chatTokensPerMessage0301 = 4
	chatTokensPerName        = 1
	chatReplyPrimer          = 3
	chatPerToolOverhead      = 8
	chatToolsOverhead        = 12
	chatPerToolCallOverhead  = 4
	chatImageTokens          = 85
)

// CountChat counts the input tokens of an OpenAI-shaped chat request,
// including message framing, tool definitions, and the assistant reply
// primer.
func (t *Tokenizer) CountChat(req *providers.ChatRequest) int {
	return countChat(t.CounterFor(req.Model), req)
}

func countChat(count func(string) int, req *providers.ChatRequest) int {
	perMessage := chatTokensPerMessage
	if strings.ToLower(req.Model) == "gpt-3.5-turbo-0301" {
		perMessage = chatTokensPerMessage0301
	}

	tokens := 0
	for _, msg := range req.Messages {
		tokens += perMessage
		tokens += count(msg.Role)
		tokens += countChatContent(count, msg.Content)
		if msg.Name != "" {
			tokens += count(msg.Name) + chatTokensPerName
		}
		for _, call := range msg.ToolCalls {
			tokens += count(call.Function.Name)
			tokens += count(call.Function.Arguments)
			tokens += chatPerToolCallOverhead
		}
		if msg.ToolCallID != "" {
			tokens += count(msg.ToolCallID)
		}
	}

	if len(req.Tools) > 0 {
		for _, tool := range req.Tools {
			tokens += count(tool.Function.Name)
			tokens += count(tool.Function.Description)
			tokens += count(jsonString(tool.Function.Parameters))
			tokens += chatPerToolOverhead
		}
		tokens += chatToolsOverhead
	}

	return tokens + chatReplyPrimer
}

// countChatContent handles both plain-string content and multimodal
// part arrays. Image parts get a flat low-detail estimate.
func countChatContent(count func(string) int, content interface{}) int {
	switch c := content.(type) {
	case string:
		return count(c)
	case []interface{}:
		tokens := 0
		for _, part := range c {
			m, ok := part.(map[string]interface{})
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				tokens += count(text)
			}
			if m["type"] == "image_url" {
				tokens += chatImageTokens
			}
		}
		return tokens
	}
	return 0
}
