package tokenizer

import (
	"github.com/tokencap/tokencap/internal/services/providers"
)

// Anthropic does not publish its tokenizer, so the messages path counts
// with cl100k_base and flat overheads. Downstream consumers must treat
// the result as an approximation: confidence caps at medium.
const (
	messagesPerMessageOverhead = 4
	messagesSystemOverhead     = 4
	messagesPerToolOverhead    = 10
	messagesImageTokens        = 1024
)

// CountMessages approximates the input tokens of an Anthropic-shaped
// messages request.
func (t *Tokenizer) CountMessages(req *providers.MessagesRequest) int {
	return countMessages(t.counterForEncoding(encodingCl100k), req)
}

func countMessages(count func(string) int, req *providers.MessagesRequest) int {
	tokens := 0
	for _, msg := range req.Messages {
		tokens += messagesPerMessageOverhead
		tokens += countBlocks(count, msg.Content)
	}

	if req.System != nil {
		if sys := countBlocks(count, req.System); sys > 0 {
			tokens += sys + messagesSystemOverhead
		}
	}

	for _, tool := range req.Tools {
		tokens += count(tool.Name)
		tokens += count(tool.Description)
		tokens += count(jsonString(tool.InputSchema))
		tokens += messagesPerToolOverhead
	}

	return tokens
}

// countBlocks walks string content or a content-block array. Tool
// results nest arbitrarily, so they recurse.
func countBlocks(count func(string) int, content interface{}) int {
	switch c := content.(type) {
	case string:
		return count(c)
	case []interface{}:
		tokens := 0
		for _, block := range c {
			m, ok := block.(map[string]interface{})
			if !ok {
				continue
			}
			switch m["type"] {
			case "text":
				if s, ok := m["text"].(string); ok {
					tokens += count(s)
				}
			case "tool_use":
				if s, ok := m["name"].(string); ok {
					tokens += count(s)
				}
				tokens += count(jsonString(m["input"]))
			case "tool_result":
				tokens += countBlocks(count, m["content"])
			case "image":
				tokens += messagesImageTokens
			default:
				if s, ok := m["text"].(string); ok {
					tokens += count(s)
				}
			}
		}
		return tokens
	}
	return 0
}
