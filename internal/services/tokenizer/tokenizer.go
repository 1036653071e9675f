// Package tokenizer counts request tokens with tiktoken BPE encodings
// and estimates output tokens ahead of the upstream call. Encoders are
// constructed lazily, cached process-wide, and dropped on shutdown.
package tokenizer

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/tokencap/tokencap/internal/logger"
)

const (
	encodingO200k  = "o200k_base"
	encodingCl100k = "cl100k_base"
)

// o200kFamilies holds the model-name prefixes served by the 200k
// vocabulary. Everything else counts with cl100k_base.
var o200kFamilies = []string{"gpt-4o", "chatgpt-4o", "gpt-4.1", "o1", "o3", "o4"}

// Confidence grades how much an estimate can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// MinConfidence returns the weaker of two grades.
func MinConfidence(a, b Confidence) Confidence {
	if a.rank() <= b.rank() {
		return a
	}
	return b
}

// Tokenizer owns the encoder cache. Safe for concurrent use.
type Tokenizer struct {
	mu     sync.Mutex
	encs   map[string]*tiktoken.Tiktoken
	failed map[string]bool
}

var (
	defaultTokenizer *Tokenizer
	defaultOnce      sync.Once
)

// Default returns the process-wide tokenizer.
func Default() *Tokenizer {
	defaultOnce.Do(func() {
		defaultTokenizer = New()
	})
	return defaultTokenizer
}

// New returns an empty tokenizer; encoders load on first use.
func New() *Tokenizer {
	return &Tokenizer{
		encs:   make(map[string]*tiktoken.Tiktoken),
		failed: make(map[string]bool),
	}
}

// EncodingForModel maps a model name to its BPE encoding name.
func EncodingForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, family := range o200kFamilies {
		if strings.HasPrefix(m, family) {
			return encodingO200k
		}
	}
	return encodingCl100k
}

// CountText counts tokens in raw text with the model's encoding.
func (t *Tokenizer) CountText(model, text string) int {
	return t.CounterFor(model)(text)
}

// CounterFor returns a counting closure bound to the model's encoding.
// Stream interceptors hold one of these per request so the encoder
// lookup happens once, not per chunk.
func (t *Tokenizer) CounterFor(model string) func(text string) int {
	return t.counterForEncoding(EncodingForModel(model))
}

func (t *Tokenizer) counterForEncoding(name string) func(text string) int {
	enc := t.encoder(name)
	if enc == nil {
		return approxTokens
	}
	return func(text string) int {
		if text == "" {
			return 0
		}
		return len(enc.Encode(text, nil, nil))
	}
}

func (t *Tokenizer) encoder(name string) *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.encs[name]; ok {
		return enc
	}
	if t.failed[name] {
		return nil
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		t.failed[name] = true
		logger.Get().Warn("BPE encoding unavailable, using character heuristic",
			zap.String("encoding", name),
			zap.Error(err))
		return nil
	}
	t.encs[name] = enc
	return enc
}

// Close drops the cached encoders so their vocabulary tables can be
// reclaimed. Safe to call more than once; the next count reloads.
func (t *Tokenizer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.encs = make(map[string]*tiktoken.Tiktoken)
	t.failed = make(map[string]bool)
}

// EstimateOutput predicts output tokens before the upstream call.
// A client-specified cap dominates, then the model's documented default
// maximum, then the configured fallback.
func EstimateOutput(maxTokens *int, modelDefaultMax, configuredDefault int) (int, Confidence) {
	if maxTokens != nil && *maxTokens > 0 {
		est := *maxTokens * 3 / 4
		if est < 1 {
			est = 1
		}
		return est, ConfidenceHigh
	}
	if modelDefaultMax > 0 {
		return modelDefaultMax / 2, ConfidenceMedium
	}
	return configuredDefault, ConfidenceLow
}

// approxTokens is the emergency path when an encoding cannot be loaded:
// max(runes/4, words), minimum 1 for non-empty text.
func approxTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	runes := len([]rune(trimmed))
	words := len(strings.Fields(trimmed))
	estimate := runes / 4
	if estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

func jsonString(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
