package pricing

// The static pricing table. Rows are declared newest-first within each
// provider so bare-model collisions resolve to the current generation.
// A DefaultMaxOutput of 0 marks non-generative rows.
var catalogRows = []ModelPricing{
	// OpenAI
	{Provider: "openai", Model: "gpt-4.1", InputPricePerM: 2.00, OutputPricePerM: 8.00, ContextWindow: 1047576, DefaultMaxOutput: 32768},
	{Provider: "openai", Model: "gpt-4.1-mini", InputPricePerM: 0.40, OutputPricePerM: 1.60, ContextWindow: 1047576, DefaultMaxOutput: 32768},
	{Provider: "openai", Model: "gpt-4.1-nano", InputPricePerM: 0.10, OutputPricePerM: 0.40, ContextWindow: 1047576, DefaultMaxOutput: 32768},
	{Provider: "openai", Model: "gpt-4o", InputPricePerM: 2.50, OutputPricePerM: 10.00, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "gpt-4o-2024-11-20", InputPricePerM: 2.50, OutputPricePerM: 10.00, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "gpt-4o-2024-08-06", InputPricePerM: 2.50, OutputPricePerM: 10.00, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "gpt-4o-2024-05-13", InputPricePerM: 5.00, OutputPricePerM: 15.00, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "gpt-4o-mini", InputPricePerM: 0.15, OutputPricePerM: 0.60, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "gpt-4o-mini-2024-07-18", InputPricePerM: 0.15, OutputPricePerM: 0.60, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "chatgpt-4o-latest", InputPricePerM: 5.00, OutputPricePerM: 15.00, ContextWindow: 128000, DefaultMaxOutput: 16384},
	{Provider: "openai", Model: "o1", InputPricePerM: 15.00, OutputPricePerM: 60.00, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "o1-2024-12-17", InputPricePerM: 15.00, OutputPricePerM: 60.00, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "o1-mini", InputPricePerM: 3.00, OutputPricePerM: 12.00, ContextWindow: 128000, DefaultMaxOutput: 65536},
	{Provider: "openai", Model: "o1-preview", InputPricePerM: 15.00, OutputPricePerM: 60.00, ContextWindow: 128000, DefaultMaxOutput: 32768, Deprecated: true},
	{Provider: "openai", Model: "o3", InputPricePerM: 2.00, OutputPricePerM: 8.00, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "o3-pro", InputPricePerM: 20.00, OutputPricePerM: 80.00, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "o3-mini", InputPricePerM: 1.10, OutputPricePerM: 4.40, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "o4-mini", InputPricePerM: 1.10, OutputPricePerM: 4.40, ContextWindow: 200000, DefaultMaxOutput: 100000},
	{Provider: "openai", Model: "gpt-4-turbo", InputPricePerM: 10.00, OutputPricePerM: 30.00, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "gpt-4-turbo-2024-04-09", InputPricePerM: 10.00, OutputPricePerM: 30.00, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "gpt-4-turbo-preview", InputPricePerM: 10.00, OutputPricePerM: 30.00, ContextWindow: 128000, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "openai", Model: "gpt-4", InputPricePerM: 30.00, OutputPricePerM: 60.00, ContextWindow: 8192, DefaultMaxOutput: 8192},
	{Provider: "openai", Model: "gpt-4-0613", InputPricePerM: 30.00, OutputPricePerM: 60.00, ContextWindow: 8192, DefaultMaxOutput: 8192, Deprecated: true},
	{Provider: "openai", Model: "gpt-4-32k", InputPricePerM: 60.00, OutputPricePerM: 120.00, ContextWindow: 32768, DefaultMaxOutput: 8192, Deprecated: true},
	{Provider: "openai", Model: "gpt-3.5-turbo", InputPricePerM: 0.50, OutputPricePerM: 1.50, ContextWindow: 16385, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "gpt-3.5-turbo-0125", InputPricePerM: 0.50, OutputPricePerM: 1.50, ContextWindow: 16385, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "gpt-3.5-turbo-1106", InputPricePerM: 1.00, OutputPricePerM: 2.00, ContextWindow: 16385, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "openai", Model: "gpt-3.5-turbo-16k", InputPricePerM: 3.00, OutputPricePerM: 4.00, ContextWindow: 16385, DefaultMaxOutput: 16384, Deprecated: true},
	{Provider: "openai", Model: "gpt-3.5-turbo-0301", InputPricePerM: 1.50, OutputPricePerM: 2.00, ContextWindow: 4097, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "openai", Model: "gpt-3.5-turbo-instruct", InputPricePerM: 1.50, OutputPricePerM: 2.00, ContextWindow: 4096, DefaultMaxOutput: 4096},
	{Provider: "openai", Model: "text-embedding-3-small", InputPricePerM: 0.02, OutputPricePerM: 0, ContextWindow: 8191},
	{Provider: "openai", Model: "text-embedding-3-large", InputPricePerM: 0.13, OutputPricePerM: 0, ContextWindow: 8191},

	// Anthropic
	{Provider: "anthropic", Model: "claude-opus-4-20250514", InputPricePerM: 15.00, OutputPricePerM: 75.00, ContextWindow: 200000, DefaultMaxOutput: 32000},
	{Provider: "anthropic", Model: "claude-sonnet-4-20250514", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 64000},
	{Provider: "anthropic", Model: "claude-3-7-sonnet-20250219", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 64000},
	{Provider: "anthropic", Model: "claude-3-5-sonnet-latest", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 8192},
	{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 8192},
	{Provider: "anthropic", Model: "claude-3-5-sonnet-20240620", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 8192},
	{Provider: "anthropic", Model: "claude-3-5-haiku-latest", InputPricePerM: 0.80, OutputPricePerM: 4.00, ContextWindow: 200000, DefaultMaxOutput: 8192},
	{Provider: "anthropic", Model: "claude-3-5-haiku-20241022", InputPricePerM: 0.80, OutputPricePerM: 4.00, ContextWindow: 200000, DefaultMaxOutput: 8192},
	{Provider: "anthropic", Model: "claude-3-opus-latest", InputPricePerM: 15.00, OutputPricePerM: 75.00, ContextWindow: 200000, DefaultMaxOutput: 4096},
	{Provider: "anthropic", Model: "claude-3-opus-20240229", InputPricePerM: 15.00, OutputPricePerM: 75.00, ContextWindow: 200000, DefaultMaxOutput: 4096},
	{Provider: "anthropic", Model: "claude-3-sonnet-20240229", InputPricePerM: 3.00, OutputPricePerM: 15.00, ContextWindow: 200000, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "anthropic", Model: "claude-3-haiku-20240307", InputPricePerM: 0.25, OutputPricePerM: 1.25, ContextWindow: 200000, DefaultMaxOutput: 4096},
	{Provider: "anthropic", Model: "claude-2.1", InputPricePerM: 8.00, OutputPricePerM: 24.00, ContextWindow: 200000, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "anthropic", Model: "claude-2.0", InputPricePerM: 8.00, OutputPricePerM: 24.00, ContextWindow: 100000, DefaultMaxOutput: 4096, Deprecated: true},
	{Provider: "anthropic", Model: "claude-instant-1.2", InputPricePerM: 0.80, OutputPricePerM: 2.40, ContextWindow: 100000, DefaultMaxOutput: 4096, Deprecated: true},

	// Google
	{Provider: "google", Model: "gemini-2.0-flash", InputPricePerM: 0.10, OutputPricePerM: 0.40, ContextWindow: 1048576, DefaultMaxOutput: 8192},
	{Provider: "google", Model: "gemini-1.5-pro", InputPricePerM: 1.25, OutputPricePerM: 5.00, ContextWindow: 2097152, DefaultMaxOutput: 8192},
	{Provider: "google", Model: "gemini-1.5-flash", InputPricePerM: 0.075, OutputPricePerM: 0.30, ContextWindow: 1048576, DefaultMaxOutput: 8192},

	// Mistral
	{Provider: "mistral", Model: "mistral-large-latest", InputPricePerM: 2.00, OutputPricePerM: 6.00, ContextWindow: 128000, DefaultMaxOutput: 8192},
	{Provider: "mistral", Model: "mistral-small-latest", InputPricePerM: 0.20, OutputPricePerM: 0.60, ContextWindow: 32000, DefaultMaxOutput: 8192},
	{Provider: "mistral", Model: "codestral-latest", InputPricePerM: 0.30, OutputPricePerM: 0.90, ContextWindow: 32000, DefaultMaxOutput: 8192},
	{Provider: "mistral", Model: "open-mistral-nemo", InputPricePerM: 0.13, OutputPricePerM: 0.13, ContextWindow: 128000, DefaultMaxOutput: 8192},

	// Meta
	{Provider: "meta", Model: "llama-3.2-90b-instruct", InputPricePerM: 0.40, OutputPricePerM: 0.50, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "meta", Model: "llama-3.1-70b-instruct", InputPricePerM: 0.35, OutputPricePerM: 0.40, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "meta", Model: "llama-3.1-8b-instruct", InputPricePerM: 0.05, OutputPricePerM: 0.08, ContextWindow: 128000, DefaultMaxOutput: 4096},

	// Cohere
	{Provider: "cohere", Model: "command-r-plus", InputPricePerM: 2.50, OutputPricePerM: 10.00, ContextWindow: 128000, DefaultMaxOutput: 4096},
	{Provider: "cohere", Model: "command-r", InputPricePerM: 0.15, OutputPricePerM: 0.60, ContextWindow: 128000, DefaultMaxOutput: 4096},

	// DeepSeek
	{Provider: "deepseek", Model: "deepseek-chat", InputPricePerM: 0.27, OutputPricePerM: 1.10, ContextWindow: 64000, DefaultMaxOutput: 8192},
	{Provider: "deepseek", Model: "deepseek-reasoner", InputPricePerM: 0.55, OutputPricePerM: 2.19, ContextWindow: 64000, DefaultMaxOutput: 8192},

	// Amazon
	{Provider: "amazon", Model: "nova-premier", InputPricePerM: 2.50, OutputPricePerM: 12.50, ContextWindow: 1000000, DefaultMaxOutput: 32000},
	{Provider: "amazon", Model: "nova-pro", InputPricePerM: 0.80, OutputPricePerM: 3.20, ContextWindow: 300000, DefaultMaxOutput: 5120},
	{Provider: "amazon", Model: "nova-lite", InputPricePerM: 0.06, OutputPricePerM: 0.24, ContextWindow: 300000, DefaultMaxOutput: 5120},
	{Provider: "amazon", Model: "nova-micro", InputPricePerM: 0.035, OutputPricePerM: 0.14, ContextWindow: 128000, DefaultMaxOutput: 5120},
	{Provider: "amazon", Model: "titan-text-express", InputPricePerM: 0.20, OutputPricePerM: 0.60, ContextWindow: 8192, DefaultMaxOutput: 8192},
	{Provider: "amazon", Model: "titan-embed-text-v2", InputPricePerM: 0.02, OutputPricePerM: 0, ContextWindow: 8192},
}

// catalogAliases maps short or historical names to canonical keys.
var catalogAliases = map[string]string{
	"gpt4o":             "openai/gpt-4o",
	"gpt-4o-latest":     "openai/chatgpt-4o-latest",
	"gpt-3.5":           "openai/gpt-3.5-turbo",
	"gpt-35-turbo":      "openai/gpt-3.5-turbo",
	"claude-sonnet-4":   "anthropic/claude-sonnet-4-20250514",
	"claude-opus-4":     "anthropic/claude-opus-4-20250514",
	"claude-3.5-sonnet": "anthropic/claude-3-5-sonnet-latest",
	"claude-3.5-haiku":  "anthropic/claude-3-5-haiku-latest",
	"claude-3-opus":     "anthropic/claude-3-opus-latest",
	"claude-3-sonnet":   "anthropic/claude-3-sonnet-20240229",
	"claude-3-haiku":    "anthropic/claude-3-haiku-20240307",
	"sonnet":            "anthropic/claude-3-5-sonnet-latest",
	"haiku":             "anthropic/claude-3-5-haiku-latest",
	"opus":              "anthropic/claude-3-opus-latest",
	"gemini-pro":        "google/gemini-1.5-pro",
	"gemini-flash":      "google/gemini-2.0-flash",
	"mistral-large":     "mistral/mistral-large-latest",
	"mistral-small":     "mistral/mistral-small-latest",
	"mistral-nemo":      "mistral/open-mistral-nemo",
	"codestral":         "mistral/codestral-latest",
	"command-r+":        "cohere/command-r-plus",
	"deepseek":          "deepseek/deepseek-chat",
	"nova":              "amazon/nova-pro",
	"titan-embed":       "amazon/titan-embed-text-v2",
}

type tablePrefixRule struct {
	Provider string
	Prefix   string
	Target   string
}

// catalogPrefixRules catch dated or regional snapshots the table does not
// list row-by-row, e.g. claude-3-5-sonnet-v2@20241022 or gpt-4o-audio-*.
// Matching happens longest-prefix-first within a provider.
var catalogPrefixRules = []tablePrefixRule{
	{Provider: "openai", Prefix: "gpt-4.1-mini", Target: "openai/gpt-4.1-mini"},
	{Provider: "openai", Prefix: "gpt-4.1-nano", Target: "openai/gpt-4.1-nano"},
	{Provider: "openai", Prefix: "gpt-4.1", Target: "openai/gpt-4.1"},
	{Provider: "openai", Prefix: "gpt-4o-mini", Target: "openai/gpt-4o-mini"},
	{Provider: "openai", Prefix: "gpt-4o", Target: "openai/gpt-4o"},
	{Provider: "openai", Prefix: "chatgpt-4o", Target: "openai/chatgpt-4o-latest"},
	{Provider: "openai", Prefix: "gpt-4-turbo", Target: "openai/gpt-4-turbo"},
	{Provider: "openai", Prefix: "gpt-4-32k", Target: "openai/gpt-4-32k"},
	{Provider: "openai", Prefix: "gpt-4", Target: "openai/gpt-4"},
	{Provider: "openai", Prefix: "gpt-3.5-turbo-16k", Target: "openai/gpt-3.5-turbo-16k"},
	{Provider: "openai", Prefix: "gpt-3.5", Target: "openai/gpt-3.5-turbo"},
	{Provider: "openai", Prefix: "o1-mini", Target: "openai/o1-mini"},
	{Provider: "openai", Prefix: "o1", Target: "openai/o1"},
	{Provider: "openai", Prefix: "o3-mini", Target: "openai/o3-mini"},
	{Provider: "openai", Prefix: "o3-pro", Target: "openai/o3-pro"},
	{Provider: "openai", Prefix: "o3", Target: "openai/o3"},
	{Provider: "openai", Prefix: "o4-mini", Target: "openai/o4-mini"},

	{Provider: "anthropic", Prefix: "claude-opus-4", Target: "anthropic/claude-opus-4-20250514"},
	{Provider: "anthropic", Prefix: "claude-sonnet-4", Target: "anthropic/claude-sonnet-4-20250514"},
	{Provider: "anthropic", Prefix: "claude-3-7-sonnet", Target: "anthropic/claude-3-7-sonnet-20250219"},
	{Provider: "anthropic", Prefix: "claude-3-5-sonnet", Target: "anthropic/claude-3-5-sonnet-latest"},
	{Provider: "anthropic", Prefix: "claude-3-5-haiku", Target: "anthropic/claude-3-5-haiku-latest"},
	{Provider: "anthropic", Prefix: "claude-3-opus", Target: "anthropic/claude-3-opus-latest"},
	{Provider: "anthropic", Prefix: "claude-3-sonnet", Target: "anthropic/claude-3-sonnet-20240229"},
	{Provider: "anthropic", Prefix: "claude-3-haiku", Target: "anthropic/claude-3-haiku-20240307"},
	{Provider: "anthropic", Prefix: "claude-2", Target: "anthropic/claude-2.1"},
	{Provider: "anthropic", Prefix: "claude-instant", Target: "anthropic/claude-instant-1.2"},

	{Provider: "google", Prefix: "gemini-2.0-flash", Target: "google/gemini-2.0-flash"},
	{Provider: "google", Prefix: "gemini-1.5-pro", Target: "google/gemini-1.5-pro"},
	{Provider: "google", Prefix: "gemini-1.5-flash", Target: "google/gemini-1.5-flash"},

	{Provider: "mistral", Prefix: "mistral-large", Target: "mistral/mistral-large-latest"},
	{Provider: "mistral", Prefix: "mistral-small", Target: "mistral/mistral-small-latest"},
	{Provider: "mistral", Prefix: "codestral", Target: "mistral/codestral-latest"},

	{Provider: "meta", Prefix: "llama-3.2-90b", Target: "meta/llama-3.2-90b-instruct"},
	{Provider: "meta", Prefix: "llama-3.1-70b", Target: "meta/llama-3.1-70b-instruct"},
	{Provider: "meta", Prefix: "llama-3.1-8b", Target: "meta/llama-3.1-8b-instruct"},
	{Provider: "meta", Prefix: "llama", Target: "meta/llama-3.1-8b-instruct"},

	{Provider: "cohere", Prefix: "command-r-plus", Target: "cohere/command-r-plus"},
	{Provider: "cohere", Prefix: "command-r", Target: "cohere/command-r"},

	{Provider: "deepseek", Prefix: "deepseek", Target: "deepseek/deepseek-chat"},

	// Bedrock model IDs carry the "amazon." vendor prefix and a ":0"
	// version suffix, e.g. amazon.nova-pro-v1:0.
	{Provider: "amazon", Prefix: "amazon.nova-premier", Target: "amazon/nova-premier"},
	{Provider: "amazon", Prefix: "amazon.nova-pro", Target: "amazon/nova-pro"},
	{Provider: "amazon", Prefix: "amazon.nova-lite", Target: "amazon/nova-lite"},
	{Provider: "amazon", Prefix: "amazon.nova-micro", Target: "amazon/nova-micro"},
	{Provider: "amazon", Prefix: "amazon.titan-embed", Target: "amazon/titan-embed-text-v2"},
	{Provider: "amazon", Prefix: "amazon.titan-text", Target: "amazon/titan-text-express"},
	{Provider: "amazon", Prefix: "nova-premier", Target: "amazon/nova-premier"},
	{Provider: "amazon", Prefix: "nova-pro", Target: "amazon/nova-pro"},
	{Provider: "amazon", Prefix: "nova-lite", Target: "amazon/nova-lite"},
	{Provider: "amazon", Prefix: "nova-micro", Target: "amazon/nova-micro"},
}

// fallbackModelKey prices models the catalog has never heard of.
const fallbackModelKey = "openai/gpt-4o"
