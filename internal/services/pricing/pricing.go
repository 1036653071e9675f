package pricing

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// ModelPricing is one catalog row. Prices are USD per million tokens and
// carry at least six-decimal precision.
type ModelPricing struct {
	Provider         string  `json:"provider"`
	Model            string  `json:"model"`
	InputPricePerM   float64 `json:"input_price_per_m"`
	OutputPricePerM  float64 `json:"output_price_per_m"`
	ContextWindow    int     `json:"context_window"`
	DefaultMaxOutput int     `json:"default_max_output"`
	Deprecated       bool    `json:"deprecated,omitempty"`
}

// Key returns the canonical catalog key.
func (p *ModelPricing) Key() string {
	return p.Provider + "/" + p.Model
}

// Cost is a computed charge. Values are unrounded; round on exposure only.
type Cost struct {
	InputUsd  float64 `json:"input_usd"`
	OutputUsd float64 `json:"output_usd"`
	TotalUsd  float64 `json:"total_usd"`
}

// Catalog resolves model names to pricing rows. It is built once from the
// static table and is safe for concurrent readers.
type Catalog struct {
	rows     []*ModelPricing
	byKey    map[string]*ModelPricing
	byModel  map[string]*ModelPricing
	aliases  map[string]*ModelPricing
	prefixes []resolvedPrefix
	fallback *ModelPricing
}

type resolvedPrefix struct {
	provider string
	prefix   string
	row      *ModelPricing
}

var (
	catalog     *Catalog
	catalogOnce sync.Once
)

// Default returns the process-wide catalog built from the static table.
func Default() *Catalog {
	catalogOnce.Do(func() {
		catalog = New()
	})
	return catalog
}

// New builds a catalog from the declarative table data.
func New() *Catalog {
	return build(catalogRows, catalogAliases, catalogPrefixRules, fallbackModelKey)
}

func build(rows []ModelPricing, aliases map[string]string, rules []tablePrefixRule, fallbackKey string) *Catalog {
	c := &Catalog{
		byKey:   make(map[string]*ModelPricing, len(rows)),
		byModel: make(map[string]*ModelPricing, len(rows)),
		aliases: make(map[string]*ModelPricing, len(aliases)),
	}

	for i := range rows {
		row := &rows[i]
		c.rows = append(c.rows, row)
		c.byKey[row.Key()] = row
		// First declared wins for bare-model lookups.
		if _, ok := c.byModel[row.Model]; !ok {
			c.byModel[row.Model] = row
		}
	}

	for name, key := range aliases {
		if row, ok := c.byKey[key]; ok {
			c.aliases[strings.ToLower(name)] = row
		}
	}

	for _, rule := range rules {
		if row, ok := c.byKey[rule.Target]; ok {
			c.prefixes = append(c.prefixes, resolvedPrefix{
				provider: rule.Provider,
				prefix:   strings.ToLower(rule.Prefix),
				row:      row,
			})
		}
	}
	// Longest prefix first; declaration order breaks ties.
	sort.SliceStable(c.prefixes, func(i, j int) bool {
		return len(c.prefixes[i].prefix) > len(c.prefixes[j].prefix)
	})

	c.fallback = c.byKey[fallbackKey]
	return c
}

// Resolve maps a (provider, model) pair to a pricing row. The second
// return reports whether the fallback row was used, which demotes the
// estimate confidence downstream. Resolve never fails: unknown models get
// the fallback row.
//
// Match order: exact provider+model, exact model across providers, alias
// table, provider prefix rules (longest first), fallback.
func (c *Catalog) Resolve(provider, model string) (*ModelPricing, bool) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.ToLower(strings.TrimSpace(model))

	if model == "" {
		return c.fallback, true
	}

	if provider != "" {
		if row, ok := c.byKey[provider+"/"+model]; ok {
			return row, false
		}
	}

	if row, ok := c.byModel[model]; ok {
		return row, false
	}

	if row, ok := c.aliases[model]; ok {
		return row, false
	}

	for _, rule := range c.prefixes {
		if provider != "" && rule.provider != provider {
			continue
		}
		if strings.HasPrefix(model, rule.prefix) {
			return rule.row, false
		}
	}

	return c.fallback, true
}

// Lookup resolves by model name alone.
func (c *Catalog) Lookup(model string) (*ModelPricing, bool) {
	return c.Resolve("", model)
}

// Fallback exposes the designated fallback row.
func (c *Catalog) Fallback() *ModelPricing {
	return c.fallback
}

// Calculate prices a token pair against a row. Results are unrounded.
func (c *Catalog) Calculate(row *ModelPricing, inputTokens, outputTokens int) Cost {
	in := TokenCost(inputTokens, row.InputPricePerM)
	out := TokenCost(outputTokens, row.OutputPricePerM)
	return Cost{
		InputUsd:  in,
		OutputUsd: out,
		TotalUsd:  in + out,
	}
}

// CalculateFor resolves the model and prices the pair in one step.
func (c *Catalog) CalculateFor(provider, model string, inputTokens, outputTokens int) (Cost, *ModelPricing, bool) {
	row, fellBack := c.Resolve(provider, model)
	return c.Calculate(row, inputTokens, outputTokens), row, fellBack
}

// Models returns the full table in declaration order. Callers must treat
// rows as read-only.
func (c *Catalog) Models() []*ModelPricing {
	return c.rows
}

// ModelsForProvider filters the table by provider.
func (c *Catalog) ModelsForProvider(provider string) []*ModelPricing {
	provider = strings.ToLower(strings.TrimSpace(provider))
	var out []*ModelPricing
	for _, row := range c.rows {
		if row.Provider == provider {
			out = append(out, row)
		}
	}
	return out
}

// Cheapest returns the lowest-priced generative row for a provider,
// comparing input+output price. Deprecated rows and rows without a
// generation cap (embeddings) are not candidates. Returns nil when the
// provider has none.
func (c *Catalog) Cheapest(provider string) *ModelPricing {
	provider = strings.ToLower(strings.TrimSpace(provider))
	var best *ModelPricing
	for _, row := range c.rows {
		if row.Provider != provider || row.Deprecated || row.DefaultMaxOutput == 0 {
			continue
		}
		if best == nil || row.InputPricePerM+row.OutputPricePerM < best.InputPricePerM+best.OutputPricePerM {
			best = row
		}
	}
	return best
}

// TokenCost converts a token count to USD at a per-million rate.
func TokenCost(tokens int, pricePerM float64) float64 {
	return float64(tokens) * pricePerM / 1_000_000
}

// RoundUsd rounds half-up to six decimals. Apply only at exposure
// boundaries (headers, JSON responses); internal sums stay unrounded so
// repeated rounding cannot drift.
func RoundUsd(v float64) float64 {
	return math.Floor(v*1e6+0.5) / 1e6
}
