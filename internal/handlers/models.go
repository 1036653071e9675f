package handlers

import (
	"net/http"

	"github.com/tokencap/tokencap/internal/services/pricing"
)

type ModelsHandler struct {
	catalog *pricing.Catalog
}

func NewModelsHandler(catalog *pricing.Catalog) *ModelsHandler {
	return &ModelsHandler{catalog: catalog}
}

// List exposes the pricing catalog. Deprecated rows are hidden unless
// ?deprecated=true; ?provider= filters; ?cheapest=true picks the
// cheapest generative model of a provider.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	provider := q.Get("provider")

	if q.Get("cheapest") == "true" {
		if provider == "" {
			writeError(w, http.StatusBadRequest, ErrInvalidRequest, "cheapest requires a provider")
			return
		}
		row := h.catalog.Cheapest(provider)
		if row == nil {
			writeError(w, http.StatusNotFound, ErrNotFound, "no models for provider "+provider)
			return
		}
		writeJSON(w, http.StatusOK, row)
		return
	}

	var rows []*pricing.ModelPricing
	if provider != "" {
		rows = h.catalog.ModelsForProvider(provider)
	} else {
		rows = h.catalog.Models()
	}

	includeDeprecated := q.Get("deprecated") == "true"
	filtered := make([]*pricing.ModelPricing, 0, len(rows))
	for _, row := range rows {
		if row.Deprecated && !includeDeprecated {
			continue
		}
		filtered = append(filtered, row)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(filtered),
		"models": filtered,
	})
}
