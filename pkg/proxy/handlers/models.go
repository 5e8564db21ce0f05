package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/chatrelay/pkg/catalog"
	"mercator-hq/chatrelay/pkg/proxy"
	"mercator-hq/chatrelay/pkg/proxy/types"
)

// ModelLister returns the current model catalog.
type ModelLister interface {
	Models() []catalog.Model
}

// ModelsHandler serves GET /api/models as a JSON array of models.
type ModelsHandler struct {
	catalog ModelLister
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(c ModelLister) *ModelsHandler {
	return &ModelsHandler{catalog: c}
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		proxy.WriteErrorResponse(w, types.NewErrorResponse(http.StatusMethodNotAllowed,
			"Method "+r.Method+" not allowed. Use GET instead.", types.CodeMethodNotAllowed))
		return
	}

	models := h.catalog.Models()
	if models == nil {
		models = []catalog.Model{}
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, models); err != nil {
		slog.ErrorContext(r.Context(), "failed to write models response", "error", err)
	}
}
