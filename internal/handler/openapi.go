package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document of the admin API. The
// document depends only on configuration, so it is rendered once.
type OpenAPIHandler struct {
	opts openapi.Options

	once sync.Once
	body []byte
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(opts openapi.Options) *OpenAPIHandler {
	return &OpenAPIHandler{opts: opts}
}

// ServeSpec returns the admin API document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.body, h.err = json.Marshal(openapi.GenerateAdminSpec(h.opts))
	})
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render OpenAPI document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
