package search

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tracefind/trace-search/internal/index"
	"github.com/tracefind/trace-search/internal/pkg/errors"
	"github.com/tracefind/trace-search/internal/pkg/logger"
)

// Handler provides HTTP handlers for search operations.
type Handler struct {
	svc    *Service
	health *HealthChecker
	log    *logger.Logger
}

// NewHandler creates a new search handler.
func NewHandler(svc *Service, health *HealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		svc:    svc,
		health: health,
		log:    log,
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleSearch handles POST /api/v1/search
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	resp, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.log.Error("Search failed", "error", err)
		errors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/v1/search/{query_id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "query_id")
	if queryID == "" {
		errors.WriteError(w, errors.InvalidRequestError("query_id is required"))
		return
	}

	resp, err := h.svc.Get(r.Context(), queryID)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// LookupResponse is the JSON response for index lookups.
type LookupResponse struct {
	Term  string      `json:"term"`
	Docs  []index.Doc `json:"docs"`
	Total int         `json:"total"`
}

// HandleLookup handles GET /api/v1/index/lookup?term=
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")

	docs, err := h.svc.Lookup(r.Context(), term)
	if err != nil {
		errors.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{
		Term:  term,
		Docs:  docs,
		Total: len(docs),
	})
}

// HandleHealth handles GET /healthz
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.health.Check(r.Context())

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
