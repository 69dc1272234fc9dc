// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// MatchHandler runs a matching cycle on demand.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// HandleMatch handles POST /match by running one cycle synchronously and
// returning its summary. Operators use this to force a pass without
// waiting for the trigger queue.
func (h *MatchHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	summary, err := h.deps.RunMatching(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "matching_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
