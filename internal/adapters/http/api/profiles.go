// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/mingle/internal/domain/model"
)

// profileRequest mirrors the wire schema for POST /profiles.
type profileRequest struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Bio             string   `json:"bio"`
	Interests       []string `json:"interests"`
	ExpertiseLevels []int    `json:"expertise_levels"`
}

func (p profileRequest) validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(p.DisplayName) == "":
		return errors.New("missing display_name")
	case len(p.Interests) == 0:
		return errors.New("missing interests")
	}
	return nil
}

// ProfilesHandler serves profile reads and upserts.
type ProfilesHandler struct {
	deps Dependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps Dependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// HandleSaveProfile handles POST /profiles. Saving never assigns a
// group; placement is the engine's job.
func (h *ProfilesHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	p := model.Profile{
		ID:              req.ID,
		DisplayName:     req.DisplayName,
		Bio:             req.Bio,
		Interests:       req.Interests,
		ExpertiseLevels: req.ExpertiseLevels,
	}
	if err := h.deps.SaveProfile(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved", "id": p.ID})
}

// HandleListUnassigned handles GET /profiles/unassigned.
func (h *ProfilesHandler) HandleListUnassigned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	profiles, err := h.deps.UnassignedProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// HandleGetProfile handles GET /profiles/{id}.
func (h *ProfilesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/profiles/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	p, err := h.deps.Profile(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
