// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/mingle/internal/adapters/repository"
	"github.com/okian/mingle/internal/domain/dedupe"
	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Tracker

	// Enqueue pushes a matching trigger for async processing. Returns
	// false on backpressure.
	Enqueue(ctx context.Context, t model.Trigger) bool

	// RunMatching executes one matching cycle synchronously.
	RunMatching(ctx context.Context) (types.MatchSummary, error)

	// Read operations over groups and profiles.
	Groups(ctx context.Context) ([]types.GroupView, error)
	Group(ctx context.Context, id string) (types.GroupView, error)
	Profile(ctx context.Context, id string) (model.Profile, error)
	UnassignedProfiles(ctx context.Context) ([]model.Profile, error)

	// SaveProfile upserts an attendee profile.
	SaveProfile(ctx context.Context, p model.Profile) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	triggersHandler *TriggersHandler
	matchHandler    *MatchHandler
	groupsHandler   *GroupsHandler
	profilesHandler *ProfilesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		triggersHandler: NewTriggersHandler(deps),
		matchHandler:    NewMatchHandler(deps),
		groupsHandler:   NewGroupsHandler(deps),
		profilesHandler: NewProfilesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux, deps Dependencies) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/match", MetricsMiddleware(s.matchHandler.HandleMatch, "match"))
	mux.HandleFunc("/triggers", MetricsMiddleware(s.triggersHandler.HandlePostTrigger, "triggers"))
	mux.HandleFunc("/groups", MetricsMiddleware(s.groupsHandler.HandleListGroups, "groups"))
	mux.HandleFunc("/groups/", MetricsMiddleware(s.groupsHandler.HandleGetGroup, "groups"))
	mux.HandleFunc("/profiles", MetricsMiddleware(s.profilesHandler.HandleSaveProfile, "profiles"))
	mux.HandleFunc("/profiles/unassigned", MetricsMiddleware(s.profilesHandler.HandleListUnassigned, "profiles"))
	mux.HandleFunc("/profiles/", MetricsMiddleware(s.profilesHandler.HandleGetProfile, "profiles"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
