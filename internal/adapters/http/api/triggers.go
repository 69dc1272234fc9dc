// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/pkg/metrics"
)

// triggerRequest mirrors the wire schema for POST /triggers.
type triggerRequest struct {
	ID         string `json:"id"`
	AttendeeID string `json:"attendee_id"`
	Reason     string `json:"reason"`
	TS         string `json:"ts"`
}

func (t triggerRequest) validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(t.AttendeeID) == "":
		return errors.New("missing attendee_id")
	case strings.TrimSpace(t.TS) == "":
		return errors.New("missing ts")
	}
	switch t.Reason {
	case model.ReasonCheckin, model.ReasonProfileCompleted, model.ReasonSchedule:
	default:
		return errors.New("invalid reason; must be checkin, profile_completed or schedule")
	}
	if _, err := time.Parse(time.RFC3339, t.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

// TriggersHandler accepts matching triggers.
type TriggersHandler struct {
	deps Dependencies
}

// NewTriggersHandler creates a new triggers handler.
func NewTriggersHandler(deps Dependencies) *TriggersHandler {
	return &TriggersHandler{deps: deps}
}

// HandlePostTrigger handles POST /triggers.
//
// A duplicate trigger id is acknowledged with 200 and duplicate=true
// rather than re-enqueued. When the queue pushes back the id is
// unrecorded again so the client's retry is not mistaken for a
// duplicate.
func (h *TriggersHandler) HandlePostTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.ID) {
		metrics.RecordTriggerDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "accepted", Duplicate: true})
		return
	}

	ts, _ := time.Parse(time.RFC3339, req.TS)
	t := model.Trigger{
		ID:         req.ID,
		AttendeeID: req.AttendeeID,
		Reason:     req.Reason,
		TS:         ts,
	}

	if !h.deps.Enqueue(r.Context(), t) {
		h.deps.Unrecord(r.Context(), req.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
