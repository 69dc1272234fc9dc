// Package model contains domain models passed between layers.
package model

import "time"

// Profile represents an attendee record held in the profile store.
// GroupID is empty until the matching engine places the attendee.
type Profile struct {
	ID              string   `json:"id" bson:"_id"`
	DisplayName     string   `json:"display_name" bson:"display_name"`
	Bio             string   `json:"bio,omitempty" bson:"bio"`
	Interests       []string `json:"interests" bson:"interests"`
	ExpertiseLevels []int    `json:"expertise_levels" bson:"expertise_levels"`
	IsMentor        bool     `json:"is_mentor" bson:"is_mentor"`
	GroupID         string   `json:"group_id,omitempty" bson:"group_id"`
	GroupSize       int      `json:"group_size,omitempty" bson:"group_size"`
}

// Assigned reports whether the engine has placed this profile in a group.
func (p Profile) Assigned() bool {
	return p.GroupID != ""
}

// TopInterests returns the first two interests, or fewer if the profile
// lists fewer. Only these are load-bearing for matching.
func (p Profile) TopInterests() []string {
	if len(p.Interests) > 2 {
		return p.Interests[:2]
	}
	return p.Interests
}

// ExpertiseScore is the attendee's overall expertise: the maximum of the
// declared levels, or 0 when none are declared.
func (p Profile) ExpertiseScore() int {
	best := 0
	for _, level := range p.ExpertiseLevels {
		if level > best {
			best = level
		}
	}
	return best
}

// Assignment describes a conditional profile move. The write applies only
// while the profile's current GroupID equals FromGroupID; an empty
// FromGroupID means the profile must still be unassigned. This is the
// critical-section discipline that keeps two overlapping matching runs
// from double-assigning the same attendee.
type Assignment struct {
	FromGroupID string
	ToGroupID   string
	IsMentor    bool
	GroupSize   int
}

// Trigger is a work-queue message telling the engine that something
// changed and a matching pass is worth running.
type Trigger struct {
	ID         string    `json:"id"`
	AttendeeID string    `json:"attendee_id"`
	Reason     string    `json:"reason"`
	TS         time.Time `json:"ts"`
}

// Trigger reasons accepted on the ingest path.
const (
	ReasonCheckin          = "checkin"
	ReasonProfileCompleted = "profile_completed"
	ReasonSchedule         = "schedule"
)
