// Package repository defines the profile and group store contracts and errors.
package repository

import (
	"context"

	"github.com/okian/mingle/internal/domain/model"
)

// ProfileStore provides read/write access to attendee profiles.
type ProfileStore interface {
	// QueryUnassigned returns every profile awaiting group assignment.
	QueryUnassigned(ctx context.Context) ([]model.Profile, error)

	// Get returns the profile for id.
	// Returns ErrNotFound if the attendee is unknown.
	Get(ctx context.Context, id string) (model.Profile, error)

	// Put creates or replaces a profile record.
	Put(ctx context.Context, p model.Profile) error

	// Assign conditionally moves a profile between groups. The write
	// applies only while the profile's current GroupID still equals
	// a.FromGroupID; otherwise ErrConflict is returned and nothing
	// changes. An empty FromGroupID demands an unassigned profile.
	Assign(ctx context.Context, id string, a model.Assignment) error

	// Count returns the number of profiles tracked.
	Count(ctx context.Context) int
}

// GroupStore provides read/write access to group records.
type GroupStore interface {
	// QueryActive returns every group with IsActive set.
	QueryActive(ctx context.Context) ([]model.Group, error)

	// QueryActiveUnder returns active groups smaller than sizeThreshold.
	QueryActiveUnder(ctx context.Context, sizeThreshold int) ([]model.Group, error)

	// Get returns the group for id.
	// Returns ErrNotFound if the group is unknown.
	Get(ctx context.Context, id string) (model.Group, error)

	// Put creates or replaces a group record.
	Put(ctx context.Context, g model.Group) error

	// Deactivate marks a group inactive with a recorded reason. An
	// inactive group is immutable history; it is never reactivated.
	Deactivate(ctx context.Context, id, reason string) error

	// Count returns the number of groups tracked, active or not.
	Count(ctx context.Context) int
}
