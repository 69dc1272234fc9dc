package repository

import (
	"context"
	"sync"

	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/pkg/metrics"
)

// MemoryStore implements ProfileStore and GroupStore over mutex-guarded
// maps. It is the default backend for single-process deployments and for
// tests; the Mongo backend provides the same semantics durably.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
	groups   map[string]model.Group
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]model.Profile),
		groups:   make(map[string]model.Group),
	}
}

// QueryUnassigned returns every profile with no group. Iteration order
// is not guaranteed; callers needing determinism sort the result.
func (s *MemoryStore) QueryUnassigned(ctx context.Context) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Profile
	for _, p := range s.profiles {
		if !p.Assigned() {
			out = append(out, copyProfile(p))
		}
	}
	return out, nil
}

// Get returns the profile for id.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, ErrNotFound
	}
	return copyProfile(p), nil
}

// Put creates or replaces a profile record.
func (s *MemoryStore) Put(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.ID] = copyProfile(p)
	metrics.UpdateProfilesTotal(len(s.profiles))
	return nil
}

// Assign applies a conditional group move: the profile's current GroupID
// must equal a.FromGroupID or the write is refused with ErrConflict.
func (s *MemoryStore) Assign(ctx context.Context, id string, a model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrNotFound
	}
	if p.GroupID != a.FromGroupID {
		return ErrConflict
	}
	p.GroupID = a.ToGroupID
	p.IsMentor = a.IsMentor
	p.GroupSize = a.GroupSize
	s.profiles[id] = p
	return nil
}

// Count returns the number of profiles tracked.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// QueryActive returns every active group.
func (s *MemoryStore) QueryActive(ctx context.Context) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Group
	for _, g := range s.groups {
		if g.IsActive {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

// QueryActiveUnder returns active groups smaller than sizeThreshold.
func (s *MemoryStore) QueryActiveUnder(ctx context.Context, sizeThreshold int) ([]model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Group
	for _, g := range s.groups {
		if g.IsActive && g.GroupSize < sizeThreshold {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

// Get returns the group for id.
func (s *MemoryStore) GetGroup(ctx context.Context, id string) (model.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return model.Group{}, ErrNotFound
	}
	return copyGroup(g), nil
}

// PutGroup creates or replaces a group record.
func (s *MemoryStore) PutGroup(ctx context.Context, g model.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.groups[g.ID] = copyGroup(g)
	metrics.UpdateActiveGroups(s.activeCountLocked())
	return nil
}

// Deactivate marks a group inactive with a recorded reason.
func (s *MemoryStore) Deactivate(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok {
		return ErrNotFound
	}
	if !g.IsActive {
		return ErrInactive
	}
	g.IsActive = false
	g.Reason = reason
	s.groups[id] = g
	metrics.UpdateActiveGroups(s.activeCountLocked())
	return nil
}

// CountGroups returns the number of groups tracked, active or not.
func (s *MemoryStore) CountGroups(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

func (s *MemoryStore) activeCountLocked() int {
	n := 0
	for _, g := range s.groups {
		if g.IsActive {
			n++
		}
	}
	return n
}

// Groups adapts the MemoryStore to the GroupStore contract. The profile
// and group methods live on one struct so a single store instance backs
// both repositories; this wrapper resolves the Get/Put/Count name clash.
func (s *MemoryStore) Groups() GroupStore {
	return memoryGroupStore{s}
}

type memoryGroupStore struct {
	s *MemoryStore
}

func (m memoryGroupStore) QueryActive(ctx context.Context) ([]model.Group, error) {
	return m.s.QueryActive(ctx)
}

func (m memoryGroupStore) QueryActiveUnder(ctx context.Context, sizeThreshold int) ([]model.Group, error) {
	return m.s.QueryActiveUnder(ctx, sizeThreshold)
}

func (m memoryGroupStore) Get(ctx context.Context, id string) (model.Group, error) {
	return m.s.GetGroup(ctx, id)
}

func (m memoryGroupStore) Put(ctx context.Context, g model.Group) error {
	return m.s.PutGroup(ctx, g)
}

func (m memoryGroupStore) Deactivate(ctx context.Context, id, reason string) error {
	return m.s.Deactivate(ctx, id, reason)
}

func (m memoryGroupStore) Count(ctx context.Context) int {
	return m.s.CountGroups(ctx)
}

func copyProfile(p model.Profile) model.Profile {
	out := p
	out.Interests = append([]string(nil), p.Interests...)
	out.ExpertiseLevels = append([]int(nil), p.ExpertiseLevels...)
	return out
}

func copyGroup(g model.Group) model.Group {
	out := g
	out.MemberIDs = append([]string(nil), g.MemberIDs...)
	out.MentorIDs = append([]string(nil), g.MentorIDs...)
	out.Interests = append([]string(nil), g.Interests...)
	return out
}
