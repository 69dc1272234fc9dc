// Package matcher implements the group-matching and group-lifecycle engine:
// it partitions unassigned attendees into interest cohorts, forms
// bounded-size groups with mentors, and rebalances drifting groups by
// splitting oversized ones and merging undersized ones.
package matcher

import (
	"context"
	"sync"
	"time"

	repository "github.com/okian/mingle/internal/adapters/repository"
	"github.com/okian/mingle/internal/domain/partition"
	"github.com/okian/mingle/internal/domain/types"
	"github.com/okian/mingle/pkg/logger"
	"github.com/okian/mingle/pkg/metrics"
)

// Default group size policy. Target is the chunk size the builder aims
// for; min/max are the bounds the rebalancer enforces; mergeThreshold is
// the size below which a group may receive a merge.
const (
	defaultMinGroupSize   = 3
	defaultTargetSize     = 6
	defaultMaxGroupSize   = 10
	defaultMergeThreshold = 6
)

// Matcher sequences the matching pipeline over the two stores. Run is
// idempotent: invoking it again with no new profiles changes nothing.
type Matcher struct {
	// Serializes runs so overlapping invocations cannot race each
	// other to the same pending profiles.
	mu sync.Mutex

	profiles repository.ProfileStore
	groups   repository.GroupStore

	minSize        int
	targetSize     int
	maxSize        int
	mergeThreshold int

	logger logger.Logger
}

// New constructs a Matcher over the given stores with default sizing.
func New(profiles repository.ProfileStore, groups repository.GroupStore, opts ...Option) *Matcher {
	m := &Matcher{
		profiles:       profiles,
		groups:         groups,
		minSize:        defaultMinGroupSize,
		targetSize:     defaultTargetSize,
		maxSize:        defaultMaxGroupSize,
		mergeThreshold: defaultMergeThreshold,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.Get().Named("matcher")
	}

	return m
}

// Run executes one full matching cycle: pending profiles are bucketed by
// interest signature, each bucket is built into groups, and the active
// group set is rebalanced. Per-unit failures are accumulated into the
// summary; an error is returned only when one of the two scans fails
// outright, in which case whatever completed still stands.
func (m *Matcher) Run(ctx context.Context) (types.MatchSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	metrics.RecordMatchingRun()
	defer func() {
		metrics.RecordMatchingRunDuration(float64(time.Since(start).Milliseconds()))
	}()

	var summary types.MatchSummary

	pending, err := m.profiles.QueryUnassigned(ctx)
	if err != nil {
		metrics.RecordStoreError("profiles", "query_unassigned")
		return summary, transientErr("query unassigned profiles", err)
	}

	buckets := partition.ByInterest(pending)
	for _, key := range partition.SortedKeys(buckets) {
		res := m.buildGroups(ctx, key, buckets[key])
		summary.GroupsCreated += res.created
		summary.ProfilesUnassigned += res.unplaced
		summary.NoMentorGroups += res.noMentor
		summary.Failures = append(summary.Failures, res.failures...)
	}

	reb, err := m.rebalance(ctx)
	summary.GroupsSplit = reb.split
	summary.GroupsMerged = reb.merged
	summary.NoMentorGroups += reb.noMentor
	summary.Failures = append(summary.Failures, reb.failures...)
	if err != nil {
		return summary, err
	}

	metrics.UpdateUnassignedProfiles(summary.ProfilesUnassigned)

	m.logger.Info(ctx, "matching run complete",
		logger.Int("groupsCreated", summary.GroupsCreated),
		logger.Int("groupsSplit", summary.GroupsSplit),
		logger.Int("groupsMerged", summary.GroupsMerged),
		logger.Int("profilesUnassigned", summary.ProfilesUnassigned),
		logger.Int("failures", len(summary.Failures)),
	)

	return summary, nil
}
