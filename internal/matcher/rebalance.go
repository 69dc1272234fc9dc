package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	repository "github.com/okian/mingle/internal/adapters/repository"
	"github.com/okian/mingle/internal/domain/mentor"
	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/pkg/logger"
	"github.com/okian/mingle/pkg/metrics"
)

// Deactivation reasons recorded on retired groups.
const (
	reasonSplit  = "split: oversized"
	reasonMerged = "merged: undersized"
)

// rebalanceResult reports what one rebalancer scan accomplished.
type rebalanceResult struct {
	split    int
	merged   int
	noMentor int
	failures []string
}

// rebalance scans every active group once: oversized groups are split in
// two, undersized groups are merged into the best-overlapping small
// group. Groups already retired or created earlier in the same pass are
// tracked in a handled set and never reconsidered, which keeps the scan
// safe to run repeatedly.
func (m *Matcher) rebalance(ctx context.Context) (rebalanceResult, error) {
	var res rebalanceResult

	start := time.Now()
	defer func() {
		metrics.RecordRebalanceScanDuration(float64(time.Since(start).Milliseconds()))
	}()

	active, err := m.groups.QueryActive(ctx)
	if err != nil {
		metrics.RecordStoreError("groups", "query_active")
		return res, transientErr("scan active groups", err)
	}
	sortGroups(active)

	handled := make(map[string]struct{}, len(active))
	for _, g := range active {
		if _, done := handled[g.ID]; done {
			continue
		}
		switch {
		case g.GroupSize > m.maxSize:
			if err := m.split(ctx, g, handled, &res); err != nil {
				res.failures = append(res.failures, fmt.Sprintf("split group %s: %v", g.ID, err))
			}
		case g.GroupSize < m.minSize:
			if err := m.merge(ctx, g, handled, &res); err != nil {
				res.failures = append(res.failures, fmt.Sprintf("merge group %s: %v", g.ID, err))
			}
		}
	}

	return res, nil
}

// split partitions an oversized group into two halves by member order;
// the second half takes the extra member on odd counts. Each child
// inherits the parent's interests and recomputes its own mentors, then
// the parent is retired.
func (m *Matcher) split(ctx context.Context, parent model.Group, handled map[string]struct{}, res *rebalanceResult) error {
	members, anomalies := m.fetchMembers(ctx, parent)
	res.failures = append(res.failures, anomalies...)

	mid := len(members) / 2
	halves := [][]model.Profile{members[:mid], members[mid:]}

	for i, half := range halves {
		child := model.Group{
			ID:          uuid.NewString(),
			Name:        fmt.Sprintf("%s - Part %d", parent.Name, i+1),
			Description: parent.Description,
			MemberIDs:   memberIDs(half),
			MentorIDs:   mentor.Assign(half),
			Interests:   append([]string(nil), parent.Interests...),
			GroupSize:   len(half),
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		}
		if err := m.groups.Put(ctx, child); err != nil {
			metrics.RecordStoreError("groups", "put")
			return transientErr("persist split child", err)
		}
		assigned := m.assignMembers(ctx, child, half)
		metrics.RecordProfilesAssigned(assigned)
		handled[child.ID] = struct{}{}
		if len(child.MentorIDs) == 0 {
			res.noMentor++
			metrics.RecordNoMentorGroup()
		}
	}

	if err := m.groups.Deactivate(ctx, parent.ID, reasonSplit); err != nil {
		metrics.RecordStoreError("groups", "deactivate")
		return transientErr("retire split parent", err)
	}
	handled[parent.ID] = struct{}{}

	res.split++
	metrics.RecordGroupSplit()
	m.logger.Info(ctx, "group split",
		logger.String("parentID", parent.ID),
		logger.Int("parentSize", parent.GroupSize),
	)
	return nil
}

// merge folds an undersized group together with the active group under
// the merge threshold sharing the most interest labels, provided at
// least one label overlaps and the combined size stays within bounds.
// No eligible candidate is not an error; the group simply waits for the
// next cycle.
func (m *Matcher) merge(ctx context.Context, g model.Group, handled map[string]struct{}, res *rebalanceResult) error {
	candidates, err := m.groups.QueryActiveUnder(ctx, m.mergeThreshold)
	if err != nil {
		metrics.RecordStoreError("groups", "query_active_under")
		return transientErr("scan merge candidates", err)
	}
	sortGroups(candidates)

	var best *model.Group
	bestShared := 0
	for i := range candidates {
		c := candidates[i]
		if c.ID == g.ID {
			continue
		}
		if _, done := handled[c.ID]; done {
			continue
		}
		// Strict improvement keeps the first-encountered candidate on ties.
		if shared := g.SharedInterests(c); shared > bestShared {
			bestShared = shared
			best = &candidates[i]
		}
	}
	if best == nil || g.GroupSize+best.GroupSize > m.maxSize {
		return nil
	}

	left, anomalies := m.fetchMembers(ctx, g)
	res.failures = append(res.failures, anomalies...)
	right, anomalies := m.fetchMembers(ctx, *best)
	res.failures = append(res.failures, anomalies...)
	members := append(left, right...)

	interests := unionInterests(g.Interests, best.Interests)
	merged := model.Group{
		ID:          uuid.NewString(),
		Name:        mergedName(interests),
		Description: fmt.Sprintf("Merged from %s and %s", g.Name, best.Name),
		MemberIDs:   memberIDs(members),
		MentorIDs:   mentor.Assign(members),
		Interests:   interests,
		GroupSize:   len(members),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := m.groups.Put(ctx, merged); err != nil {
		metrics.RecordStoreError("groups", "put")
		return transientErr("persist merged group", err)
	}
	assigned := m.assignMembers(ctx, merged, members)
	metrics.RecordProfilesAssigned(assigned)

	for _, parent := range []model.Group{g, *best} {
		if err := m.groups.Deactivate(ctx, parent.ID, reasonMerged); err != nil {
			metrics.RecordStoreError("groups", "deactivate")
			return transientErr("retire merged parent", err)
		}
		handled[parent.ID] = struct{}{}
	}
	handled[merged.ID] = struct{}{}

	if len(merged.MentorIDs) == 0 {
		res.noMentor++
		metrics.RecordNoMentorGroup()
	}

	res.merged++
	metrics.RecordGroupMerged()
	m.logger.Info(ctx, "groups merged",
		logger.String("leftID", g.ID),
		logger.String("rightID", best.ID),
		logger.String("mergedID", merged.ID),
		logger.Int("mergedSize", merged.GroupSize),
	)
	return nil
}

// fetchMembers resolves a group's member ids against the profile store,
// preserving member order. A missing profile is an inconsistency flagged
// for observability; the member is skipped and self-heals later.
func (m *Matcher) fetchMembers(ctx context.Context, g model.Group) ([]model.Profile, []string) {
	var members []model.Profile
	var anomalies []string
	for _, id := range g.MemberIDs {
		p, err := m.profiles.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordErrorByComponent("matcher", "inconsistent_state")
			anomalies = append(anomalies,
				inconsistentErr("resolve group members",
					fmt.Sprintf("group %s references missing profile %s", g.ID, id)).Error())
			continue
		}
		if err != nil {
			metrics.RecordStoreError("profiles", "get")
			anomalies = append(anomalies, transientErr("resolve group members", err).Error())
			continue
		}
		members = append(members, p)
	}
	return members, anomalies
}

func mergedName(interests []string) string {
	head := interests
	if len(head) > 2 {
		head = head[:2]
	}
	if len(head) == 0 {
		return "Merged Group"
	}
	return fmt.Sprintf("Merged Group - %s", strings.Join(head, " & "))
}

func unionInterests(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, label := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

// sortGroups orders groups by creation time, then id, so scan order is
// deterministic regardless of the backing store's iteration order.
func sortGroups(groups []model.Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt.Equal(groups[j].CreatedAt) {
			return groups[i].ID < groups[j].ID
		}
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
}
