package matcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mingle/internal/domain/mentor"
	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/pkg/logger"
	"github.com/okian/mingle/pkg/metrics"
)

// buildResult reports what one bucket's build accomplished.
type buildResult struct {
	created  int
	unplaced int
	noMentor int
	failures []string
}

// buildGroups converts one interest-signature bucket into bounded-size
// groups. The bucket is consumed in chunks of targetSize; any chunk of at
// least minSize becomes a group. A trailing remainder smaller than
// minSize is appended to the last group formed from this bucket when that
// group still has room, otherwise it stays unplaced for a later cycle
// rather than forming an undersized group of its own.
func (m *Matcher) buildGroups(ctx context.Context, sig string, bucket []model.Profile) buildResult {
	var res buildResult

	var cohorts [][]model.Profile
	var remainder []model.Profile
	for i := 0; i < len(bucket); i += m.targetSize {
		end := i + m.targetSize
		if end > len(bucket) {
			end = len(bucket)
		}
		chunk := bucket[i:end]
		if len(chunk) >= m.minSize {
			cohorts = append(cohorts, append([]model.Profile(nil), chunk...))
		} else {
			remainder = chunk
		}
	}

	if len(remainder) > 0 {
		if last := len(cohorts) - 1; last >= 0 && len(cohorts[last]) < m.maxSize {
			cohorts[last] = append(cohorts[last], remainder...)
		} else {
			res.unplaced = len(remainder)
		}
	}

	for i, members := range cohorts {
		noMentor, err := m.persistGroup(ctx, i+1, members)
		if err != nil {
			res.failures = append(res.failures, fmt.Sprintf("build bucket %s: %v", sig, err))
			res.unplaced += len(members)
			continue
		}
		res.created++
		if noMentor {
			res.noMentor++
		}
	}

	return res
}

// persistGroup writes a fresh group and conditionally assigns each
// member to it. The group record goes first so no profile ever points at
// a group that does not exist; a member whose conditional assignment
// fails is reported and skipped, never rolled back.
func (m *Matcher) persistGroup(ctx context.Context, ordinal int, members []model.Profile) (noMentor bool, err error) {
	interests := unionTopInterests(members)
	mentors := mentor.Assign(members)

	g := model.Group{
		ID:          uuid.NewString(),
		Name:        groupName(ordinal, interests),
		Description: fmt.Sprintf("Interest-matched group for: %s", strings.Join(interests, ", ")),
		MemberIDs:   memberIDs(members),
		MentorIDs:   mentors,
		Interests:   interests,
		GroupSize:   len(members),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.groups.Put(ctx, g); err != nil {
		metrics.RecordStoreError("groups", "put")
		return false, transientErr("persist group", err)
	}

	assigned := m.assignMembers(ctx, g, members)
	metrics.RecordGroupCreated()
	metrics.RecordProfilesAssigned(assigned)

	if len(mentors) == 0 {
		metrics.RecordNoMentorGroup()
		m.logger.Warn(ctx, "group formed without a mentor",
			logger.String("groupID", g.ID),
			logger.Int("groupSize", g.GroupSize),
		)
		return true, nil
	}
	return false, nil
}

// assignMembers points every member profile at g. The write is
// conditional on the member still holding its previous group reference,
// so a concurrent run that grabbed the profile first wins and this side
// just logs the conflict.
func (m *Matcher) assignMembers(ctx context.Context, g model.Group, members []model.Profile) int {
	assigned := 0
	for _, p := range members {
		a := model.Assignment{
			FromGroupID: p.GroupID,
			ToGroupID:   g.ID,
			IsMentor:    mentor.IsMentor(g.MentorIDs, p.ID),
			GroupSize:   g.GroupSize,
		}
		if err := m.profiles.Assign(ctx, p.ID, a); err != nil {
			metrics.RecordStoreError("profiles", "assign")
			m.logger.Warn(ctx, "member assignment skipped",
				logger.String("profileID", p.ID),
				logger.String("groupID", g.ID),
				logger.Error(err),
			)
			continue
		}
		assigned++
	}
	return assigned
}

// groupName derives a display name from the group's leading interests,
// mirroring what attendees see on their group card.
func groupName(ordinal int, interests []string) string {
	head := interests
	if len(head) > 2 {
		head = head[:2]
	}
	if len(head) == 0 {
		return fmt.Sprintf("Group %d", ordinal)
	}
	return fmt.Sprintf("Group %d - %s", ordinal, strings.Join(head, " & "))
}

// unionTopInterests collects the deduplicated union of the members'
// top-2 interests, preserving first-seen order.
func unionTopInterests(members []model.Profile) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range members {
		for _, label := range p.TopInterests() {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			out = append(out, label)
		}
	}
	return out
}

func memberIDs(members []model.Profile) []string {
	ids := make([]string, len(members))
	for i, p := range members {
		ids[i] = p.ID
	}
	return ids
}
