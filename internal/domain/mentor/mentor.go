// Package mentor selects which group members act as mentors.
package mentor

import "github.com/okian/mingle/internal/domain/model"

// Assign returns the ids of members whose expertise score is strictly
// greater than the group's mean score. The result preserves the member
// order of the input, so re-running on the same member set always yields
// the same mentor set regardless of how the caller shuffled it between
// runs.
//
// An empty result is valid: a group where every member scores the same
// is left without a mentor. Callers surface that as an observability
// signal, not an error.
func Assign(members []model.Profile) []string {
	if len(members) == 0 {
		return nil
	}

	total := 0
	for _, m := range members {
		total += m.ExpertiseScore()
	}
	mean := float64(total) / float64(len(members))

	var mentors []string
	for _, m := range members {
		if float64(m.ExpertiseScore()) > mean {
			mentors = append(mentors, m.ID)
		}
	}
	return mentors
}

// IsMentor reports whether id is in the mentor set produced by Assign.
func IsMentor(mentorIDs []string, id string) bool {
	for _, mid := range mentorIDs {
		if mid == id {
			return true
		}
	}
	return false
}
