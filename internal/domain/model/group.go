package model

import "time"

// Group represents an interest group created by the matching engine.
// Members are referenced by id; display layers join against the profile
// store instead of reading embedded copies.
type Group struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	MemberIDs   []string  `json:"member_ids" bson:"member_ids"`
	MentorIDs   []string  `json:"mentor_ids" bson:"mentor_ids"`
	Interests   []string  `json:"interests" bson:"interests"`
	GroupSize   int       `json:"group_size" bson:"group_size"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	Reason      string    `json:"reason,omitempty" bson:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// SharedInterests counts the interest labels this group has in common
// with other. Used by the rebalancer to pick merge candidates.
func (g Group) SharedInterests(other Group) int {
	seen := make(map[string]struct{}, len(g.Interests))
	for _, label := range g.Interests {
		seen[label] = struct{}{}
	}
	shared := 0
	for _, label := range other.Interests {
		if _, ok := seen[label]; ok {
			shared++
		}
	}
	return shared
}
