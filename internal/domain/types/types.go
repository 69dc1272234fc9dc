// Package types contains common types used across the application
package types

// MatchSummary reports what a single matching run accomplished.
type MatchSummary struct {
	GroupsCreated      int      `json:"groups_created"`
	GroupsSplit        int      `json:"groups_split"`
	GroupsMerged       int      `json:"groups_merged"`
	ProfilesUnassigned int      `json:"profiles_unassigned"`
	NoMentorGroups     int      `json:"no_mentor_groups"`
	Failures           []string `json:"failures,omitempty"`
}

// Member is the display shape of a group member, joined from the
// profile store.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsMentor    bool   `json:"is_mentor"`
	Expertise   int    `json:"expertise"`
}

// GroupView is the read shape returned by group queries.
type GroupView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Interests   []string `json:"interests"`
	GroupSize   int      `json:"group_size"`
	IsActive    bool     `json:"is_active"`
	Members     []Member `json:"members,omitempty"`
}
