package types_test

import (
	"testing"

	types "github.com/okian/mingle/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchSummary(t *testing.T) {
	Convey("Given a MatchSummary struct", t, func() {
		Convey("When creating a summary for a productive run", func() {
			summary := types.MatchSummary{
				GroupsCreated:      3,
				GroupsSplit:        1,
				GroupsMerged:       1,
				ProfilesUnassigned: 2,
				NoMentorGroups:     1,
			}

			Convey("Then it should have the correct values", func() {
				So(summary.GroupsCreated, ShouldEqual, 3)
				So(summary.GroupsSplit, ShouldEqual, 1)
				So(summary.GroupsMerged, ShouldEqual, 1)
				So(summary.ProfilesUnassigned, ShouldEqual, 2)
				So(summary.NoMentorGroups, ShouldEqual, 1)
				So(summary.Failures, ShouldBeEmpty)
			})
		})

		Convey("When creating a zero-value summary", func() {
			summary := types.MatchSummary{}

			Convey("Then it should represent a no-op run", func() {
				So(summary.GroupsCreated, ShouldEqual, 0)
				So(summary.GroupsSplit, ShouldEqual, 0)
				So(summary.GroupsMerged, ShouldEqual, 0)
				So(summary.ProfilesUnassigned, ShouldEqual, 0)
				So(summary.Failures, ShouldBeEmpty)
			})
		})

		Convey("When a run records per-unit failures", func() {
			summary := types.MatchSummary{
				Failures: []string{
					"build bucket AI/ML_Technology: store unavailable",
					"split group abc: profile p42 not found",
				},
			}

			Convey("Then the failures should be advisory strings", func() {
				So(summary.Failures, ShouldHaveLength, 2)
				So(summary.Failures[0], ShouldContainSubstring, "store unavailable")
			})
		})
	})
}

func TestGroupView(t *testing.T) {
	Convey("Given a GroupView struct", t, func() {
		Convey("When building a view with joined members", func() {
			view := types.GroupView{
				ID:        "6e8bc430-9c3a-11d9-9669-0800200c9a66",
				Name:      "AI/ML & Technology",
				Interests: []string{"AI/ML", "Technology"},
				GroupSize: 2,
				IsActive:  true,
				Members: []types.Member{
					{ID: "p1", DisplayName: "Ada", IsMentor: true, Expertise: 9},
					{ID: "p2", DisplayName: "Lin", IsMentor: false, Expertise: 4},
				},
			}

			Convey("Then the member count should match the group size", func() {
				So(view.Members, ShouldHaveLength, view.GroupSize)
			})

			Convey("And mentor flags should survive the join", func() {
				So(view.Members[0].IsMentor, ShouldBeTrue)
				So(view.Members[1].IsMentor, ShouldBeFalse)
			})
		})
	})
}
