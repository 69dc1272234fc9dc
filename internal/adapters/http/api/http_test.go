package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/mingle/internal/adapters/http/api"
	"github.com/okian/mingle/internal/adapters/repository"
	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/internal/domain/types"
	"github.com/okian/mingle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// stubDeps implements api.Dependencies for handler tests.
type stubDeps struct {
	mu         sync.Mutex
	seen       map[string]struct{}
	enqueued   []model.Trigger
	enqueueOK  bool
	summary    types.MatchSummary
	matchErr   error
	groups     []types.GroupView
	profiles   map[string]model.Profile
	unassigned []model.Profile
}

func newStubDeps() *stubDeps {
	return &stubDeps{
		seen:      make(map[string]struct{}),
		enqueueOK: true,
		profiles:  make(map[string]model.Profile),
	}
}

func (s *stubDeps) SeenAndRecord(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

func (s *stubDeps) Unrecord(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}

func (s *stubDeps) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.seen))
}

func (s *stubDeps) Enqueue(ctx context.Context, t model.Trigger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enqueueOK {
		return false
	}
	s.enqueued = append(s.enqueued, t)
	return true
}

func (s *stubDeps) RunMatching(ctx context.Context) (types.MatchSummary, error) {
	return s.summary, s.matchErr
}

func (s *stubDeps) Groups(ctx context.Context) ([]types.GroupView, error) {
	return s.groups, nil
}

func (s *stubDeps) Group(ctx context.Context, id string) (types.GroupView, error) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return types.GroupView{}, repository.ErrNotFound
}

func (s *stubDeps) Profile(ctx context.Context, id string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubDeps) UnassignedProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.unassigned, nil
}

func (s *stubDeps) SaveProfile(ctx context.Context, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestMux(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux, deps)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

const validTrigger = `{"id":"t-1","attendee_id":"alice","reason":"checkin","ts":"2026-08-31T10:00:00Z"}`

func TestPostTrigger(t *testing.T) {
	Convey("Given the triggers endpoint", t, func() {
		deps := newStubDeps()
		mux := newTestMux(deps)

		Convey("When a valid trigger is posted", func() {
			rec := do(mux, http.MethodPost, "/triggers", validTrigger)

			Convey("Then it is accepted and enqueued", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)

				var ack map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["duplicate"], ShouldEqual, false)

				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].ID, ShouldEqual, "t-1")
				So(deps.enqueued[0].AttendeeID, ShouldEqual, "alice")
			})
		})

		Convey("When the same trigger id is posted twice", func() {
			first := do(mux, http.MethodPost, "/triggers", validTrigger)
			second := do(mux, http.MethodPost, "/triggers", validTrigger)

			Convey("Then the repeat is acknowledged without re-enqueueing", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)

				var ack map[string]any
				So(json.Unmarshal(second.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["duplicate"], ShouldEqual, true)

				So(len(deps.enqueued), ShouldEqual, 1)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.enqueueOK = false
			rec := do(mux, http.MethodPost, "/triggers", validTrigger)

			Convey("Then the client gets 429 and the id is forgotten", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.Size(), ShouldEqual, 0)
			})

			Convey("And the retry is not mistaken for a duplicate", func() {
				deps.enqueueOK = true
				retry := do(mux, http.MethodPost, "/triggers", validTrigger)
				So(retry.Code, ShouldEqual, http.StatusAccepted)
			})
		})

		Convey("When the payload is malformed", func() {
			rec := do(mux, http.MethodPost, "/triggers", "{not json")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When required fields are missing", func() {
			rec := do(mux, http.MethodPost, "/triggers", `{"id":"t-1"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the reason is unknown", func() {
			rec := do(mux, http.MethodPost, "/triggers",
				`{"id":"t-1","attendee_id":"alice","reason":"party","ts":"2026-08-31T10:00:00Z"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the timestamp is not RFC3339", func() {
			rec := do(mux, http.MethodPost, "/triggers",
				`{"id":"t-1","attendee_id":"alice","reason":"checkin","ts":"yesterday"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is GET", func() {
			rec := do(mux, http.MethodGet, "/triggers", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestMatchEndpoint(t *testing.T) {
	Convey("Given the match endpoint", t, func() {
		deps := newStubDeps()
		deps.summary = types.MatchSummary{GroupsCreated: 2, ProfilesUnassigned: 1}
		mux := newTestMux(deps)

		Convey("When a cycle is forced", func() {
			rec := do(mux, http.MethodPost, "/match", "")

			Convey("Then the summary comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var summary types.MatchSummary
				So(json.Unmarshal(rec.Body.Bytes(), &summary), ShouldBeNil)
				So(summary.GroupsCreated, ShouldEqual, 2)
				So(summary.ProfilesUnassigned, ShouldEqual, 1)
			})
		})

		Convey("When the method is GET", func() {
			rec := do(mux, http.MethodGet, "/match", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGroupEndpoints(t *testing.T) {
	Convey("Given stored groups", t, func() {
		deps := newStubDeps()
		deps.groups = []types.GroupView{
			{ID: "g-1", Name: "AI & Web3", GroupSize: 6, IsActive: true},
			{ID: "g-2", Name: "Biotech", GroupSize: 4, IsActive: true,
				Members: []types.Member{{ID: "alice", DisplayName: "Alice", IsMentor: true, Expertise: 5}}},
		}
		mux := newTestMux(deps)

		Convey("When listing groups", func() {
			rec := do(mux, http.MethodGet, "/groups", "")

			Convey("Then every group is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var got []types.GroupView
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 2)
			})
		})

		Convey("When fetching one group", func() {
			rec := do(mux, http.MethodGet, "/groups/g-2", "")

			Convey("Then the membership is included", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var got types.GroupView
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.ID, ShouldEqual, "g-2")
				So(len(got.Members), ShouldEqual, 1)
				So(got.Members[0].IsMentor, ShouldBeTrue)
			})
		})

		Convey("When fetching an unknown group", func() {
			rec := do(mux, http.MethodGet, "/groups/missing", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the group path is malformed", func() {
			rec := do(mux, http.MethodGet, "/groups/g-1/members", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestProfileEndpoints(t *testing.T) {
	Convey("Given the profiles endpoints", t, func() {
		deps := newStubDeps()
		mux := newTestMux(deps)

		Convey("When a valid profile is posted", func() {
			rec := do(mux, http.MethodPost, "/profiles",
				`{"id":"alice","display_name":"Alice","interests":["ai","web3"],"expertise_levels":[4]}`)

			Convey("Then it is saved", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var ack map[string]string
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "saved")
				So(ack["id"], ShouldEqual, "alice")

				So(deps.profiles["alice"].DisplayName, ShouldEqual, "Alice")
			})

			Convey("And it can be read back", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				got := do(mux, http.MethodGet, "/profiles/alice", "")
				So(got.Code, ShouldEqual, http.StatusOK)

				var p model.Profile
				So(json.Unmarshal(got.Body.Bytes(), &p), ShouldBeNil)
				So(p.Interests, ShouldResemble, []string{"ai", "web3"})
			})
		})

		Convey("When the profile is missing required fields", func() {
			rec := do(mux, http.MethodPost, "/profiles", `{"id":"alice"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the profile has no interests", func() {
			rec := do(mux, http.MethodPost, "/profiles",
				`{"id":"alice","display_name":"Alice","interests":[]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When fetching an unknown profile", func() {
			rec := do(mux, http.MethodGet, "/profiles/missing", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing unassigned profiles", func() {
			deps.unassigned = []model.Profile{{ID: "bob", DisplayName: "Bob"}}

			rec := do(mux, http.MethodGet, "/profiles/unassigned", "")

			Convey("Then the pending attendees are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var got []model.Profile
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].ID, ShouldEqual, "bob")
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		deps := newStubDeps()
		mux := newTestMux(deps)

		Convey("When health is checked", func() {
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When stats are requested", func() {
			rec := do(mux, http.MethodGet, "/stats", "")

			So(rec.Code, ShouldEqual, http.StatusOK)

			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})
	})
}
