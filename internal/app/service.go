// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	triggerqueue "github.com/okian/mingle/internal/adapters/mq/queue"
	workerpool "github.com/okian/mingle/internal/adapters/mq/worker"
	repository "github.com/okian/mingle/internal/adapters/repository"
	"github.com/okian/mingle/internal/domain/dedupe"
	"github.com/okian/mingle/internal/domain/mentor"
	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/internal/domain/types"
	"github.com/okian/mingle/internal/matcher"
	"github.com/okian/mingle/pkg/logger"
	"github.com/okian/mingle/pkg/metrics"
)

// Service implements the API dependencies for the group matching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	profiles   repository.ProfileStore
	groups     repository.GroupStore
	tracker    dedupe.Tracker
	queue      triggerqueue.Queue
	engine     *matcher.Matcher
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	minGroupSize   int
	targetSize     int
	maxGroupSize   int
	mergeThreshold int
	matchInterval  time.Duration

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of trigger workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the trigger queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the trigger deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithGroupSizes sets the engine's group size policy.
func WithGroupSizes(minSize, target, maxSize, mergeThreshold int) Option {
	return func(s *Service) {
		if minSize >= 2 {
			s.minGroupSize = minSize
		}
		if target > 0 {
			s.targetSize = target
		}
		if maxSize > 0 {
			s.maxGroupSize = maxSize
		}
		if mergeThreshold > 0 {
			s.mergeThreshold = mergeThreshold
		}
	}
}

// WithMatchInterval schedules a periodic matching trigger. Zero disables
// the schedule.
func WithMatchInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.matchInterval = d
		}
	}
}

// WithStores injects the persistence backend. When unset, Start falls
// back to the in-memory store.
func WithStores(profiles repository.ProfileStore, groups repository.GroupStore) Option {
	return func(s *Service) {
		if profiles != nil && groups != nil {
			s.profiles = profiles
			s.groups = groups
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    2,
		queueSize:      10000,
		dedupeSize:     50000,
		minGroupSize:   3,
		targetSize:     6,
		maxGroupSize:   10,
		mergeThreshold: 6,
		stopCh:         make(chan struct{}),
		logger:         nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matching service...")

	// Initialize components
	if s.profiles == nil || s.groups == nil {
		memory := repository.NewMemoryStore()
		s.profiles = memory
		s.groups = memory.Groups()
		s.logger.Info(ctx, "using in-memory store")
	}
	s.tracker = dedupe.NewMemoryTracker(
		dedupe.WithMaxEntries(s.dedupeSize),
	)
	s.queue = triggerqueue.NewInMemoryQueue(
		triggerqueue.WithCapacity(s.queueSize),
	)
	s.engine = matcher.New(s.profiles, s.groups,
		matcher.WithMinGroupSize(s.minGroupSize),
		matcher.WithTargetGroupSize(s.targetSize),
		matcher.WithMaxGroupSize(s.maxGroupSize),
		matcher.WithMergeThreshold(s.mergeThreshold),
		matcher.WithLogger(s.logger.Named("matcher")),
	)

	// Create and start the worker pool; the service itself is the
	// runner so tests can stub matching through the same seam.
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.workerPool.Start(ctx)

	if s.matchInterval > 0 {
		go s.runSchedule(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("targetGroupSize", s.targetSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping matching service...")

	// Signal the schedule loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	// Close queue so workers drain and exit
	if q, ok := s.queue.(*triggerqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "matching service stopped")
}

// runSchedule enqueues a periodic trigger so groups keep rebalancing
// even when no check-ins arrive.
func (s *Service) runSchedule(ctx context.Context) {
	ticker := time.NewTicker(s.matchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			t := model.Trigger{
				ID:         uuid.NewString(),
				AttendeeID: "",
				Reason:     model.ReasonSchedule,
				TS:         time.Now().UTC(),
			}
			if !s.Enqueue(ctx, t) {
				s.logger.Warn(ctx, "scheduled trigger dropped, queue full")
			}
		}
	}
}

// SeenAndRecord atomically checks if a trigger id was seen and records
// it if not. Returns true if the trigger was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.tracker.SeenAndRecord(ctx, id)
}

// Unrecord removes a trigger ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.tracker.Unrecord(ctx, id)
}

// Size returns the current number of tracked trigger ids.
func (s *Service) Size() int64 {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.Size()
}

// Enqueue submits a trigger for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, t model.Trigger) bool {
	ok := s.queue.Enqueue(ctx, t)
	if ok {
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}
	return ok
}

// RunMatching executes one matching cycle.
func (s *Service) RunMatching(ctx context.Context) (types.MatchSummary, error) {
	return s.engine.Run(ctx)
}

// Groups returns every active group without membership detail.
func (s *Service) Groups(ctx context.Context) ([]types.GroupView, error) {
	groups, err := s.groups.QueryActive(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]types.GroupView, len(groups))
	for i, g := range groups {
		views[i] = groupView(g, nil)
	}
	return views, nil
}

// Group returns a single group with its membership joined from the
// profile store. Members whose profiles have gone missing are omitted.
func (s *Service) Group(ctx context.Context, id string) (types.GroupView, error) {
	g, err := s.groups.Get(ctx, id)
	if err != nil {
		return types.GroupView{}, err
	}

	members := make([]types.Member, 0, len(g.MemberIDs))
	for _, memberID := range g.MemberIDs {
		p, err := s.profiles.Get(ctx, memberID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return types.GroupView{}, err
		}
		members = append(members, types.Member{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			IsMentor:    mentor.IsMentor(g.MentorIDs, p.ID),
			Expertise:   p.ExpertiseScore(),
		})
	}

	return groupView(g, members), nil
}

// Profile returns one attendee profile.
func (s *Service) Profile(ctx context.Context, id string) (model.Profile, error) {
	return s.profiles.Get(ctx, id)
}

// UnassignedProfiles returns every profile awaiting placement.
func (s *Service) UnassignedProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.QueryUnassigned(ctx)
}

// SaveProfile upserts an attendee profile. An existing assignment is
// preserved; editing a profile never detaches it from its group.
func (s *Service) SaveProfile(ctx context.Context, p model.Profile) error {
	current, err := s.profiles.Get(ctx, p.ID)
	if err == nil {
		p.GroupID = current.GroupID
		p.GroupSize = current.GroupSize
		p.IsMentor = current.IsMentor
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.profiles.Put(ctx, p)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		totalProfiles := s.profiles.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalProfiles"] = totalProfiles
		stats["totalGroups"] = s.groups.Count(ctx)

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateProfilesTotal(totalProfiles)

		if active, err := s.groups.QueryActive(ctx); err == nil {
			stats["activeGroups"] = len(active)
			metrics.UpdateActiveGroups(len(active))
		}
	}

	return stats
}

func groupView(g model.Group, members []types.Member) types.GroupView {
	return types.GroupView{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Interests:   g.Interests,
		GroupSize:   g.GroupSize,
		IsActive:    g.IsActive,
		Members:     members,
	}
}
