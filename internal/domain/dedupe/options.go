package dedupe

const defaultMaxEntries = 50000

type settings struct {
	maxEntries int
}

// Option applies a configuration option to the tracker.
type Option func(*settings)

// WithMaxEntries caps how many ids the tracker retains. Oldest ids are
// evicted first once the cap is reached. Zero or negative means
// unbounded.
func WithMaxEntries(n int) Option {
	return func(s *settings) {
		s.maxEntries = n
	}
}
