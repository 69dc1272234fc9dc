package matcher

import "github.com/okian/mingle/pkg/logger"

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithMinGroupSize sets the smallest size an active group may keep
// before the rebalancer treats it as a merge candidate.
func WithMinGroupSize(n int) Option {
	return func(m *Matcher) {
		if n >= 2 {
			m.minSize = n
		}
	}
}

// WithTargetGroupSize sets the chunk size the builder aims for.
func WithTargetGroupSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.targetSize = n
		}
	}
}

// WithMaxGroupSize sets the size above which the rebalancer splits.
func WithMaxGroupSize(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithMergeThreshold sets the size below which an active group is
// considered as the receiving side of a merge.
func WithMergeThreshold(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.mergeThreshold = n
		}
	}
}

// WithLogger sets a custom logger for the matcher.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}
