// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Store backend identifiers.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory trigger queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of trigger workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the trigger deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MinGroupSize is the smallest size an active group may keep.
	MinGroupSize int `koanf:"min_group_size"`

	// TargetGroupSize is the cohort size the builder aims for.
	TargetGroupSize int `koanf:"target_group_size"`

	// MaxGroupSize is the size above which a group is split.
	MaxGroupSize int `koanf:"max_group_size"`

	// MergeThreshold is the size below which a group may receive a merge.
	MergeThreshold int `koanf:"merge_threshold"`

	// MatchIntervalSeconds schedules a periodic matching trigger.
	// Zero disables the schedule; matching then runs only on demand.
	MatchIntervalSeconds int `koanf:"match_interval_seconds"`

	// Store selects the persistence backend: memory or mongo.
	Store string `koanf:"store"`

	// MongoURI and MongoDatabase configure the mongo backend.
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          2,
		DedupeSize:           50_000,
		MinGroupSize:         3,
		TargetGroupSize:      6,
		MaxGroupSize:         10,
		MergeThreshold:       6,
		MatchIntervalSeconds: 0,
		Store:                StoreMemory,
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "mingle",
	}
	return c
}
