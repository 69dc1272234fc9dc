package config_test

import (
	"testing"

	"github.com/okian/mingle/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MinGroupSize, convey.ShouldEqual, 3)
			convey.So(cfg.TargetGroupSize, convey.ShouldEqual, 6)
			convey.So(cfg.MaxGroupSize, convey.ShouldEqual, 10)
			convey.So(cfg.MergeThreshold, convey.ShouldEqual, 6)
			convey.So(cfg.MatchIntervalSeconds, convey.ShouldEqual, 0)
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
		})
	})
}
