package config_test

import (
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/okian/nailbiter/internal/config"
	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
			convey.So(cfg.ESPNTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.RefreshInterval(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then its policy is the scorer default", func() {
			convey.So(cfg.Policy(), convey.ShouldResemble, excitement.DefaultPolicy())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"negative workers", func(c *config.Config) { c.WorkerCount = -1 }},
			{"zero limit", func(c *config.Config) { c.MaxRankingLimit = 0 }},
			{"zero timeout", func(c *config.Config) { c.ESPNTimeoutMS = 0 }},
			{"negative refresh", func(c *config.Config) { c.RefreshIntervalS = -5 }},
			{"unknown backend", func(c *config.Config) { c.StoreBackend = "etcd" }},
			{"sqlite without path", func(c *config.Config) { c.StoreBackend, c.SQLitePath = "sqlite", "" }},
			{"redis without addr", func(c *config.Config) { c.StoreBackend, c.RedisAddr = "redis", "" }},
			{"negative weight", func(c *config.Config) { c.Weights.LeadChanges = -1 }},
			{"infinite weight", func(c *config.Config) { c.Weights.LeadChanges = math.Inf(1) }},
			{"NaN weight", func(c *config.Config) { c.Weights.TossUp = math.NaN() }},
			{"zero norm", func(c *config.Config) { c.Norms.AverageSwing = 0 }},
			{"infinite norm", func(c *config.Config) { c.Norms.LargestSwing = math.Inf(1) }},
			{"unordered tiers", func(c *config.Config) { c.Thresholds.Exciting = 3 }},
			{"tier above max", func(c *config.Config) { c.Thresholds.MustWatch = 11 }},
		}

		for _, tc := range cases {
			convey.Convey("Then "+tc.name+" is rejected", func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
