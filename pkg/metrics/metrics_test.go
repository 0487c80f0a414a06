package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("scoring"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered under the namespace", func() {
				m.gamesScored.WithLabelValues("Exciting").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool)
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_scoring_games_scored_total"], ShouldBeTrue)
				So(names["test_queue_size"], ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithLatencyBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "nailbiter")
				So(len(m.latencyBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a game is scored", func() {
			before := testutil.ToFloat64(globalManager.gamesScored.WithLabelValues("Must watch"))
			RecordGameScored("Must watch", 9.1, 6)

			Convey("Then the verdict counter moves", func() {
				after := testutil.ToFloat64(globalManager.gamesScored.WithLabelValues("Must watch"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When a scoring error has no kind", func() {
			before := testutil.ToFloat64(globalManager.scoringErrors.WithLabelValues("other"))
			RecordScoringError("")
			So(testutil.ToFloat64(globalManager.scoringErrors.WithLabelValues("other"))-before, ShouldEqual, 1)
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)
			UpdateStoredGames(12)

			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			So(testutil.ToFloat64(globalManager.storedGames), ShouldEqual, 12)
		})

		Convey("When the remaining recorders run", func() {
			So(func() {
				RecordJobLatency(12)
				RecordRankingRun(3)
				RecordSourceRequest("summary", "ok", 40)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueRejected("full")
				WorkerBusy(1)
				WorkerBusy(-1)
				RecordWorkerDuration(15)
				RecordStoreError("save")
				RecordHTTPRequest("score", "POST", "200", 3)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestRegisterRuntimeCollectors(t *testing.T) {
	Convey("Runtime collectors register once and show up in the registry", t, func() {
		So(RegisterRuntimeCollectors, ShouldNotPanic)
		So(RegisterRuntimeCollectors, ShouldNotPanic)

		families, err := GetRegistry().Gather()
		So(err, ShouldBeNil)

		var found bool
		for _, f := range families {
			if f.GetName() == "go_goroutines" {
				found = true
			}
		}
		So(found, ShouldBeTrue)
	})
}
