package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every metric is registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.heatCount.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(manager.heatCount), ShouldEqual, 3)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the names carry the namespace and subsystem", func() {
				manager.tieBreaks.Inc()
				n, err := testutil.GatherAndCount(registry, "test_sub_tie_breaks_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "dance")
				So(manager.subsystem, ShouldEqual, "competition")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestCompetitionMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When a phase becomes current", func() {
			UpdateCurrentPhase("SEMIFINAL", []string{"HEATS", "SEMIFINAL", "FINAL"})

			Convey("Then only that phase gauge is set", func() {
				So(testutil.ToFloat64(globalManager.currentPhase.WithLabelValues("SEMIFINAL")), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.currentPhase.WithLabelValues("HEATS")), ShouldEqual, 0)
			})
		})

		Convey("When scores are accepted", func() {
			before := testutil.ToFloat64(globalManager.scoresAccepted.WithLabelValues("FINAL"))
			RecordScoresAccepted("FINAL", 4)

			Convey("Then the counter grows by the entry count", func() {
				So(testutil.ToFloat64(globalManager.scoresAccepted.WithLabelValues("FINAL")), ShouldEqual, before+4)
			})
		})

		Convey("When a transition is recorded", func() {
			before := testutil.ToFloat64(globalManager.transitions.WithLabelValues("advance_final", "ok"))
			RecordTransition("advance_final", "ok", 1.5)

			So(testutil.ToFloat64(globalManager.transitions.WithLabelValues("advance_final", "ok")), ShouldEqual, before+1)
		})

		Convey("When gauges are updated", func() {
			UpdateHeatCount(3)
			UpdateSnapshotVersion(42)
			UpdateFeedSubscribers(2)
			UpdateQueueSize(7)

			So(testutil.ToFloat64(globalManager.heatCount), ShouldEqual, 3)
			So(testutil.ToFloat64(globalManager.snapshotVersion), ShouldEqual, 42)
			So(testutil.ToFloat64(globalManager.feedSubscribers), ShouldEqual, 2)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given every recording helper", t, func() {
		So(func() {
			RecordScoresRejected("validation")
			RecordTieBreaks(2)
			RecordSubmissionThrottled()
			RecordHTTPRequest("/scores", "POST", "200")
			RecordHTTPRequestDuration("/scores", "POST", "200", 3.0)
			RecordRepositoryLatency("upsert_scores", 0.2)
			UpdateRepositoryRecords("scores", 10)
			UpdateQueueCapacity(64)
			RecordQueueEnqueue()
			RecordQueueDequeue()
			RecordQueueDropped()
			RecordWorkerProcessingLatency(0.5)
			RecordWorkerError()
			RecordFeedBroadcast(3)
			RecordFeedEvicted()
			RecordErrorByComponent("competition", "invalid_phase")
			RecordErrorByEndpoint("/competition/final", "POST", "invalid_phase")
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.3)
		}, ShouldNotPanic)
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueued)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
				}
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.queueEnqueued), ShouldEqual, before+1000)
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		_, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
	})
}
