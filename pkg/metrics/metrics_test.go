package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics manager options", t, func() {
		Convey("When creating options", func() {
			Convey("Then they should not be nil", func() {
				So(WithNamespace("test"), ShouldNotBeNil)
				So(WithSubsystem("test"), ShouldNotBeNil)
				So(WithHistogramBuckets([]float64{1, 2, 3}), ShouldNotBeNil)
				So(WithPrometheusRegistry(prometheus.NewRegistry()), ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with it", func() {
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the manager and its metrics should exist", func() {
				So(manager, ShouldNotBeNil)
				So(manager.logsParsed, ShouldNotBeNil)
				So(manager.gamesStored, ShouldNotBeNil)
				So(manager.queueSize, ShouldNotBeNil)
				So(manager.httpRequests, ShouldNotBeNil)
			})

			Convey("Then the registry should hold registered collectors", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating a manager with custom naming", func() {
			manager := NewManager(
				WithPrometheusRegistry(registry),
				WithNamespace("custom"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.5, 1, 5}),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "custom")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.5, 1, 5})
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording parse pipeline metrics", func() {
			Convey("Then the helpers should not panic", func() {
				So(func() {
					RecordLogParsed()
					RecordParseFailure()
					RecordParseDuration(12.5)
					ObserveGameShape(42, 6)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording store metrics", func() {
			Convey("Then the helpers should not panic", func() {
				So(func() {
					RecordGameStored()
					RecordGameDuplicate()
					RecordStoreError()
					RecordStoreLatency(3.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue and worker metrics", func() {
			Convey("Then the helpers should not panic", func() {
				So(func() {
					UpdateQueueSize(10)
					UpdateQueueCapacity(256)
					UpdateQueueUtilization(10.0 / 256.0)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					UpdateWorkerCount(4)
					RecordWorkerProcessingLatency(7.7)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			Convey("Then the helpers should not panic", func() {
				So(func() {
					RecordHTTPRequest("/games", "POST", "202")
					RecordHTTPRequestDuration("/games", "POST", "202", 15.0)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should be usable for scraping", func() {
				So(registry, ShouldNotBeNil)
				_, err := registry.Gather()
				So(err, ShouldBeNil)
			})
		})
	})
}
