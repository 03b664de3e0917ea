package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a dedicated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector should be registered on it", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.cyclesTotal.Inc()

			Convey("Then names and constant labels should follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_cycles_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording a published cycle", func() {
			before := testutil.ToFloat64(globalManager.cyclesTotal)
			RecordCycle(2016, 4, 1.5)

			Convey("Then counters and gauges should move", func() {
				So(testutil.ToFloat64(globalManager.cyclesTotal), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.currentYear), ShouldEqual, 2016)
				So(testutil.ToFloat64(globalManager.frameVersion), ShouldEqual, 4)
			})
		})

		Convey("When recording selections", func() {
			before := testutil.ToFloat64(globalManager.selectionsCoalesced)
			RecordSelectionSubmitted()
			RecordSelectionCoalesced()
			RecordSelectionRejected("unknown_year")
			UpdateQueueDepth(1)

			Convey("Then they should be visible", func() {
				So(testutil.ToFloat64(globalManager.selectionsCoalesced), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.selectionsRejected.WithLabelValues("unknown_year")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.queueDepth), ShouldEqual, 1)
			})
		})

		Convey("When recording load, render, export and HTTP metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					UpdateRowsLoaded(120)
					RecordLoadDuration(3)
					RecordLoadError("missing_column")
					RecordCycleFailure()
					RecordRenderDuration("svg", "pie", 2)
					RecordExport("ok")
					RecordHTTPRequest("charts", "GET", "200")
					RecordHTTPRequestDuration("charts", "GET", "200", 1)
					RecordErrorByEndpoint("selection", "POST", "client_error")
					RecordErrorByType("client_error", "medium")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
				So(testutil.ToFloat64(globalManager.rowsLoaded), ShouldEqual, 120)
			})
		})

		Convey("When gathering the shared registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it should succeed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
