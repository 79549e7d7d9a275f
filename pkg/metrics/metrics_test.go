package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "srim")
				So(manager.subsystem, ShouldEqual, "layers")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})

		Convey("When creating with custom buckets", func() {
			manager := NewManager(
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the buckets should be applied and recording enabled", func() {
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.enabled.Load(), ShouldBeTrue)
			})
		})

		Convey("When passing empty option values", func() {
			manager := NewManager(
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})

		Convey("When inspecting the global manager", func() {
			Convey("Then it should use millisecond latency buckets", func() {
				So(globalManager.histogramBuckets, ShouldResemble, millisecondBuckets)
			})
		})
	})
}

func TestSetEnabled(t *testing.T) {
	Convey("Given recording is turned off", t, func() {
		SetEnabled(false)
		Reset(func() { SetEnabled(true) })

		Convey("When recording counters", func() {
			before := testutil.ToFloat64(globalManager.recordsParsed)
			failures := globalManager.processingFailures.WithLabelValues("other")
			failuresBefore := testutil.ToFloat64(failures)
			RecordRecordsParsed(5)
			RecordProcessingFailure("other")

			Convey("Then nothing should advance", func() {
				So(Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(globalManager.recordsParsed), ShouldEqual, before)
				So(testutil.ToFloat64(failures), ShouldEqual, failuresBefore)
			})
		})

		Convey("When recording is turned back on", func() {
			SetEnabled(true)
			before := testutil.ToFloat64(globalManager.recordsParsed)
			RecordRecordsParsed(2)

			Convey("Then counters should advance again", func() {
				So(Enabled(), ShouldBeTrue)
				So(testutil.ToFloat64(globalManager.recordsParsed)-before, ShouldEqual, 2)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline counters", func() {
			before := testutil.ToFloat64(globalManager.recordsParsed)
			linesBefore := testutil.ToFloat64(globalManager.linesScanned)
			RecordRecordsParsed(7)
			RecordLinesScanned(12)
			RecordCandidateLines(7)
			RecordFileProcessed()

			Convey("Then the counters should advance by the recorded amounts", func() {
				So(testutil.ToFloat64(globalManager.recordsParsed)-before, ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.linesScanned)-linesBefore, ShouldEqual, 12)
			})
		})

		Convey("When recording layers", func() {
			emitted := testutil.ToFloat64(globalManager.layersEmitted)
			dropped := testutil.ToFloat64(globalManager.layersDropped)
			RecordLayers(3, 2)

			Convey("Then emitted and dropped should be tracked separately", func() {
				So(testutil.ToFloat64(globalManager.layersEmitted)-emitted, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.layersDropped)-dropped, ShouldEqual, 2)
			})
		})

		Convey("When recording failures by kind", func() {
			before := testutil.ToFloat64(globalManager.processingFailures.WithLabelValues("malformed_record"))
			RecordProcessingFailure("malformed_record")

			Convey("Then the labelled counter should advance", func() {
				after := testutil.ToFloat64(globalManager.processingFailures.WithLabelValues("malformed_record"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When updating the stored runs gauge", func() {
			UpdateRunsStored(4)

			Convey("Then the gauge should hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.runsStored), ShouldEqual, 4)
			})
		})

		Convey("When recording latency and HTTP metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordProcessingLatency(12.5)
					RecordHTTPRequest("process", "POST", "200")
					RecordHTTPRequestDuration("process", "POST", "200", 3.0)
					RecordHTTPError("process", "POST", "client_error", "medium")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording an HTTP error", func() {
			c := globalManager.httpErrors.WithLabelValues("runs", "GET", "not_found", "medium")
			before := testutil.ToFloat64(c)
			RecordHTTPError("runs", "GET", "not_found", "medium")

			Convey("Then the labelled counter should advance", func() {
				So(testutil.ToFloat64(c)-before, ShouldEqual, 1)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordFileProcessed()
		families, err := GetRegistry().Gather()

		Convey("Then it should expose the service metrics", func() {
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "srim_layers_files_processed_total")
		})
	})
}
