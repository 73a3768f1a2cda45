package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			m := NewManager()

			Convey("Then it owns a private registry", func() {
				So(m, ShouldNotBeNil)
				So(m.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("clock"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithRegistry(registry),
			)
			m.RecordReadings(1)

			Convey("Then metric names follow the namespace and subsystem", func() {
				So(m.Registry(), ShouldEqual, registry)
				n, err := testutil.GatherAndCount(registry, "test_clock_readings_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given a fresh manager", t, func() {
		m := NewManager()

		Convey("When recording a scoring pass", func() {
			m.RecordReadings(10)
			m.RecordReadings(5)
			m.RecordMasked(2)
			m.RecordMatched("horvath", 7)
			m.SetTableSize("horvath", 353)
			m.SetAge("horvath", 42.25)
			m.ObservePass(15 * time.Millisecond)
			m.RecordRun(OutcomeSuccess, time.Unix(1700000000, 0))

			Convey("Then counters and gauges hold the recorded values", func() {
				So(testutil.ToFloat64(m.readingsTotal), ShouldEqual, 15.0)
				So(testutil.ToFloat64(m.valuesMasked), ShouldEqual, 2.0)
				So(testutil.ToFloat64(m.probesMatched.WithLabelValues("horvath")), ShouldEqual, 7.0)
				So(testutil.ToFloat64(m.tableSize.WithLabelValues("horvath")), ShouldEqual, 353.0)
				So(testutil.ToFloat64(m.reportedAge.WithLabelValues("horvath")), ShouldEqual, 42.25)
				So(testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSuccess)), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.lastRunUnix), ShouldEqual, 1700000000.0)
			})
		})
	})

	Convey("Given a cohort run", t, func() {
		m := NewManager()
		m.SetQueueDepth(4)
		m.AddActiveWorkers(3)
		m.AddActiveWorkers(-1)
		m.ObserveJob(20 * time.Millisecond)

		Convey("Then queue and worker gauges are tracked", func() {
			So(testutil.ToFloat64(m.queueDepth), ShouldEqual, 4.0)
			So(testutil.ToFloat64(m.activeWorkers), ShouldEqual, 2.0)
			n, err := testutil.GatherAndCount(m.Registry(), "epiclock_worker_job_duration_seconds")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithMetricsEnabled(false))
		m.RecordReadings(3)

		Convey("Then nothing is recorded", func() {
			So(testutil.ToFloat64(m.readingsTotal), ShouldEqual, 0.0)
		})
	})

	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then recording is a no-op", func() {
			So(func() {
				m.RecordReadings(1)
				m.RecordMasked(1)
				m.RecordMatched("x", 1)
				m.SetAge("x", 1)
				m.ObservePass(time.Second)
				m.RecordRun(OutcomeFailure, time.Now())
				m.SetQueueDepth(1)
				m.AddActiveWorkers(1)
				m.ObserveJob(time.Second)
			}, ShouldNotPanic)
		})

		Convey("And writing fails", func() {
			So(errors.Is(m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")), ErrWriteFailed), ShouldBeTrue)
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given recorded metrics", t, func() {
		m := NewManager()
		m.SetAge("phenoage", 61.5)
		path := filepath.Join(t.TempDir(), "epiclock.prom")

		Convey("When writing them to a textfile", func() {
			err := m.WriteTextfile(path)

			Convey("Then the file carries the exposition format", func() {
				So(err, ShouldBeNil)
				b, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `epiclock_scoring_age_years{model="phenoage"} 61.5`)
			})
		})

		Convey("When the target directory does not exist", func() {
			err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then the error wraps the write failure", func() {
				So(errors.Is(err, ErrWriteFailed), ShouldBeTrue)
			})
		})
	})
}
