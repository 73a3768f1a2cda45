package coefficient_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/epiclock/internal/domain/coefficient"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given a well formed coefficient resource", t, func() {
		resource := []byte("intercept,2.0\nprobeA,3.0\n\"cg,quoted\",-0.25\n")

		Convey("When loading it", func() {
			table, err := coefficient.Load(resource)

			Convey("Then every row becomes an entry", func() {
				So(err, ShouldBeNil)
				So(len(table), ShouldEqual, 3)
				So(table["probeA"], ShouldEqual, float32(3.0))
				So(table["cg,quoted"], ShouldEqual, float32(-0.25))
			})

			Convey("And the intercept is reachable", func() {
				w, ok := table.Intercept()
				So(ok, ShouldBeTrue)
				So(w, ShouldEqual, float32(2.0))
			})

			Convey("And probes exclude the intercept in lexical order", func() {
				So(table.Probes(), ShouldResemble, []string{"cg,quoted", "probeA"})
			})
		})

		Convey("When loading the same bytes twice", func() {
			a, errA := coefficient.Load(resource)
			b, errB := coefficient.Load(resource)

			Convey("Then both tables are equal", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})
	})

	Convey("Given identifiers that differ only by case", t, func() {
		table, err := coefficient.Load([]byte("cgA,1\ncga,2\n"))

		Convey("Then they are distinct keys", func() {
			So(err, ShouldBeNil)
			So(table["cgA"], ShouldEqual, float32(1))
			So(table["cga"], ShouldEqual, float32(2))
		})
	})

	Convey("Given a resource with a duplicate identifier", t, func() {
		table, err := coefficient.Load([]byte("intercept,1\nprobeA,3\nprobeA,4\n"))

		Convey("Then loading fails instead of keeping the last weight", func() {
			So(table, ShouldBeNil)
			So(errors.Is(err, coefficient.ErrDuplicateKey), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 3")
		})
	})

	Convey("Given a row with the wrong field count", t, func() {
		_, err := coefficient.Load([]byte("intercept,1\nprobeA,3,extra\n"))

		Convey("Then loading fails with a parse error", func() {
			So(errors.Is(err, coefficient.ErrResourceParse), ShouldBeTrue)
		})
	})

	Convey("Given a weight that is not a number", t, func() {
		_, err := coefficient.Load([]byte("intercept,abc\n"))

		Convey("Then loading fails with a parse error", func() {
			So(errors.Is(err, coefficient.ErrResourceParse), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "abc")
		})
	})

	Convey("Given an empty resource", t, func() {
		table, err := coefficient.Load(nil)

		Convey("Then the table is empty and has no intercept", func() {
			So(err, ShouldBeNil)
			So(table, ShouldBeEmpty)
			_, ok := table.Intercept()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a coefficient file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "clock.csv")
		So(os.WriteFile(path, []byte("intercept,0.5\ncg1,1.5\n"), 0o600), ShouldBeNil)

		Convey("Then it loads like an embedded resource", func() {
			table, err := coefficient.LoadFile(path)
			So(err, ShouldBeNil)
			So(table["cg1"], ShouldEqual, float32(1.5))
		})

		Convey("And a missing file is reported with its path", func() {
			_, err := coefficient.LoadFile(filepath.Join(dir, "nope.csv"))
			So(err, ShouldNotBeNil)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}
