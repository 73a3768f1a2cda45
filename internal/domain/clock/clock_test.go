package clock_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/epiclock/internal/domain/clock"
	"github.com/okian/epiclock/internal/domain/coefficient"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApply(t *testing.T) {
	Convey("Given the Horvath adjustment", t, func() {
		Convey("When the sum is negative", func() {
			for _, x := range []float32{-0.1, -1, -5} {
				want := 21*math.Exp(float64(x)) - 1
				So(clock.Apply(clock.AdjustHorvath, x), ShouldAlmostEqual, want, 1e-4)
			}
		})

		Convey("When the sum is zero or positive", func() {
			So(clock.Apply(clock.AdjustHorvath, 0), ShouldEqual, float32(21))
			So(clock.Apply(clock.AdjustHorvath, 1), ShouldEqual, float32(42))
			So(clock.Apply(clock.AdjustHorvath, 2.5), ShouldEqual, float32(73.5))
		})

		Convey("Then both branches keep their own value around zero", func() {
			below := clock.Apply(clock.AdjustHorvath, -math.SmallestNonzeroFloat32)
			So(below, ShouldAlmostEqual, 20, 1e-4)
			So(clock.Apply(clock.AdjustHorvath, 0), ShouldEqual, float32(21))
		})

		Convey("Then a sum of -0.1 reports roughly eighteen years", func() {
			So(clock.Apply(clock.AdjustHorvath, -0.1), ShouldAlmostEqual, 18.0016, 1e-3)
		})
	})

	Convey("Given the identity adjustment", t, func() {
		for _, x := range []float32{-3.5, 0, 6.5, 1e6} {
			So(clock.Apply(clock.AdjustIdentity, x), ShouldEqual, x)
		}
	})

	Convey("Given an unknown adjustment", t, func() {
		So(clock.Apply(clock.Adjustment(99), 4), ShouldEqual, float32(4))
		So(clock.Adjustment(99).String(), ShouldEqual, "adjustment(99)")
	})
}

func TestModel(t *testing.T) {
	Convey("Given a model without a published probe count", t, func() {
		m := clock.New("x", "X", coefficient.Table{"intercept": 1, "cg1": 2}, clock.AdjustIdentity)

		Convey("Then it is never partial", func() {
			So(m.Partial(), ShouldBeFalse)
		})

		Convey("When its table covers the published count", func() {
			m.Published = 1
			So(m.Partial(), ShouldBeFalse)
		})

		Convey("When its table falls short of the published count", func() {
			m.Published = 2
			So(m.Partial(), ShouldBeTrue)
		})
	})

	Convey("Given a model with an intercept and one probe", t, func() {
		m := clock.New("test", "Test", coefficient.Table{"intercept": 2, "probeA": 3}, clock.AdjustIdentity)

		Convey("Then known probes report their weight", func() {
			So(m.Weight("probeA"), ShouldEqual, float32(3))
		})

		Convey("And unknown probes weigh nothing", func() {
			So(m.Weight("probeB"), ShouldEqual, float32(0))
		})

		Convey("And the intercept is exposed", func() {
			w, ok := m.Intercept()
			So(ok, ShouldBeTrue)
			So(w, ShouldEqual, float32(2))
		})
	})
}

func TestBuiltin(t *testing.T) {
	Convey("Given the embedded model set", t, func() {
		set, err := clock.Builtin()

		Convey("Then it holds Horvath then PhenoAge", func() {
			So(err, ShouldBeNil)
			So(set.Names(), ShouldResemble, []string{"Horvath Clock", "DNAm PhenoAge"})
			So(set[0].Adjustment, ShouldEqual, clock.AdjustHorvath)
			So(set[1].Adjustment, ShouldEqual, clock.AdjustIdentity)
		})

		Convey("And every table carries an intercept", func() {
			for _, m := range set {
				_, ok := m.Intercept()
				So(ok, ShouldBeTrue)
			}
		})

		Convey("And the embedded tables are flagged as partial", func() {
			So(set[0].Published, ShouldEqual, clock.HorvathProbes)
			So(set[1].Published, ShouldEqual, clock.PhenoAgeProbes)
			for _, m := range set {
				So(m.Partial(), ShouldBeTrue)
			}
		})

		Convey("When selecting a single model", func() {
			sub, err := set.Select(clock.KeyPhenoAge)
			So(err, ShouldBeNil)
			So(sub.Names(), ShouldResemble, []string{"DNAm PhenoAge"})
		})

		Convey("When selecting in reverse order", func() {
			sub, err := set.Select(clock.KeyPhenoAge, clock.KeyHorvath)
			So(err, ShouldBeNil)
			So(sub.Names(), ShouldResemble, []string{"Horvath Clock", "DNAm PhenoAge"})
		})

		Convey("When selecting an unknown model", func() {
			_, err := set.Select("hannum")
			So(errors.Is(err, clock.ErrUnknownModel), ShouldBeTrue)
		})
	})

	Convey("Given single model constructors", t, func() {
		h, err := clock.Horvath()
		So(err, ShouldBeNil)
		So(h.Key, ShouldEqual, clock.KeyHorvath)

		p, err := clock.PhenoAge()
		So(err, ShouldBeNil)
		So(p.Key, ShouldEqual, clock.KeyPhenoAge)
	})

	Convey("Given a coefficients directory", t, func() {
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "horvath.csv"), []byte("intercept,0.1\ncg1,1\n"), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "phenoage.csv"), []byte("intercept,50\ncg2,2\n"), 0o600), ShouldBeNil)

		Convey("Then its tables replace the embedded ones", func() {
			set, err := clock.BuiltinFrom(dir)
			So(err, ShouldBeNil)
			So(set[0].Weight("cg1"), ShouldEqual, float32(1))
			So(set[1].Weight("cg2"), ShouldEqual, float32(2))
			So(set[0].Partial(), ShouldBeTrue)
		})

		Convey("And a broken table aborts the whole set", func() {
			So(os.WriteFile(filepath.Join(dir, "phenoage.csv"), []byte("cg2,1\ncg2,2\n"), 0o600), ShouldBeNil)
			_, err := clock.BuiltinFrom(dir)
			So(errors.Is(err, coefficient.ErrDuplicateKey), ShouldBeTrue)
		})
	})
}
