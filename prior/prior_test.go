package prior

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestLogDensity(t *testing.T) {
	Convey("Given a normal prior centered at 1 with sd 0.5", t, func() {
		spec := paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 1, SD: 0.5}

		Convey("Density is maximal at the mean", func() {
			atMean := LogDensity(1, spec)
			off := LogDensity(1.5, spec)
			So(atMean, ShouldBeGreaterThan, off)
		})
	})

	Convey("Given a uniform prior over [0, 1]", t, func() {
		spec := paramstore.PriorSpec{Family: paramstore.PriorUniform, Lower: 0, Upper: 1}

		Convey("Values outside the support get -Inf", func() {
			So(LogDensity(1.5, spec), ShouldEqual, math.Inf(-1))
			So(LogDensity(-0.1, spec), ShouldEqual, math.Inf(-1))
		})

		Convey("Values inside the support are uniform", func() {
			So(LogDensity(0.2, spec), ShouldEqual, LogDensity(0.8, spec))
		})
	})

	Convey("Given a truncated normal over [0, 2] centered at 1", t, func() {
		spec := paramstore.PriorSpec{Family: paramstore.PriorTruncatedNormal, Mean: 1, SD: 1, Lower: 0, Upper: 2}

		Convey("Out-of-bound values get -Inf", func() {
			So(LogDensity(2.5, spec), ShouldEqual, math.Inf(-1))
		})

		Convey("In-bound density is finite and renormalized above the untruncated value", func() {
			d := LogDensity(1, spec)
			So(math.IsInf(d, 0), ShouldBeFalse)
			untruncated := LogDensity(1, paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 1, SD: 1})
			So(d, ShouldBeGreaterThan, untruncated)
		})
	})
}

func TestHierarchical(t *testing.T) {
	Convey("Given two subpops with the same r0 modifier value", t, func() {
		s := paramstore.Sample{
			HasSNPI: true,
			SNPI: []paramstore.ModifierEntry{
				{Name: "m", Subpop: "A", Param: "r0", Value: 0.5},
				{Name: "m", Subpop: "B", Param: "r0", Value: 0.5},
			},
		}
		groups := []HierarchicalGroup{{Group: paramstore.GroupSNPI, ParamName: "r0", Subpops: []string{"A", "B"}, Lambda: 1}}

		Convey("H(Theta) is zero when all values equal the group mean", func() {
			So(Hierarchical(s, groups), ShouldEqual, 0)
		})
	})

	Convey("Given two subpops with divergent r0 modifier values", t, func() {
		s := paramstore.Sample{
			HasSNPI: true,
			SNPI: []paramstore.ModifierEntry{
				{Name: "m", Subpop: "A", Param: "r0", Value: 0.1},
				{Name: "m", Subpop: "B", Param: "r0", Value: 0.9},
			},
		}
		groups := []HierarchicalGroup{{Group: paramstore.GroupSNPI, ParamName: "r0", Subpops: []string{"A", "B"}, Lambda: 1}}

		Convey("H(Theta) penalizes the divergence", func() {
			So(Hierarchical(s, groups), ShouldBeLessThan, 0)
		})
	})

	Convey("Given Lambda of zero", t, func() {
		s := paramstore.Sample{
			HasSNPI: true,
			SNPI: []paramstore.ModifierEntry{
				{Name: "m", Subpop: "A", Param: "r0", Value: 0.1},
				{Name: "m", Subpop: "B", Param: "r0", Value: 0.9},
			},
		}
		groups := []HierarchicalGroup{{Group: paramstore.GroupSNPI, ParamName: "r0", Subpops: []string{"A", "B"}, Lambda: 0}}

		Convey("The group contributes nothing", func() {
			So(Hierarchical(s, groups), ShouldEqual, 0)
		})
	})
}
