package prior

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestResolveScalar(t *testing.T) {
	Convey("Given a Sample with one SNPI entry and a scalar prior over it", t, func() {
		s := paramstore.Sample{
			HasSNPI: true,
			SNPI: []paramstore.ModifierEntry{
				{Name: "r0_mult", Subpop: "northeast", Param: "r0", Value: 1.2},
			},
		}
		cfgs := []config.ScalarPriorConfig{
			{Name: "r0_mult_prior", Expr: "snpi:r0_mult/northeast/r0", Prior: config.PriorConfig{Family: paramstore.PriorNormal, Mean: 1.0, SD: 0.5}},
		}

		Convey("ResolveScalar resolves the entry and scores it under the prior", func() {
			lp, err := ResolveScalar(s, cfgs)
			So(err, ShouldBeNil)
			So(lp, ShouldEqual, LogDensity(1.2, paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 1.0, SD: 0.5}))
		})

		Convey("An expr with no matching entry is an error", func() {
			_, err := ResolveScalar(s, []config.ScalarPriorConfig{{Name: "bad", Expr: "snpi:missing/x/y", Prior: config.PriorConfig{}}})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGroupsFromConfig(t *testing.T) {
	Convey("Given a hierarchical group config", t, func() {
		cfgs := []config.HierarchicalGroupConfig{
			{Group: "seir_modifiers", ParamName: "r0_mult", Subpops: []string{"a", "b"}, Lambda: 2.0},
		}

		Convey("GroupsFromConfig maps Group to the matching paramstore.Group", func() {
			groups := GroupsFromConfig(cfgs)
			So(len(groups), ShouldEqual, 1)
			So(groups[0].Group, ShouldEqual, paramstore.GroupSNPI)
			So(groups[0].Lambda, ShouldEqual, 2.0)
		})
	})
}
