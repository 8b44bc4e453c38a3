package compartmental

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestSimulateConservesPopulation(t *testing.T) {
	Convey("Given a single subpop with an infectious seed", t, func() {
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 30)
		cfg := &config.Config{
			StartDate: start, EndDate: end,
			Subpopulations: []config.Subpopulation{{ID: "A", Population: 100000}},
		}
		m := New(cfg, Rates{Beta: 0.3, SigmaInv: 5, GammaInv: 7})
		sample := paramstore.Sample{
			HasINIT: true,
			INIT: []paramstore.InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 99000},
				{Subpop: "A", Compartment: "I", Amount: 1000},
			},
		}

		Convey("Every day's compartments sum to the initial total", func() {
			traj, err := m.Simulate(context.Background(), sample)
			So(err, ShouldBeNil)
			s, _ := traj.At("A", "S")
			e, _ := traj.At("A", "E")
			i, _ := traj.At("A", "I")
			r, _ := traj.At("A", "R")
			for t := range s.Values {
				total := s.Values[t] + e.Values[t] + i.Values[t] + r.Values[t]
				So(total, ShouldAlmostEqual, 100000, 1e-6)
			}
		})

		Convey("Infections rise before the infectious stock depletes", func() {
			traj, _ := m.Simulate(context.Background(), sample)
			i, _ := traj.At("A", "I")
			So(i.Values[5], ShouldBeGreaterThan, 0)
		})
	})
}
