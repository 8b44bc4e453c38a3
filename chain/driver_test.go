package chain

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/likelihood"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/rng"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// countingSimulator counts Simulate invocations and always returns an empty
// trajectory over the same window, regardless of the proposed sample.
type countingSimulator struct {
	calls int
}

func (c *countingSimulator) Simulate(ctx context.Context, sample paramstore.Sample) (simulator.Trajectory, error) {
	c.calls++
	return simulator.Trajectory{}, nil
}

func twoSubpopSample() paramstore.Sample {
	return paramstore.Sample{
		HasSNPI: true,
		SNPI: []paramstore.ModifierEntry{
			{Name: "r0mod", Subpop: "A", Param: "r0", Value: 0.1, Inferable: true,
				Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.05}},
			{Name: "r0mod", Subpop: "B", Param: "r0", Value: 0.1, Inferable: true,
				Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.05}},
		},
	}
}

func testDriver(sim simulator.Simulator) Driver {
	cfg := &config.Config{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC),
		Inference: config.InferenceConfig{Seed: 1},
	}
	return Driver{
		Config:    cfg,
		Simulator: sim,
		Evaluator: likelihood.Evaluator{},
	}
}

func TestStepInvokesSimulatorExactlyOnce(t *testing.T) {
	Convey("Given a driver stepping a two-subpopulation sample", t, func() {
		sim := &countingSimulator{}
		d := testDriver(sim)
		state := NewState(0, twoSubpopSample(), 0, 0, map[string]float64{"A": 0, "B": 0})
		rctx := rng.NewContext(1, 0)

		err := d.step(context.Background(), state, rctx)

		Convey("The simulator is invoked exactly once, never once per subpopulation", func() {
			So(err, ShouldBeNil)
			So(sim.calls, ShouldEqual, 1)
		})
	})
}

func TestAcceptedGlobalWithResetSkipsChimericDecisions(t *testing.T) {
	Convey("Given a driver whose global score always accepts and reset_chimeric_on_accept is its default (true)", t, func() {
		sim := &countingSimulator{}
		d := testDriver(sim)
		// An empty Evaluator and nil HierGroups/ScalarPriors score every
		// candidate at 0, matching the fresh state's score of 0: the
		// Metropolis draw log(u) < 0 always holds for u in (0,1), so the
		// global proposal is deterministically accepted here.
		state := NewState(0, twoSubpopSample(), 0, 0, map[string]float64{"A": 0, "B": 0})
		rctx := rng.NewContext(1, 0)

		err := d.step(context.Background(), state, rctx)

		Convey("The chimeric book mirrors the accepted global sample and no chimeric decision was recorded", func() {
			So(err, ShouldBeNil)
			So(state.GlobalAcceptRate(), ShouldEqual, 1)
			So(state.ChimericAcceptRate(), ShouldEqual, 0)
			So(sim.calls, ShouldEqual, 1)
			So(state.Chimeric.Sample.SNPI, ShouldResemble, state.Global.Sample.SNPI)
		})
	})
}

func TestRejectedGlobalRunsChimericDecisionsFromTheSameSimulation(t *testing.T) {
	Convey("Given a driver whose recorded global score is far above any candidate's", t, func() {
		sim := &countingSimulator{}
		d := testDriver(sim)
		state := NewState(0, twoSubpopSample(), 0, 0, map[string]float64{"A": 0, "B": 0})
		// Force the global decision to reject: the current book's score is
		// astronomically higher than any candidate's (which scores 0 here).
		state.Global.LogLik = 1e9
		rctx := rng.NewContext(1, 0)

		err := d.step(context.Background(), state, rctx)

		Convey("Chimeric decisions run for both subpopulations, still from the single simulated candidate", func() {
			So(err, ShouldBeNil)
			So(state.GlobalAcceptRate(), ShouldEqual, 0)
			// Two subpopulations, one chimeric decision each, zero additional
			// simulator calls beyond the single joint proposal.
			So(sim.calls, ShouldEqual, 1)
		})
	})
}
