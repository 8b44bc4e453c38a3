package cmd

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/rs/zerolog"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/likelihood"
	"github.com/hopkinsidd/flepimop-inference/metrics"
	"github.com/hopkinsidd/flepimop-inference/monitor/view"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/persistence"
	"github.com/hopkinsidd/flepimop-inference/prior"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// integrationSchema is a two-entry SNPI sample with Normal priors/kernels,
// scored against simulator.Fixed (spec.md §8 Testable Property 1's
// reference collaborator: the likelihood is held constant across every
// proposal, so the acceptance ratio reduces to the prior ratio alone) and
// an Evaluator with no configured targets, so LogLik is always 0 and the
// prior term is the only thing driving accept/reject decisions.
func integrationSchema() paramstore.Sample {
	return paramstore.Sample{
		HasSNPI: true,
		SNPI: []paramstore.ModifierEntry{
			{
				Name: "r0mod", Subpop: "A", Param: "r0", Value: 0.2, Inferable: true,
				Prior:  paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 0, SD: 1},
				Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.1},
			},
			{
				Name: "r0mod", Subpop: "B", Param: "r0", Value: -0.3, Inferable: true,
				Prior:  paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 0, SD: 1},
				Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.1},
			},
		},
	}
}

func integrationConfig(seed int64) *config.Config {
	return &config.Config{
		StartDate: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC),
		Inference: config.InferenceConfig{
			Slots:            1,
			FailureThreshold: 3,
			Seed:             seed,
		},
	}
}

// runIntegrationSlot drives slot 0 through runSlot exactly as the infer
// command does, against a fixed simulator and a target-less evaluator, and
// returns the persisted final global sample.
func runIntegrationSlot(t *testing.T, cfg *config.Config, opts inferOptions) paramstore.Sample {
	t.Helper()
	schema := integrationSchema()
	sim := simulator.Fixed{Trajectory: simulator.Trajectory{}}
	evaluator := likelihood.Evaluator{}
	var hierGroups []prior.HierarchicalGroup
	reg := metrics.New()
	snapshots := make(chan []view.SlotSnapshot, 64)

	err := runSlot(context.Background(), cfg, zerolog.Nop(), sim, evaluator, hierGroups, schema, reg, snapshots, opts, 0)
	So(err, ShouldBeNil)

	reader := persistence.Reader{Root: opts.output}
	k := persistence.Key{Setup: opts.setup, RunID: opts.runID, Group: paramstore.GroupSNPI, Stream: "global", Slot: 0, Block: opts.block}
	final, ok, err := reader.ReadFinal(k, schema)
	So(err, ShouldBeNil)
	So(ok, ShouldBeTrue)
	return final
}

// TestResumeIdempotenceAcrossTwoPhaseAndSingleRun is spec.md §8's Scenario
// C: running a slot for 50 iterations, persisting, resuming, and running 50
// more must land on exactly the same final global sample as running the
// same 100 iterations in a single uninterrupted pass from the same seed —
// Testable Property 3 (resume idempotence).
func TestResumeIdempotenceAcrossTwoPhaseAndSingleRun(t *testing.T) {
	Convey("Given identical seeds, a continuous 100-iteration run and a 50+50 resumed run", t, func() {
		cfg := integrationConfig(7)

		continuous := runIntegrationSlot(t, cfg, inferOptions{
			setup: "scenario-c", runID: "continuous", block: 1,
			iterationsPerSlot: 100, output: t.TempDir(),
		})

		splitOutput := t.TempDir()
		runIntegrationSlot(t, cfg, inferOptions{
			setup: "scenario-c", runID: "split", block: 1,
			iterationsPerSlot: 50, output: splitOutput,
		})
		resumed := runIntegrationSlot(t, cfg, inferOptions{
			setup: "scenario-c", runID: "split", block: 1,
			iterationsPerSlot: 100, output: splitOutput, resume: true,
		})

		Convey("The persisted final global sample is bit-identical either way", func() {
			So(len(resumed.SNPI), ShouldEqual, len(continuous.SNPI))
			for i := range continuous.SNPI {
				So(resumed.SNPI[i].Value, ShouldEqual, continuous.SNPI[i].Value)
			}
		})
	})
}

// TestResumeIdempotenceDiffersAcrossSeeds guards against the comparison
// above being vacuously true (e.g. both runs landing on the unperturbed
// initial value): a different seed must produce a different walk.
func TestResumeIdempotenceDiffersAcrossSeeds(t *testing.T) {
	Convey("Given two continuous runs with different seeds", t, func() {
		a := runIntegrationSlot(t, integrationConfig(7), inferOptions{
			setup: "scenario-c-seeds", runID: "seed-a", block: 1,
			iterationsPerSlot: 100, output: t.TempDir(),
		})
		b := runIntegrationSlot(t, integrationConfig(99), inferOptions{
			setup: "scenario-c-seeds", runID: "seed-b", block: 1,
			iterationsPerSlot: 100, output: t.TempDir(),
		})

		Convey("Their final global samples differ", func() {
			differs := false
			for i := range a.SNPI {
				if a.SNPI[i].Value != b.SNPI[i].Value {
					differs = true
				}
			}
			So(differs, ShouldBeTrue)
		})
	})
}

// TestDetailedBalanceUnderFixedSimulatorConvergesToThePrior is spec.md §8
// Testable Property 1: with the simulator and evaluator both held constant
// (simulator.Fixed, and an Evaluator with no targets contributing LogLik of
// 0), the acceptance ratio collapses to the prior ratio alone, so a long
// chain must stay distributed around the prior mean. The schema's declared
// value of 3.0 is not the chain's start: with no resume data, runSlot
// redraws the inferable entry from its N(0, 1) prior before iteration 0.
func TestDetailedBalanceUnderFixedSimulatorConvergesToThePrior(t *testing.T) {
	Convey("Given a chain whose schema value is three prior standard deviations out but whose start is drawn from the prior", t, func() {
		cfg := integrationConfig(2024)
		schema := paramstore.Sample{
			HasSNPI: true,
			SNPI: []paramstore.ModifierEntry{
				{
					Name: "r0mod", Subpop: "A", Param: "r0", Value: 3.0, Inferable: true,
					Prior:  paramstore.PriorSpec{Family: paramstore.PriorNormal, Mean: 0, SD: 1},
					Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.3},
				},
			},
		}
		sim := simulator.Fixed{Trajectory: simulator.Trajectory{}}
		evaluator := likelihood.Evaluator{}
		var hierGroups []prior.HierarchicalGroup
		reg := metrics.New()
		snapshots := make(chan []view.SlotSnapshot, 64)
		opts := inferOptions{
			setup: "scenario-a", runID: "run1", block: 1,
			iterationsPerSlot: 2000, output: t.TempDir(),
		}

		err := runSlot(context.Background(), cfg, zerolog.Nop(), sim, evaluator, hierGroups, schema, reg, snapshots, opts, 0)
		So(err, ShouldBeNil)

		reader := persistence.Reader{Root: opts.output}
		k := persistence.Key{Setup: opts.setup, RunID: opts.runID, Group: paramstore.GroupSNPI, Stream: "global", Slot: 0, Block: opts.block}
		final, ok, err := reader.ReadFinal(k, schema)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		Convey("After 2000 iterations the chain is within 1.5 prior standard deviations of the prior mean", func() {
			So(final.SNPI[0].Value, ShouldBeLessThan, 1.5)
			So(final.SNPI[0].Value, ShouldBeGreaterThan, -1.5)
		})
	})
}

// TestCrossBlockResumeSeedsFromThePreviousBlocksFinalArtifacts exercises
// spec.md §4.6's block-boundary rule directly: a new block with nothing of
// its own persisted yet must start from the prior block's final/ artifacts,
// continuing the walk rather than redrawing from the prior, and its own
// iteration numbering must restart at zero.
func TestCrossBlockResumeSeedsFromThePreviousBlocksFinalArtifacts(t *testing.T) {
	Convey("Given block 1 run to completion and block 2 resumed with nothing of its own on disk", t, func() {
		cfg := integrationConfig(11)
		output := t.TempDir()
		schema := integrationSchema()

		block1 := runIntegrationSlot(t, cfg, inferOptions{
			setup: "cross-block", runID: "run1", block: 1,
			iterationsPerSlot: 30, output: output,
		})

		block2 := runIntegrationSlot(t, cfg, inferOptions{
			setup: "cross-block", runID: "run1", block: 2,
			iterationsPerSlot: 20, output: output, resume: true,
		})

		Convey("Block 2 continues the walk from block 1's final sample, not a fresh prior draw", func() {
			So(block2.SNPI[0].Value, ShouldNotEqual, schema.SNPI[0].Value)
			So(block2.SNPI[1].Value, ShouldNotEqual, schema.SNPI[1].Value)
			So(block2.SNPI[0].Value, ShouldNotEqual, block1.SNPI[0].Value)
		})

		Convey("Block 2's own iteration artifacts are numbered from zero, not from block 1's count", func() {
			reader := persistence.Reader{Root: output}
			k := persistence.Key{Setup: "cross-block", RunID: "run1", Group: paramstore.GroupSNPI, Stream: "global", Slot: 0, Block: 2}
			iter, ok, err := reader.LatestIteration(k)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(iter, ShouldEqual, 20)
		})
	})
}
