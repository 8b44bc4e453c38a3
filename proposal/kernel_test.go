package proposal

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestPerturbClipsToSupport(t *testing.T) {
	Convey("Given a support of [0, 1] and a large kernel SD", t, func() {
		r := rand.New(rand.NewSource(1))
		support := paramstore.Support{HasLower: true, Lower: 0, HasUpper: true, Upper: 1}
		spec := paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 10}

		Convey("Every proposed value stays within the support", func() {
			for i := 0; i < 200; i++ {
				v := Perturb(r, 0.5, spec, support)
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				So(v, ShouldBeLessThanOrEqualTo, 1)
			}
		})
	})
}

func TestPerturbZeroSDIsNoOp(t *testing.T) {
	Convey("Given a kernel with SD 0", t, func() {
		r := rand.New(rand.NewSource(1))
		spec := paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0}

		Convey("Perturb returns the current value unchanged", func() {
			So(Perturb(r, 0.42, spec, paramstore.Support{}), ShouldEqual, 0.42)
		})
	})
}

func TestProposeSeedingClampsToWindowAndNonNegative(t *testing.T) {
	Convey("Given a seed event near the inference window boundary", t, func() {
		r := rand.New(rand.NewSource(7))
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
		events := []paramstore.SeedEvent{
			{Subpop: "A", Date: start, Amount: 1, AmountSD: 100, DateSD: 100},
		}

		Convey("The perturbed event stays within the window and non-negative", func() {
			out := ProposeSeeding(r, events, start, end, false)
			So(out[0].Date.Before(start), ShouldBeFalse)
			So(out[0].Date.After(end), ShouldBeFalse)
			So(out[0].Amount, ShouldBeGreaterThanOrEqualTo, 0)
		})
	})
}

func TestProposeSeedingRoundsAmountsWhenStochastic(t *testing.T) {
	Convey("Given stochastic mode is requested", t, func() {
		r := rand.New(rand.NewSource(7))
		start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
		events := []paramstore.SeedEvent{
			{Subpop: "A", Date: start, Amount: 5, AmountSD: 2.5},
		}

		Convey("Every perturbed amount is an integer", func() {
			for i := 0; i < 50; i++ {
				out := ProposeSeeding(r, events, start, end, true)
				So(out[0].Amount, ShouldEqual, float64(int64(out[0].Amount)))
			}
		})
	})
}

func TestProposeInitialConservesSubpopTotal(t *testing.T) {
	Convey("Given two inferable compartments in one subpop", t, func() {
		r := rand.New(rand.NewSource(3))
		entries := []paramstore.InitialConditionEntry{
			{Subpop: "A", Compartment: "S", Amount: 90000, Inferable: true, Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.05}},
			{Subpop: "A", Compartment: "I", Amount: 10000, Inferable: true, Kernel: paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: 0.05}},
		}

		Convey("The perturbed amounts still sum to the original total", func() {
			out := ProposeInitial(r, entries)
			sum := out[0].Amount + out[1].Amount
			So(sum, ShouldAlmostEqual, 100000, 1e-6)
		})
	})
}
