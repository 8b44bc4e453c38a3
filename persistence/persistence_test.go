package persistence

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestWriteThenReadGroupRoundTrips(t *testing.T) {
	Convey("Given a Sample with one INIT entry written to a temp directory", t, func() {
		dir := t.TempDir()
		schema := paramstore.Sample{
			HasINIT: true,
			INIT: []paramstore.InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 100000, Inferable: true},
			},
		}
		live := schema.Copy()
		live.INIT[0].Amount = 94000

		w := Writer{Root: dir}
		k := Key{Setup: "test", RunID: "run1", Group: paramstore.GroupINIT, Stream: "global", Slot: 1, Block: 1, Iteration: 5}

		Convey("The written artifact round-trips through Reader", func() {
			So(w.WriteGroup(k, live), ShouldBeNil)

			r := Reader{Root: dir}
			restored, err := r.ReadGroup(k, schema)
			So(err, ShouldBeNil)
			So(restored.INIT[0].Amount, ShouldEqual, 94000)
		})

		Convey("LatestIteration finds the highest iteration written", func() {
			So(w.WriteGroup(k, live), ShouldBeNil)
			k2 := k
			k2.Iteration = 12
			So(w.WriteGroup(k2, live), ShouldBeNil)

			r := Reader{Root: dir}
			iter, ok, err := r.LatestIteration(k)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(iter, ShouldEqual, 12)
		})
	})
}

func TestResumeSampleRestoresFromDisk(t *testing.T) {
	Convey("Given a run with one persisted iteration", t, func() {
		dir := t.TempDir()
		schema := paramstore.Sample{
			HasINIT: true,
			INIT: []paramstore.InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 100000, Inferable: true},
			},
		}
		live := schema.Copy()
		live.INIT[0].Amount = 91000
		w := Writer{Root: dir}
		k := Key{Setup: "test", RunID: "run1", Group: paramstore.GroupINIT, Stream: "global", Slot: 2, Block: 1, Iteration: 3}
		So(w.WriteGroup(k, live), ShouldBeNil)

		Convey("ResumeSample recovers the persisted value and iteration", func() {
			restored, iter, err := ResumeSample(dir, "test", "run1", "global", 2, 1, schema)
			So(err, ShouldBeNil)
			So(iter, ShouldEqual, 3)
			So(restored.INIT[0].Amount, ShouldEqual, 91000)
		})
	})
}

func TestLikelihoodWriteThenReadRoundTrips(t *testing.T) {
	Convey("Given a persisted likelihood record", t, func() {
		dir := t.TempDir()
		w := Writer{Root: dir}
		k := LikelihoodKey("test", "run1", "global", 1, 1, 7)
		perSubpop := map[string]float64{"A": -10.5, "B": -3.25}

		Convey("ReadLikelihood restores the total, prior, and per-subpop breakdown", func() {
			So(w.WriteLikelihood(k, -20.75, -1.5, perSubpop), ShouldBeNil)

			r := Reader{Root: dir}
			total, logPrior, restored, err := r.ReadLikelihood(k)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, -20.75)
			So(logPrior, ShouldEqual, -1.5)
			So(restored["A"], ShouldEqual, -10.5)
			So(restored["B"], ShouldEqual, -3.25)
		})

		Convey("ResumeLikelihood finds the highest-iteration record", func() {
			So(w.WriteLikelihood(k, -20.75, -1.5, perSubpop), ShouldBeNil)
			k2 := k
			k2.Iteration = 9
			So(w.WriteLikelihood(k2, -18.0, -1.0, perSubpop), ShouldBeNil)

			total, _, _, iter, ok, err := ResumeLikelihood(dir, "test", "run1", "global", 1, 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(iter, ShouldEqual, 9)
			So(total, ShouldEqual, -18.0)
		})
	})
}

func TestEMCEEArchiveRoundTrips(t *testing.T) {
	Convey("Given two walkers' INIT groups written to an archive", t, func() {
		dir := t.TempDir()
		schema := paramstore.Sample{
			HasINIT: true,
			INIT: []paramstore.InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 100000, Inferable: true},
			},
		}
		w1 := schema.Copy()
		w1.INIT[0].Amount = 90000
		w2 := schema.Copy()
		w2.INIT[0].Amount = 85000

		a := EMCEEArchive{Root: dir, Setup: "test", RunID: "run1"}
		So(a.WriteSweep(paramstore.GroupINIT, 4, []paramstore.Sample{w1, w2}), ShouldBeNil)

		Convey("ReadSweep restores both walkers in order", func() {
			out, err := a.ReadSweep(paramstore.GroupINIT, 4, schema)
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 2)
			So(out[0].INIT[0].Amount, ShouldEqual, 90000)
			So(out[1].INIT[0].Amount, ShouldEqual, 85000)
		})
	})
}
