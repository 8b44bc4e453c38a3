package paramstore

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSampleCopy(t *testing.T) {
	Convey("Given a Sample with entries in every group", t, func() {
		s := Sample{
			HasSNPI: true,
			SNPI: []ModifierEntry{
				{Name: "lockdown", Subpop: "A", Param: "r0", Value: 0.5, Inferable: true},
			},
			HasINIT: true,
			INIT: []InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 99000, Inferable: true},
			},
		}

		Convey("When Copy is called and the copy is mutated", func() {
			cp := s.Copy()
			cp.SNPI[0].Value = 0.9
			cp.INIT[0].Amount = 1

			Convey("The original is untouched", func() {
				So(s.SNPI[0].Value, ShouldEqual, 0.5)
				So(s.INIT[0].Amount, ShouldEqual, 99000)
			})
		})
	})
}

func TestIterInferable(t *testing.T) {
	Convey("Given a SEED group with one perturbable and one fixed event", t, func() {
		s := Sample{
			HasSEED: true,
			SEED: []SeedEvent{
				{Subpop: "A", SourceCompartment: "S", DestCompartment: "E", Amount: 10, NoPerturb: false, AmountSD: 2},
				{Subpop: "A", SourceCompartment: "S", DestCompartment: "E", Amount: 5, NoPerturb: true},
			},
		}

		Convey("IterInferable only returns the perturbable one", func() {
			entries := s.IterInferable(GroupSEED)
			So(len(entries), ShouldEqual, 1)
			So(entries[0].Value, ShouldEqual, 10)
		})
	})
}

func TestArtifactRoundTrip(t *testing.T) {
	Convey("Given a schema sample with one INIT entry", t, func() {
		schema := Sample{
			HasINIT: true,
			INIT: []InitialConditionEntry{
				{Subpop: "A", Compartment: "S", Amount: 100000, Inferable: true, Kernel: KernelSpec{Family: KernelNormal, SD: 0.01}},
			},
		}
		live := schema.Copy()
		live.INIT[0].Amount = 95000

		Convey("ToArtifact then FromArtifact preserves the perturbed value and the schema's kernel", func() {
			table := live.ToArtifact(GroupINIT)
			var restored Sample
			err := restored.FromArtifact(GroupINIT, table, schema)
			So(err, ShouldBeNil)
			So(restored.INIT[0].Amount, ShouldEqual, 95000)
			So(restored.INIT[0].Kernel.SD, ShouldEqual, 0.01)
		})
	})

	Convey("Given a schema with one SNPI entry with a time window", t, func() {
		start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
		schema := Sample{
			HasSNPI: true,
			SNPI: []ModifierEntry{
				{Name: "lockdown", Subpop: "A", Param: "r0", Start: start, End: end, Value: 0.4, Inferable: true},
			},
		}

		Convey("Round trip preserves value", func() {
			table := schema.ToArtifact(GroupSNPI)
			var restored Sample
			err := restored.FromArtifact(GroupSNPI, table, schema)
			So(err, ShouldBeNil)
			So(restored.SNPI[0].Value, ShouldEqual, 0.4)
		})
	})
}
