package view

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConvert(t *testing.T) {
	Convey("Given snapshots for slots out of order", t, func() {
		snapshots := []SlotSnapshot{
			{Slot: 2, Iteration: 40, GlobalAcceptRate: 0.5},
			{Slot: 1, Iteration: 10, GlobalAcceptRate: 0.25},
		}

		Convey("Convert sorts rows by slot and formats rates/scores", func() {
			rows := Convert(snapshots)
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Slot, ShouldEqual, 1)
			So(rows[0].GlobalAcceptRate, ShouldEqual, "0.250")
			So(rows[1].Slot, ShouldEqual, 2)
			So(rows[1].Iteration, ShouldEqual, 40)
		})
	})
}

func TestSlotTableUpdates(t *testing.T) {
	Convey("Given a SlotTable fed one batch of rows", t, func() {
		input := make(chan []SlotViewModel)
		done := make(chan struct{})
		defer close(done)

		st := NewSlotTable(done, input)

		Convey("onUpdate emits one EleUpdate per displayed field", func() {
			go func() {
				input <- []SlotViewModel{{Slot: 3, Block: 1, Iteration: 7, GlobalAcceptRate: "0.100", ChimericAcceptRate: "0.200", GlobalScore: "-1.50", ChimericScore: "-2.00"}}
			}()
			ops := <-st.Updates()
			So(len(ops), ShouldEqual, 6)
			So(ops[0].EleId, ShouldEqual, "slot-3-block")
		})
	})
}
