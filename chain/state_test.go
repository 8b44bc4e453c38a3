package chain

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

func TestNewStateAcceptRatesStartAtZero(t *testing.T) {
	Convey("Given a freshly constructed state", t, func() {
		s := NewState(0, paramstore.Sample{}, 0, 0, nil)

		Convey("Both acceptance rates are zero with no iterations recorded", func() {
			So(s.GlobalAcceptRate(), ShouldEqual, 0)
			So(s.ChimericAcceptRate(), ShouldEqual, 0)
		})
	})
}

func TestRecordGlobalUpdatesAcceptRate(t *testing.T) {
	Convey("Given a state that records two proposals, one accepted", t, func() {
		s := NewState(0, paramstore.Sample{}, 0, 0, nil)
		s.RecordGlobal(true)
		s.RecordGlobal(false)

		Convey("The global acceptance rate is one half", func() {
			So(s.GlobalAcceptRate(), ShouldEqual, 0.5)
		})
	})
}

func TestFailureTrackerRetriesOnceThenAborts(t *testing.T) {
	Convey("Given a tracker with threshold 2", t, func() {
		tracker := NewFailureTracker(2)
		boom := errBoom{}

		Convey("The first failure is retried", func() {
			So(tracker.Observe(boom), ShouldEqual, OutcomeRetry)
		})

		Convey("A second consecutive failure aborts the slot", func() {
			tracker.Observe(boom)
			So(tracker.Observe(boom), ShouldEqual, OutcomeAbortSlot)
		})

		Convey("A success in between resets the streak", func() {
			tracker.Observe(boom)
			tracker.Observe(nil)
			So(tracker.Observe(boom), ShouldEqual, OutcomeRetry)
		})
	})
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
