package likelihood

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/observations"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

func mkDates(n int) []time.Time {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func mkBundleAndTraj(values []float64) (observations.Bundle, simulator.Trajectory) {
	dates := mkDates(len(values))
	bundle := observations.Bundle{Series: map[string]map[string]observations.Series{
		"subA": {
			"incidC": {Dates: dates, Values: values, Missing: make([]bool, len(values))},
		},
	}}
	traj := simulator.Trajectory{
		Start:   dates[0],
		End:     dates[len(dates)-1],
		Subpops: []string{"subA"},
		Series: map[string]map[string]simulator.Series{
			"subA": {"incidC": {Dates: dates, Values: values}},
		},
	}
	return bundle, traj
}

func TestEvaluatorForecastRegularization(t *testing.T) {
	Convey("Given a target with a forecast reweighting on the final bin", t, func() {
		values := []float64{10, 10, 10, 10}
		bundle, traj := mkBundleAndTraj(values)

		plain := config.TargetConfig{
			Name: "incidC", Subpop: "subA", SimSource: "incidC", DataColumn: "incidC",
			Likelihood: config.LikelihoodConfig{Family: "poisson"},
		}
		weighted := plain
		weighted.Regularization = config.RegularizationConfig{ForecastBins: 1, ForecastWeight: 1.0}

		evPlain := Evaluator{Targets: []config.TargetConfig{plain}, Bundle: bundle}
		evWeighted := Evaluator{Targets: []config.TargetConfig{weighted}, Bundle: bundle}

		Convey("A zero-weighted run matches the unweighted total exactly, a positive-weighted one differs", func() {
			_, totalPlain, err := evPlain.Evaluate(traj)
			So(err, ShouldBeNil)
			_, totalWeighted, err := evWeighted.Evaluate(traj)
			So(err, ShouldBeNil)
			So(totalWeighted, ShouldNotEqual, totalPlain)

			zero := plain
			zero.Regularization = config.RegularizationConfig{ForecastBins: 1, ForecastWeight: 0}
			_, totalZero, err := Evaluator{Targets: []config.TargetConfig{zero}, Bundle: bundle}.Evaluate(traj)
			So(err, ShouldBeNil)
			So(totalZero, ShouldEqual, totalPlain)
		})
	})
}

func TestEvaluatorAggregateTermUsesTotalLLMultiplier(t *testing.T) {
	Convey("Given a 'Total'-subpop target and a per-subpop target", t, func() {
		values := []float64{10, 10}
		bundle, traj := mkBundleAndTraj(values)
		bundle.Series["Total"] = bundle.Series["subA"]
		traj.Subpops = append(traj.Subpops, "Total")
		traj.Series["Total"] = traj.Series["subA"]

		perSubpop := config.TargetConfig{
			Name: "incidC", Subpop: "subA", SimSource: "incidC", DataColumn: "incidC",
			Likelihood: config.LikelihoodConfig{Family: "poisson"},
		}
		aggregate := config.TargetConfig{
			Name: "incidC-total", Subpop: "Total", SimSource: "incidC", DataColumn: "incidC",
			Likelihood: config.LikelihoodConfig{Family: "poisson"},
		}

		Convey("The multiplier scales only the aggregate contribution", func() {
			ev := Evaluator{
				Targets:            []config.TargetConfig{perSubpop, aggregate},
				Bundle:             bundle,
				InclAggrLikelihood: true,
				TotalLLMultiplier:  0,
			}
			_, total, err := ev.Evaluate(traj)
			So(err, ShouldBeNil)

			perSubpopOnly := Evaluator{
				Targets: []config.TargetConfig{perSubpop}, Bundle: bundle,
			}
			_, totalPerSubpopOnly, err := perSubpopOnly.Evaluate(traj)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, totalPerSubpopOnly)
		})

		Convey("Excluding the aggregate term entirely skips it", func() {
			ev := Evaluator{Targets: []config.TargetConfig{perSubpop, aggregate}, Bundle: bundle, InclAggrLikelihood: false}
			results, _, err := ev.Evaluate(traj)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, 1)
		})
	})
}
