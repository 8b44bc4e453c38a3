// Package statistics implements the Statistic Extractor of spec.md §4.4:
// pulling a named series out of a simulator Trajectory (summing across
// subpopulations for the synthetic "Total" target), aggregating it to the
// configured bin width, and aligning it against an observed series with
// missingness propagated through.
package statistics

import (
	"fmt"
	"time"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// TotalSubpop is the synthetic subpopulation name meaning "sum across every
// declared subpopulation", per spec.md §6.3.
const TotalSubpop = "Total"

// ExtractSimulated returns target's simulated series from traj, aggregated
// to target's configured bin width.
func ExtractSimulated(traj simulator.Trajectory, target config.TargetConfig) ([]time.Time, []float64, error) {
	dates, values, err := rawSeries(traj, target.Subpop, target.SimSource)
	if err != nil {
		return nil, nil, err
	}
	return Aggregate(dates, values, target.Aggregation)
}

func rawSeries(traj simulator.Trajectory, subpop, source string) ([]time.Time, []float64, error) {
	if subpop != TotalSubpop {
		s, ok := traj.At(subpop, source)
		if !ok {
			return nil, nil, fmt.Errorf("no simulated series %q for subpop %q", source, subpop)
		}
		return s.Dates, s.Values, nil
	}

	var dates []time.Time
	var sums []float64
	for i, sp := range traj.Subpops {
		s, ok := traj.At(sp, source)
		if !ok {
			return nil, nil, fmt.Errorf("no simulated series %q for subpop %q", source, sp)
		}
		if i == 0 {
			dates = s.Dates
			sums = make([]float64, len(s.Values))
		}
		for j, v := range s.Values {
			sums[j] += v
		}
	}
	return dates, sums, nil
}

// Aligned is one target's extracted, aggregated, paired series: simulated
// and observed values at matching bin dates, with Missing[i] true wherever
// the observation is absent and the bin must be skipped by the likelihood
// evaluator (spec.md §4.4's missingness propagation).
type Aligned struct {
	Dates     []time.Time
	Simulated []float64
	Observed  []float64
	Missing   []bool
}

// ObservedSeries is the minimal shape statistics needs from an observation
// bundle: a date-indexed value series with an explicit missingness mask
// (observations.Series satisfies this via duck typing at the call site).
type ObservedSeries struct {
	Dates   []time.Time
	Values  []float64
	Missing []bool
}

// AlignWithObserved pairs a simulated (dates, values) series with an
// observed series bin-for-bin by date, propagating observed missingness
// onto the aligned output. Bin dates that appear in one series but not the
// other are dropped: this only happens at the edges of the fitting window
// and is treated as a configuration-time concern, not a per-iteration one.
func AlignWithObserved(simDates []time.Time, simValues []float64, obs ObservedSeries) Aligned {
	obsIndex := make(map[string]int, len(obs.Dates))
	for i, d := range obs.Dates {
		obsIndex[d.Format("2006-01-02")] = i
	}

	var out Aligned
	for i, d := range simDates {
		key := d.Format("2006-01-02")
		j, ok := obsIndex[key]
		if !ok {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Simulated = append(out.Simulated, simValues[i])
		out.Observed = append(out.Observed, obs.Values[j])
		missing := j < len(obs.Missing) && obs.Missing[j]
		out.Missing = append(out.Missing, missing)
	}
	return out
}
