package likelihood

import (
	"fmt"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/observations"
	"github.com/hopkinsidd/flepimop-inference/simulator"
	"github.com/hopkinsidd/flepimop-inference/statistics"
)

// TargetResult is one target's evaluated log-likelihood, kept per-subpop so
// the chimeric update path (spec.md §4.6) can recompute just the affected
// subpopulation's contribution instead of the whole chain.
type TargetResult struct {
	Target    string
	Subpop    string
	LogLik    float64
	BinsUsed  int
	BinsTotal int
}

// Evaluator scores a simulated Trajectory against a loaded observation
// Bundle for every configured target.
type Evaluator struct {
	Targets            []config.TargetConfig
	Bundle             observations.Bundle
	InclAggrLikelihood bool
	TotalLLMultiplier  float64
}

// NewEvaluator builds an Evaluator from configuration and a loaded Bundle.
func NewEvaluator(cfg *config.Config, bundle observations.Bundle) Evaluator {
	return Evaluator{
		Targets:            cfg.Inference.Statistics,
		Bundle:             bundle,
		InclAggrLikelihood: cfg.Inference.InclAggrLikelihood,
		TotalLLMultiplier:  cfg.Inference.TotalLLMultiplier,
	}
}

// Evaluate scores every target against traj and returns the per-target
// results plus the combined scalar used in the acceptance ratio: the sum of
// every per-subpop target log-likelihood, plus (if InclAggrLikelihood) the
// "Total"-subpop aggregate target log-likelihoods scaled by
// TotalLLMultiplier (Open Question resolution #2: the multiplier applies
// only to the aggregate regularization term, never to per-subpop targets).
func (ev Evaluator) Evaluate(traj simulator.Trajectory) ([]TargetResult, float64, error) {
	var results []TargetResult
	total := 0.0
	for _, t := range ev.Targets {
		if t.Subpop == statistics.TotalSubpop && !ev.InclAggrLikelihood {
			continue
		}
		r, err := ev.evaluateTarget(traj, t)
		if err != nil {
			return nil, 0, fmt.Errorf("target %q: %w", t.Name, err)
		}
		results = append(results, r)
		if t.Subpop == statistics.TotalSubpop {
			total += r.LogLik * ev.TotalLLMultiplier
		} else {
			weight := t.Weight
			if weight == 0 {
				weight = 1
			}
			total += r.LogLik * weight
		}
	}
	return results, total, nil
}

func (ev Evaluator) evaluateTarget(traj simulator.Trajectory, t config.TargetConfig) (TargetResult, error) {
	simDates, simValues, err := statistics.ExtractSimulated(traj, t)
	if err != nil {
		return TargetResult{}, err
	}
	obsSeries, ok := ev.Bundle.Column(t.Subpop, t.DataColumn)
	if !ok {
		return TargetResult{}, fmt.Errorf("no observed column %q for subpop %q", t.DataColumn, t.Subpop)
	}
	aligned := statistics.AlignWithObserved(simDates, simValues, statistics.ObservedSeries{
		Dates: obsSeries.Dates, Values: obsSeries.Values, Missing: obsSeries.Missing,
	})

	forecastFrom := len(aligned.Dates)
	if n := t.Regularization.ForecastBins; n > 0 && t.Regularization.ForecastWeight != 0 {
		forecastFrom = len(aligned.Dates) - n
	}

	ll := 0.0
	used := 0
	for i := range aligned.Dates {
		if aligned.Missing[i] {
			continue
		}
		d, err := LogDensity(aligned.Observed[i], aligned.Simulated[i], t.Likelihood)
		if err != nil {
			return TargetResult{}, err
		}
		if i >= forecastFrom {
			// §4.5 regularization (a): the final ForecastBins bins get an extra
			// ForecastWeight-scaled contribution, additive with their normal term.
			d *= 1 + t.Regularization.ForecastWeight
		}
		ll += d
		used++
	}
	return TargetResult{Target: t.Name, Subpop: t.Subpop, LogLik: ll, BinsUsed: used, BinsTotal: len(aligned.Dates)}, nil
}
