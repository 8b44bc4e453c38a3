package statistics

import (
	"fmt"
	"time"

	"github.com/hopkinsidd/flepimop-inference/config"
)

// Aggregate reduces a daily (dates, values) series to the bins named by agg.
// This mirrors grid_world.go's Visit/VisitXYStates traversal-then-reduce
// shape (walk a dense table once, folding each cell into an accumulator),
// generalized from a 2D spatial walk to a 1D temporal one.
func Aggregate(dates []time.Time, values []float64, agg config.AggregationConfig) ([]time.Time, []float64, error) {
	switch agg.Kind {
	case "", config.AggregationIdentity:
		return dates, values, nil
	case config.AggregationPeriodicSum:
		return periodicSum(dates, values, agg.PeriodDays)
	case config.AggregationCustom:
		return customBins(dates, values, agg.BinEdges)
	default:
		return nil, nil, fmt.Errorf("unknown aggregation kind %q", agg.Kind)
	}
}

func periodicSum(dates []time.Time, values []float64, periodDays int) ([]time.Time, []float64, error) {
	if periodDays <= 0 {
		return nil, nil, fmt.Errorf("periodic_sum requires period_days > 0")
	}
	var binDates []time.Time
	var binValues []float64
	for i := 0; i < len(values); i += periodDays {
		end := i + periodDays
		if end > len(values) {
			end = len(values)
		}
		sum := 0.0
		for _, v := range values[i:end] {
			sum += v
		}
		binDates = append(binDates, dates[end-1])
		binValues = append(binValues, sum)
	}
	return binDates, binValues, nil
}

func customBins(dates []time.Time, values []float64, edges []string) ([]time.Time, []float64, error) {
	if len(edges) < 2 {
		return nil, nil, fmt.Errorf("custom aggregation requires at least 2 bin_edges")
	}
	parsed := make([]time.Time, len(edges))
	for i, e := range edges {
		t, err := time.Parse("2006-01-02", e)
		if err != nil {
			return nil, nil, fmt.Errorf("bin_edges[%d]: %w", i, err)
		}
		parsed[i] = t
	}
	binValues := make([]float64, len(parsed)-1)
	for i, d := range dates {
		for b := 0; b < len(parsed)-1; b++ {
			if !d.Before(parsed[b]) && d.Before(parsed[b+1]) {
				binValues[b] += values[i]
				break
			}
		}
	}
	return parsed[1:], binValues, nil
}
