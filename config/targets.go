package config

// AggregationKind is the closed set of statistic-extraction reductions
// (§4.3): identity (no reduction), periodic_sum (fixed-width bins), and
// custom (user-specified bin edges).
type AggregationKind string

const (
	AggregationIdentity     AggregationKind = "identity"
	AggregationPeriodicSum  AggregationKind = "periodic_sum"
	AggregationCustom       AggregationKind = "custom"
)

// AggregationConfig configures one TargetConfig's reduction (§4.3).
type AggregationConfig struct {
	Kind       AggregationKind `yaml:"kind" validate:"omitempty,oneof=identity periodic_sum custom"`
	PeriodDays int             `yaml:"period_days" validate:"omitempty,gt=0"`
	BinEdges   []string        `yaml:"bin_edges"` // YYYY-MM-DD dates, ascending, for kind=custom
}

// LikelihoodConfig selects and parameterizes one target's likelihood family
// (§4.4).
type LikelihoodConfig struct {
	Family     string  `yaml:"family" validate:"required,oneof=poisson normal_homoskedastic normal_heteroskedastic negative_binomial rmse absolute_error sqrt_normal log_normal"`
	SD         float64 `yaml:"sd"`        // normal_homoskedastic
	CoeffVar   float64 `yaml:"coeff_var"` // normal_heteroskedastic: sd = coeff_var * max(mean, floor)
	Floor      float64 `yaml:"floor"`     // heteroskedastic variance floor
	Dispersion float64 `yaml:"dispersion"` // negative_binomial overdispersion k
	// AddOne is the target's zero-handling flag (spec.md §3(d)/§4.5): when
	// set, a bin where both the observed and simulated value are exactly
	// zero contributes 0 to the log-likelihood rather than a transformed
	// "+1 smoothing" value, so an empty-data bin neither penalizes nor
	// rewards a fit.
	AddOne bool `yaml:"add_one"`
}

// RegularizationConfig configures the optional R(Z(Theta), D) term of §4.5
// for one target: a "forecast" reweighting of the final ForecastBins bins by
// ForecastWeight, additively combined with the all-subpopulations aggregate
// term (the latter is configured globally via InferenceConfig.InclAggrLikelihood
// / TotalLLMultiplier, applied to "Total"-subpop targets — Open Question
// resolution #2 in SPEC_FULL.md).
type RegularizationConfig struct {
	ForecastBins   int     `yaml:"forecast_bins" validate:"omitempty,gt=0"`
	ForecastWeight float64 `yaml:"forecast_weight"`
}

// TargetConfig declares one fitting target (§4.3/§4.4): a named statistic,
// one simulator-side source and one observation-side column, an aggregation
// rule, a likelihood family, and an optional weight in the combined
// log-likelihood.
type TargetConfig struct {
	Name            string               `yaml:"name" validate:"required"`
	Subpop          string               `yaml:"subpop" validate:"required"` // "Total" is the synthetic all-subpop series
	SimSource       string               `yaml:"sim_source" validate:"required"`
	DataColumn      string               `yaml:"data_column" validate:"required"`
	Aggregation     AggregationConfig    `yaml:"aggregation"`
	Likelihood      LikelihoodConfig     `yaml:"likelihood" validate:"required"`
	Weight          float64              `yaml:"weight"`
	Regularization  RegularizationConfig `yaml:"regularization"`
}

// HierarchicalGroupConfig declares one hierarchical-prior grouping (§4.5):
// a set of subpopulations whose corresponding parameter entries are pulled
// toward a shared group mean, with strength Lambda.
type HierarchicalGroupConfig struct {
	Group       string   `yaml:"group" validate:"required,oneof=seir_modifiers outcome_modifiers outcome_parameters"`
	ParamName   string   `yaml:"param_name" validate:"required"`
	Subpops     []string `yaml:"subpops" validate:"required,min=2"`
	Lambda      float64  `yaml:"lambda" validate:"gte=0"`
}

// ScalarPriorConfig declares an additional prior over the value of one
// parameter entry already present in a Sample. Expressions combining several
// entries (such as a ratio) are not supported. Evaluated the same way as
// per-entry priors once resolved against a Sample.
type ScalarPriorConfig struct {
	Name   string      `yaml:"name" validate:"required"`
	Expr   string      `yaml:"expr" validate:"required"` // "<group>:<id>" reference resolved by prior.ResolveScalar
	Prior  PriorConfig `yaml:"prior" validate:"required"`
}
