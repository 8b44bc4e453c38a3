// Package config implements the parsed, validated configuration object of
// spec.md §6.1. Loading follows reinforcement/learning.go's Viper-then-YAML
// two-step (FromYaml/OuterConfig): Viper reads the file (merging env/flags
// if the caller wired them), then the relevant subtree is re-marshaled to
// YAML and unmarshaled into the strict, validated Config struct below.
// Struct-tag validation follows jordigilh-kubernaut's use of
// go-playground/validator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hopkinsidd/flepimop-inference/errs"
)

// Method selects the MCMC back end (§4.6).
type Method string

const (
	MethodClassic Method = "classic"
	MethodEMCEE   Method = "emcee"
)

// Subpopulation is one fitting unit (§3).
type Subpopulation struct {
	ID         string   `yaml:"id" validate:"required"`
	Population int64    `yaml:"population" validate:"gte=0"`
	Groups     []string `yaml:"groups"`
}

// Config is the root configuration object (§6.1).
type Config struct {
	StartDate             time.Time `yaml:"start_date" validate:"required"`
	EndDate               time.Time `yaml:"end_date" validate:"required"`
	StartDateGroundtruth  time.Time `yaml:"start_date_groundtruth"`
	EndDateGroundtruth    time.Time `yaml:"end_date_groundtruth"`

	Subpopulations []Subpopulation `yaml:"subpopulations" validate:"required,min=1,dive"`

	SEIRModifiers      []ModifierConfig       `yaml:"seir_modifiers" validate:"dive"`
	OutcomeModifiers   []ModifierConfig       `yaml:"outcome_modifiers" validate:"dive"`
	OutcomeParameters  []OutcomeParamConfig   `yaml:"outcome_parameters" validate:"dive"`
	Seeding            []SeedConfig           `yaml:"seeding" validate:"dive"`
	InitialConditions  []InitialConditionConfig `yaml:"initial_conditions" validate:"dive"`

	Inference InferenceConfig `yaml:"inference" validate:"required"`
}

// InferenceConfig is the "inference" section of §6.1.
type InferenceConfig struct {
	IterationsPerSlot    int               `yaml:"iterations_per_slot" validate:"gt=0"`
	Slots                int               `yaml:"slots" validate:"gt=0"`
	ResetChimericOnAccept *bool            `yaml:"reset_chimeric_on_accept"`
	Statistics           []TargetConfig    `yaml:"statistics" validate:"dive"`
	HierarchicalStatsGeo []HierarchicalGroupConfig `yaml:"hierarchical_stats_geo" validate:"dive"`
	Priors               []ScalarPriorConfig `yaml:"priors" validate:"dive"`
	GTDataPath           string            `yaml:"gt_data_path"`
	Method               Method            `yaml:"method" validate:"omitempty,oneof=classic emcee"`
	InclAggrLikelihood   bool              `yaml:"incl_aggr_likelihood"`
	TotalLLMultiplier    float64           `yaml:"total_ll_multiplier"`
	FailureThreshold     int               `yaml:"failure_threshold"`
	Seed                 int64             `yaml:"seed"`
	EMCEE                EMCEEConfig       `yaml:"emcee"`
}

// EMCEEConfig configures the optional ensemble back end (§4.6).
type EMCEEConfig struct {
	Walkers    int     `yaml:"walkers" validate:"omitempty,gt=1"`
	StretchA   float64 `yaml:"stretch_a"`
}

// ResetChimericOnAcceptOrDefault returns the configured value, defaulting to true
// when unset.
func (c InferenceConfig) ResetChimericOnAcceptOrDefault() bool {
	if c.ResetChimericOnAccept == nil {
		return true
	}
	return *c.ResetChimericOnAccept
}

// FailureThresholdOrDefault returns the configured simulator-failure
// threshold (§7), defaulting to 3 consecutive failures before a slot aborts.
func (c InferenceConfig) FailureThresholdOrDefault() int {
	if c.FailureThreshold <= 0 {
		return 3
	}
	return c.FailureThreshold
}

// outerConfig mirrors reinforcement/learning.go's OuterConfig wrapper: Viper unmarshals
// the raw document, then the inner "def" subtree gets round-tripped through
// yaml so strict per-field types and custom UnmarshalYAML hooks apply.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Load reads and validates a configuration file at path. Any missing
// required section or shape mismatch is returned as an *errs.Error of kind
// KindConfiguration, per spec.md §7 (fatal at startup).
func Load(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, errs.New(errs.KindConfiguration, fmt.Errorf("reading %s: %w", path, err))
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, errs.New(errs.KindConfiguration, err)
	}

	var raw []byte
	var err error
	if outer.Def != nil {
		raw, err = yaml.Marshal(outer.Def)
	} else {
		// Plain documents (no "kind"/"def" envelope) load directly.
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errs.New(errs.KindConfiguration, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.New(errs.KindConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errs.New(errs.KindConfiguration, err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate runs struct-tag validation and the cross-field checks tags can't
// express (date ordering, subpopulation id uniqueness).
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("end_date %s must be after start_date %s", c.EndDate, c.StartDate)
	}
	seen := map[string]bool{}
	for _, sp := range c.Subpopulations {
		if seen[sp.ID] {
			return fmt.Errorf("duplicate subpopulation id %q", sp.ID)
		}
		seen[sp.ID] = true
	}
	if c.Inference.Method == MethodEMCEE && c.Inference.EMCEE.Walkers < 2 {
		return fmt.Errorf("emcee method requires inference.emcee.walkers >= 2")
	}
	return nil
}
