package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wkingc/general-linear-hypothesis/design"
	"github.com/wkingc/general-linear-hypothesis/glht"
	"github.com/wkingc/general-linear-hypothesis/multitest"
	"github.com/wkingc/general-linear-hypothesis/simulate"
)

// Config is the YAML description of a report.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`

	// CSV file with a header row to analyze in place of simulated data
	Data string `yaml:"data,omitempty"`

	Model     ModelConfig      `yaml:"model"`
	Contrasts []ContrastConfig `yaml:"contrasts"`

	// Coverage of the confidence intervals
	Level float64 `yaml:"level"`

	// Significance level used to count rejections
	Alpha float64 `yaml:"alpha"`

	FWER multitest.Method `yaml:"fwer"`
	FDR  multitest.Method `yaml:"fdr"`

	Output OutputConfig `yaml:"output"`
}

// SimulationConfig gives the data-generating process.  Means are parallel
// to the model levels.
type SimulationConfig struct {
	Seed  uint64    `yaml:"seed"`
	N     int       `yaml:"n"`
	SD    float64   `yaml:"sd"`
	Means []float64 `yaml:"means"`
}

// ModelConfig names the outcome and the categorical predictor and fixes
// its levels and reference level.
type ModelConfig struct {
	Outcome   string   `yaml:"outcome"`
	Factor    string   `yaml:"factor"`
	Levels    []string `yaml:"levels"`
	Reference string   `yaml:"reference,omitempty"`
}

// Kinds of contrast families.
const (
	kindMatrix   = "matrix"
	kindMeans    = "means"
	kindPairwise = "pairwise"
)

// ContrastConfig is one named contrast matrix.  Kind "means" and
// "pairwise" are generated from the factor levels, kind "matrix" (the
// default) takes explicit rows over the model coefficients.
type ContrastConfig struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"kind,omitempty"`
	Rows   [][]float64 `yaml:"rows,omitempty"`
	Labels []string    `yaml:"labels,omitempty"`
	RHS    []float64   `yaml:"rhs,omitempty"`

	// Also run the joint F test of all rows
	FTest bool `yaml:"ftest,omitempty"`
}

// OutputConfig holds optional output paths.
type OutputConfig struct {
	CSV  string `yaml:"csv,omitempty"`
	Plot string `yaml:"plot,omitempty"`
}

// DefaultConfig returns the report run when no configuration file is
// given: three groups, their fitted means, all pairwise differences and
// a marginal contrast of the two upper groups against the reference.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Seed:  1,
			N:     20,
			SD:    2,
			Means: []float64{10, 11, 13},
		},
		Model: ModelConfig{
			Outcome: "y",
			Factor:  "level",
			Levels:  []string{"low", "medium", "high"},
		},
		Contrasts: []ContrastConfig{
			{Name: "means", Kind: kindMeans},
			{Name: "pairwise", Kind: kindPairwise, FTest: true},
			{
				Name:   "marginal",
				Rows:   [][]float64{{0, -0.5, -0.5}},
				Labels: []string{"low - (medium + high)/2"},
			},
		},
		Level: 0.95,
		Alpha: 0.05,
		FWER:  multitest.Bonferroni,
		FDR:   multitest.BH,
	}
}

// LoadConfig reads a YAML report configuration.  Fields absent from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Contrasts = nil
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.Contrasts) == 0 {
		cfg.Contrasts = DefaultConfig().Contrasts
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (cfg *Config) Validate() error {

	if cfg.Model.Outcome == "" || cfg.Model.Factor == "" {
		return fmt.Errorf("model outcome and factor must be named")
	}
	if cfg.Model.Outcome == cfg.Model.Factor {
		return fmt.Errorf("model outcome and factor are both named %q", cfg.Model.Outcome)
	}
	if len(cfg.Model.Levels) < 2 {
		return fmt.Errorf("model needs at least two levels, got %d", len(cfg.Model.Levels))
	}
	if cfg.Data == "" && len(cfg.Simulation.Means) != len(cfg.Model.Levels) {
		return fmt.Errorf("%d simulation means for %d levels", len(cfg.Simulation.Means), len(cfg.Model.Levels))
	}
	if cfg.Level <= 0 || cfg.Level >= 1 {
		return fmt.Errorf("level must be in (0, 1), got %v", cfg.Level)
	}
	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %v", cfg.Alpha)
	}

	seen := make(map[string]bool)
	for i, cc := range cfg.Contrasts {
		if cc.Name == "" {
			return fmt.Errorf("contrasts %d has no name", i)
		}
		if seen[cc.Name] {
			return fmt.Errorf("duplicate contrasts %q", cc.Name)
		}
		seen[cc.Name] = true

		switch cc.Kind {
		case "", kindMatrix:
			if len(cc.Rows) == 0 {
				return fmt.Errorf("contrasts %q has no rows", cc.Name)
			}
		case kindMeans, kindPairwise:
		default:
			return fmt.Errorf("contrasts %q: unknown kind %q", cc.Name, cc.Kind)
		}
	}

	return nil
}

// OneWay returns the simulation configuration.
func (cfg *Config) OneWay() simulate.OneWayConfig {
	return simulate.OneWayConfig{
		Seed:    cfg.Simulation.Seed,
		Levels:  cfg.Model.Levels,
		Means:   cfg.Simulation.Means,
		SD:      cfg.Simulation.SD,
		N:       cfg.Simulation.N,
		Outcome: cfg.Model.Outcome,
		Factor:  cfg.Model.Factor,
	}
}

// Spec returns the model specification.
func (cfg *Config) Spec() design.Spec {
	spec := design.Spec{
		Outcome:    cfg.Model.Outcome,
		Predictors: []string{cfg.Model.Factor},
		Levels:     map[string][]string{cfg.Model.Factor: cfg.Model.Levels},
	}
	if cfg.Model.Reference != "" {
		spec.Reference = map[string]string{cfg.Model.Factor: cfg.Model.Reference}
	}
	return spec
}

// contrasts builds the contrast matrix described by cc against the
// design dm.
func (cc *ContrastConfig) contrasts(dm *design.Matrix, factor string) (*glht.Contrasts, error) {

	switch cc.Kind {
	case kindMeans, kindPairwise:
		f := factorOf(dm, factor)
		if f == nil {
			return nil, fmt.Errorf("design has no factor %q", factor)
		}
		levels := f.Levels()
		rows := make([][]float64, len(levels))
		for i, lv := range levels {
			row, err := dm.CellRow(factor, lv)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		if cc.Kind == kindMeans {
			return glht.CellMeans(cc.Name, levels, rows)
		}
		return glht.Pairwise(cc.Name, levels, rows)
	}

	c, err := glht.NewContrasts(cc.Name, cc.Rows)
	if err != nil {
		return nil, err
	}
	if len(cc.Labels) > 0 {
		c.SetLabels(cc.Labels...)
	}
	if len(cc.RHS) > 0 {
		c.SetRHS(cc.RHS)
	}

	return c, nil
}

func factorOf(dm *design.Matrix, name string) *design.Factor {
	for _, f := range dm.Factors {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
