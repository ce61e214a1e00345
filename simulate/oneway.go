// Package simulate generates data from a one-way normal model, where the
// outcome is normal with a mean that depends on a categorical group and a
// variance shared by all groups.
//
// The random number generator is seeded explicitly by the caller and no
// global generator state is used, so two calls with the same
// configuration return the same data.
package simulate

import (
	"fmt"
	"math/rand/v2"

	"github.com/kshedden/dstream/dstream"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OneWayConfig describes a one-way normal data-generating process.
type OneWayConfig struct {

	// Seed for the random number generator
	Seed uint64

	// Group labels, in the order the groups are generated
	Levels []string

	// Mean of the outcome in each group, parallel to Levels
	Means []float64

	// Standard deviation of the outcome, common to all groups
	SD float64

	// Number of observations per group
	N int

	// Column names of the outcome and the group, "y" and "group" if empty.
	Outcome string
	Factor  string
}

func (cfg *OneWayConfig) check() error {

	if len(cfg.Levels) == 0 {
		return fmt.Errorf("simulate: no levels")
	}
	if len(cfg.Means) != len(cfg.Levels) {
		return fmt.Errorf("simulate: %d means for %d levels", len(cfg.Means), len(cfg.Levels))
	}
	if cfg.SD <= 0 {
		return fmt.Errorf("simulate: standard deviation must be positive, got %v", cfg.SD)
	}
	if cfg.N < 1 {
		return fmt.Errorf("simulate: need at least one observation per level, got %d", cfg.N)
	}

	return nil
}

// OneWay draws cfg.N observations for each level of the group, in level
// order.  The returned Dstream has a single chunk holding a []float64
// outcome column and a []string group column.
func OneWay(cfg OneWayConfig) (dstream.Dstream, error) {

	if err := cfg.check(); err != nil {
		return nil, err
	}

	yname, gname := cfg.Outcome, cfg.Factor
	if yname == "" {
		yname = "y"
	}
	if gname == "" {
		gname = "group"
	}
	if yname == gname {
		return nil, fmt.Errorf("simulate: outcome and group are both named %q", yname)
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)

	n := cfg.N * len(cfg.Levels)
	y := make([]float64, 0, n)
	g := make([]string, 0, n)

	for k, lv := range cfg.Levels {
		dist := distuv.Normal{Mu: cfg.Means[k], Sigma: cfg.SD, Src: src}
		for i := 0; i < cfg.N; i++ {
			y = append(y, dist.Rand())
			g = append(g, lv)
		}
	}

	da := [][]interface{}{{y}, {g}}
	return dstream.NewFromArrays(da, []string{yname, gname}), nil
}

// GroupStats holds descriptive statistics of the outcome in one group.
type GroupStats struct {
	Level string
	N     int
	Mean  float64
	SD    float64
}

// Describe returns the size, mean and standard deviation of the outcome
// in each level of the group, in the order of levels.
func Describe(data dstream.Dstream, outcome, factor string, levels []string) ([]GroupStats, error) {

	var y []float64
	var g []string
	for _, na := range data.Names() {
		switch na {
		case outcome:
			x, ok := dstream.GetCol(data, na).([]float64)
			if !ok {
				return nil, fmt.Errorf("simulate: %q is not a float64 column", outcome)
			}
			y = x
		case factor:
			x, ok := dstream.GetCol(data, na).([]string)
			if !ok {
				return nil, fmt.Errorf("simulate: %q is not a string column", factor)
			}
			g = x
		}
	}
	if y == nil {
		return nil, fmt.Errorf("simulate: no outcome column %q", outcome)
	}
	if g == nil {
		return nil, fmt.Errorf("simulate: no group column %q", factor)
	}

	byLevel := make(map[string][]float64)
	for i, lv := range g {
		byLevel[lv] = append(byLevel[lv], y[i])
	}

	gs := make([]GroupStats, len(levels))
	for k, lv := range levels {
		x := byLevel[lv]
		gs[k] = GroupStats{Level: lv, N: len(x)}
		if len(x) > 0 {
			gs[k].Mean, gs[k].SD = stat.MeanStdDev(x, nil)
		}
	}

	return gs, nil
}
