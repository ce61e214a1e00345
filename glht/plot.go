package glht

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// intervals pairs points with vertical error bars.
type intervals struct {
	plotter.XYs
	plotter.YErrors
}

// IntervalPlotter draws the estimates of a set of hypotheses with their
// confidence intervals.
type IntervalPlotter struct {
	plt *plot.Plot

	labels []string
	pts    plotter.XYs
	errs   plotter.YErrors

	level float64

	width  vg.Length
	height vg.Length
}

// NewIntervalPlotter returns an IntervalPlotter drawing 95% intervals.
func NewIntervalPlotter() *IntervalPlotter {
	return &IntervalPlotter{
		plt:    plot.New(),
		level:  0.95,
		width:  6,
		height: 4,
	}
}

// Width sets the width of the plot in inches.
func (ip *IntervalPlotter) Width(w float64) *IntervalPlotter {
	ip.width = vg.Length(w)
	return ip
}

// Height sets the height of the plot in inches.
func (ip *IntervalPlotter) Height(h float64) *IntervalPlotter {
	ip.height = vg.Length(h)
	return ip
}

// Level sets the coverage of the intervals.  It must be called before Add.
func (ip *IntervalPlotter) Level(level float64) *IntervalPlotter {
	ip.level = level
	return ip
}

// Add appends hypotheses to the plot.  Undefined tests keep their label on
// the axis but are not drawn.
func (ip *IntervalPlotter) Add(hyp []Hypothesis) *IntervalPlotter {

	for i := range hyp {
		h := &hyp[i]
		x := float64(len(ip.labels))
		ip.labels = append(ip.labels, h.Label)
		if h.Undefined() {
			continue
		}
		lcb, ucb := h.ConfInt(ip.level)
		y := h.Estimate.Estimate
		ip.pts = append(ip.pts, plotter.XY{X: x, Y: y})
		ip.errs = append(ip.errs, struct{ Low, High float64 }{Low: y - lcb, High: ucb - y})
	}

	return ip
}

// Plot constructs the plot.
func (ip *IntervalPlotter) Plot() (*IntervalPlotter, error) {

	ip.plt.Title.Text = fmt.Sprintf("Estimates with %g%% confidence intervals", 100*ip.level)
	ip.plt.Y.Label.Text = "Estimate"
	ip.plt.NominalX(ip.labels...)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Dashes = plotutil.Dashes(1)
	ip.plt.Add(zero)

	if len(ip.pts) == 0 {
		return ip, nil
	}

	bars, err := plotter.NewYErrorBars(intervals{XYs: ip.pts, YErrors: ip.errs})
	if err != nil {
		return nil, err
	}
	bars.Color = plotutil.Color(0)

	pts, err := plotter.NewScatter(ip.pts)
	if err != nil {
		return nil, err
	}
	pts.GlyphStyle.Color = plotutil.Color(0)

	ip.plt.Add(bars, pts)

	return ip, nil
}

// GetPlotStruct returns the plotting structure for this plot.
func (ip *IntervalPlotter) GetPlotStruct() *plot.Plot {
	return ip.plt
}

// Save writes the plot to the given file.  The format follows the file
// extension.
func (ip *IntervalPlotter) Save(fname string) error {
	return ip.plt.Save(ip.width*vg.Inch, ip.height*vg.Inch, fname)
}
