package statmodel

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

type Dtype = float64

// RegFitter is a regression model that has been set up on a design.
type RegFitter interface {

	// Number of parameters in the model.
	NumParams() int

	// Number of observations in the data set
	NumObs() int

	// Dataset returns the design columns, Dataset()[j][i] is the value of
	// covariate j for observation i.
	Dataset() [][]Dtype
}

// BaseResultser is a fitted model that can produce results (parameter estimates, etc.).
type BaseResultser interface {
	Model() RegFitter
	Names() []string
	LogLike() float64
	Params() []float64
	VCov() []float64
	DF() int
	StdErr() []float64
	TValues() []float64
	PValues() []float64
}

// BaseResults contains the results after fitting a model to data.
type BaseResults struct {
	model   RegFitter
	loglike float64
	params  []float64
	xnames  []string

	// vcov is the p x p covariance of params in row-major order.
	vcov []float64

	// Reference degrees of freedom for the t statistics.  If df is zero
	// the normal distribution is used.
	df int

	stderr  []float64
	tvalues []float64
	pvalues []float64
}

// NewBaseResults returns a BaseResults corresponding to the given fitted model.
func NewBaseResults(model RegFitter, loglike float64, params []float64, xnames []string, vcov []float64, df int) BaseResults {
	return BaseResults{
		model:   model,
		loglike: loglike,
		params:  params,
		xnames:  xnames,
		vcov:    vcov,
		df:      df,
	}
}

// Model produces the model value used to produce the results.
func (rslt *BaseResults) Model() RegFitter {
	return rslt.model
}

// FittedValues returns the fitted linear predictor for a regression
// model.  If da is nil, the fitted values are based on the data used
// to fit the model.  Otherwise da must hold one column per parameter, in
// the same order as the training design.
func (rslt *BaseResults) FittedValues(da [][]Dtype) []float64 {

	if da == nil {
		da = rslt.model.Dataset()
	}

	if len(da) != len(rslt.params) {
		msg := fmt.Sprintf("Data has incorrect number of columns, %d != %d\n", len(da), len(rslt.params))
		panic(msg)
	}

	var fv []float64
	for j, z := range da {
		if fv == nil {
			fv = make([]float64, len(z))
		}
		for i := range z {
			fv[i] += rslt.params[j] * z[i]
		}
	}

	return fv
}

// Names returns the covariate names for the variables in the model.
func (rslt *BaseResults) Names() []string {
	return rslt.xnames
}

// Params returns the point estimates for the parameters in the model.
func (rslt *BaseResults) Params() []float64 {
	return rslt.params
}

// VCov returns the sampling variance/covariance model for the parameters in the model.
// The matrix is vetorized to one dimension.
func (rslt *BaseResults) VCov() []float64 {
	return rslt.vcov
}

// LogLike returns the log-likelihood for the fitted model.
func (rslt *BaseResults) LogLike() float64 {
	return rslt.loglike
}

// DF returns the residual degrees of freedom used as the reference
// distribution for the parameter tests.
func (rslt *BaseResults) DF() int {
	return rslt.df
}

// StdErr returns the standard errors for the parameters in the model.
func (rslt *BaseResults) StdErr() []float64 {

	// No vcov, no standard error
	if rslt.vcov == nil {
		return nil
	}
	if rslt.stderr != nil {
		return rslt.stderr
	}

	p := len(rslt.params)
	rslt.stderr = make([]float64, p)
	for i := range rslt.stderr {
		rslt.stderr[i] = math.Sqrt(rslt.vcov[i*p+i])
	}

	return rslt.stderr
}

// TValues returns the parameter estimates divided by their standard errors.
func (rslt *BaseResults) TValues() []float64 {

	if rslt.vcov == nil {
		return nil
	}
	if rslt.tvalues != nil {
		return rslt.tvalues
	}

	std := rslt.StdErr()
	rslt.tvalues = make([]float64, len(std))
	for i := range std {
		rslt.tvalues[i] = rslt.params[i] / std[i]
	}

	return rslt.tvalues
}

// PValues returns the two-sided p-values for the null hypothesis that each
// parameter's population value is equal to zero.
func (rslt *BaseResults) PValues() []float64 {

	// No vcov, no p-values
	if rslt.vcov == nil {
		return nil
	}
	if rslt.pvalues != nil {
		return rslt.pvalues
	}

	tv := rslt.TValues()
	rslt.pvalues = make([]float64, len(tv))
	for i, t := range tv {
		rslt.pvalues[i] = TwoSidedP(t, rslt.df)
	}

	return rslt.pvalues
}

// TwoSidedP returns 2*P(T > |t|) for a Student t variate with df degrees
// of freedom.  If df is not positive the standard normal is used.
func TwoSidedP(t float64, df int) float64 {
	if math.IsNaN(t) {
		return math.NaN()
	}
	if df <= 0 {
		return 2 * distuv.UnitNormal.Survival(math.Abs(t))
	}
	return 2 * StudentsT(df).Survival(math.Abs(t))
}

// StudentsT returns the central t distribution with df degrees of freedom.
func StudentsT(df int) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
}

// CritValue returns the two-sided critical value for a confidence
// interval with the given coverage level.
func CritValue(level float64, df int) float64 {
	q := 1 - (1-level)/2
	if df <= 0 {
		return distuv.UnitNormal.Quantile(q)
	}
	return StudentsT(df).Quantile(q)
}

// Fmter formats the elements of an array of values.
type Fmter func(interface{}, string) []string

// FmtStrings left-aligns a []string column to the width of its longest
// entry or header.
func FmtStrings(x interface{}, h string) []string {
	y := x.([]string)
	m := len(h)
	for _, s := range y {
		if len(s) > m {
			m = len(s)
		}
	}
	z := make([]string, len(y))
	for i, s := range y {
		z[i] = fmt.Sprintf("%-*s", m, s)
	}
	return z
}

// FmtFloats formats a []float64 column with four decimals.
func FmtFloats(x interface{}, h string) []string {
	y := x.([]float64)
	s := make([]string, len(y))
	for i, v := range y {
		s[i] = fmt.Sprintf("%10.4f", v)
	}
	return s
}

// FmtPValues formats a []float64 column of p-values, switching to
// scientific notation for very small values.
func FmtPValues(x interface{}, h string) []string {
	y := x.([]float64)
	s := make([]string, len(y))
	for i, v := range y {
		switch {
		case math.IsNaN(v):
			s[i] = fmt.Sprintf("%10s", "NA")
		case v < 1e-4:
			s[i] = fmt.Sprintf("%10.2e", v)
		default:
			s[i] = fmt.Sprintf("%10.4f", v)
		}
	}
	return s
}

// SummaryTable holds the summary values for a fitted model.
type SummaryTable struct {

	// Title
	Title string

	// Column names
	ColNames []string

	// Formatters for the column values
	ColFmt []Fmter

	// Cols[j] is the j^th column.  It's concrete type should
	// be an array, e.g. of numbers or strings.
	Cols []interface{}

	// Values at the top of the summary
	Top []string

	// Messages displayed below the table
	Msg []string

	// Total width of the table
	tw int
}

// rule draws a line of c filling the width of the table.
func (s *SummaryTable) rule(c string) string {
	return strings.Repeat(c, s.tw) + "\n"
}

// header lays out the Top fields in two columns.
func (s *SummaryTable) header(gap int) string {

	var w [2]int
	for j, x := range s.Top {
		if len(x) > w[j%2] {
			w[j%2] = len(x)
		}
	}

	var b strings.Builder
	for j, x := range s.Top {
		fmt.Fprintf(&b, "%-*s", w[j%2], x)
		if j%2 == 1 {
			b.WriteString("\n")
		} else {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}
	if len(s.Top)%2 == 1 {
		b.WriteString("\n")
	}

	return b.String()
}

// String returns the table as a string.
func (s *SummaryTable) String() string {

	const gap = 10

	var tab [][]string
	var wx []int
	for j, c := range s.Cols {
		u := s.ColFmt[j](c, s.ColNames[j])
		tab = append(tab, u)
		w := len(s.ColNames[j])
		for _, v := range u {
			if len(v) > w {
				w = len(v)
			}
		}
		wx = append(wx, w+1)
	}

	s.tw = len(s.Title)
	var cw int
	for _, w := range wx {
		cw += w
	}
	if cw > s.tw {
		s.tw = cw
	}
	var topw [2]int
	for j, x := range s.Top {
		if len(x) > topw[j%2] {
			topw[j%2] = len(x)
		}
	}
	if tw := topw[0] + gap + topw[1]; tw > s.tw {
		s.tw = tw
	}

	var buf strings.Builder

	// Center the title
	if kr := (s.tw - len(s.Title)) / 2; kr > 0 {
		buf.WriteString(strings.Repeat(" ", kr))
	}
	buf.WriteString(s.Title + "\n")

	buf.WriteString(s.rule("="))
	if len(s.Top) > 0 {
		buf.WriteString(s.header(gap))
		buf.WriteString(s.rule("-"))
	}

	for j, c := range s.ColNames {
		fmt.Fprintf(&buf, "%*s", wx[j], c)
	}
	buf.WriteString("\n")
	buf.WriteString(s.rule("-"))

	nrow := 0
	if len(tab) > 0 {
		nrow = len(tab[0])
	}
	for i := 0; i < nrow; i++ {
		for j := range tab {
			fmt.Fprintf(&buf, "%*s", wx[j], tab[j][i])
		}
		buf.WriteString("\n")
	}
	buf.WriteString(s.rule("-"))

	for _, msg := range s.Msg {
		buf.WriteString(msg + "\n")
	}

	return buf.String()
}
