package lm

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wkingc/general-linear-hypothesis/design"
	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// DefaultTolerance is the relative size below which a diagonal element of
// the triangular QR factor is treated as zero.
const DefaultTolerance = 1e-7

// OLS represents a linear model fit by ordinary least squares.
type OLS struct {
	design *design.Matrix

	// The design as columns, built by Done.
	data [][]float64

	// The outcome and its name
	y     []float64
	yname string

	// Relative tolerance for the rank check
	tol float64

	log *zap.Logger

	done bool
}

// NewOLS creates a linear model of the outcome y on the design x.
func NewOLS(x *design.Matrix, y []float64) *OLS {
	return &OLS{
		design: x,
		y:      y,
		yname:  "y",
		tol:    DefaultTolerance,
	}
}

// Log takes a Logger value that will be used to log the results of the fit.
func (ols *OLS) Log(log *zap.Logger) *OLS {
	ols.log = log
	return ols
}

// YName sets the name of the outcome shown in summaries.
func (ols *OLS) YName(name string) *OLS {
	ols.yname = name
	return ols
}

// Tolerance sets the relative tolerance used to detect linearly dependent
// columns of the design.
func (ols *OLS) Tolerance(tol float64) *OLS {
	ols.tol = tol
	return ols
}

// Done completes definition of the model.  After calling Done the model
// can be fit by calling the Fit method.
func (ols *OLS) Done() *OLS {

	if ols.design == nil {
		panic("OLS: the design must be defined before calling Done.\n")
	}

	if ols.log == nil {
		ols.log = zap.NewNop()
	}

	ols.data = ols.design.Columns()
	ols.done = true

	return ols
}

// NumParams returns the number of columns of the design.
func (ols *OLS) NumParams() int {
	_, p := ols.design.Dims()
	return p
}

// NumObs returns the number of observations.
func (ols *OLS) NumObs() int {
	n, _ := ols.design.Dims()
	return n
}

// Dataset returns the design columns.
func (ols *OLS) Dataset() [][]float64 {
	return ols.data
}

// Design returns the design matrix of the model.
func (ols *OLS) Design() *design.Matrix {
	return ols.design
}

// Fit estimates the coefficients by least squares using a Householder QR
// factorization X = QR, so that (X'X)^-1 = R^-1 R^-T is obtained without
// forming X'X.  It returns a *statmodel.RankDeficientError if the design
// has no more rows than columns or is not of full column rank.
func (ols *OLS) Fit() (*OLSResults, error) {

	if !ols.done {
		panic("OLS: Done must be called before Fit.\n")
	}

	n, p := ols.design.Dims()
	if len(ols.y) != n {
		return nil, &statmodel.DimensionMismatchError{What: "outcome length", Expected: n, Actual: len(ols.y)}
	}
	if n <= p {
		return nil, &statmodel.RankDeficientError{NumObs: n, NumParams: p, Rank: -1, Column: -1}
	}

	var qr mat.QR
	qr.Factorize(ols.design.X)

	var rf mat.Dense
	qr.RTo(&rf)

	r := mat.NewTriDense(p, mat.Upper, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			r.SetTri(i, j, rf.At(i, j))
		}
	}

	if err := ols.checkRank(r, n); err != nil {
		return nil, err
	}

	var rinv mat.TriDense
	if err := rinv.InverseTri(r); err != nil {
		if err := ols.condition(err, n, p); err != nil {
			return nil, err
		}
	}

	var beta mat.VecDense
	yv := mat.NewVecDense(n, ols.y)
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		if err := ols.condition(err, n, p); err != nil {
			return nil, err
		}
	}
	params := make([]float64, p)
	copy(params, beta.RawVector().Data)

	var fv mat.VecDense
	fv.MulVec(ols.design.X, &beta)
	resid := make([]float64, n)
	floats.SubTo(resid, ols.y, fv.RawVector().Data)

	df := n - p
	ssr := floats.Dot(resid, resid)
	scale := ssr / float64(df)

	var cov mat.SymDense
	cov.SymOuterK(scale, &rinv)

	vcov := make([]float64, p*p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			vcov[i*p+j] = cov.At(i, j)
		}
	}

	ll := ols.LogLike(ssr)

	ols.log.Debug("OLS fit",
		zap.String("outcome", ols.yname),
		zap.Int("nobs", n),
		zap.Int("nparams", p),
		zap.Int("df", df),
		zap.Float64("scale", scale))

	results := &OLSResults{
		BaseResults: statmodel.NewBaseResults(ols, ll, params, ols.design.Names, vcov, df),
		scale:       scale,
		resid:       resid,
		ssr:         ssr,
		sst:         centeredSS(ols.y),
		cov:         &cov,
		rinv:        &rinv,
	}

	return results, nil
}

// checkRank looks for a diagonal element of R that is negligible relative
// to the largest one.  Without column pivoting the first such element
// identifies the first column that is a linear combination of the columns
// before it.
func (ols *OLS) checkRank(r *mat.TriDense, n int) error {

	p, _ := r.Dims()

	var rmax float64
	for j := 0; j < p; j++ {
		rmax = math.Max(rmax, math.Abs(r.At(j, j)))
	}

	first := -1
	rank := 0
	for j := 0; j < p; j++ {
		if math.Abs(r.At(j, j)) <= ols.tol*rmax || rmax == 0 {
			if first < 0 {
				first = j
			}
			continue
		}
		rank++
	}

	if first >= 0 {
		ols.log.Debug("rank deficient design",
			zap.Int("rank", rank),
			zap.String("column", ols.design.Names[first]))
		return &statmodel.RankDeficientError{NumObs: n, NumParams: p, Rank: rank, Column: first}
	}

	return nil
}

// condition turns an exact singularity reported by mat into a
// RankDeficientError and logs a warning for an ill-conditioned but
// invertible factor.
func (ols *OLS) condition(err error, n, p int) error {

	var ce mat.Condition
	if !errors.As(err, &ce) {
		return fmt.Errorf("OLS: %w", err)
	}

	if math.IsInf(float64(ce), 1) {
		return &statmodel.RankDeficientError{NumObs: n, NumParams: p, Rank: -1, Column: -1}
	}

	ols.log.Warn("ill-conditioned design", zap.Float64("condition", float64(ce)))
	return nil
}

// LogLike returns the Gaussian log-likelihood at the maximum likelihood
// estimate of the error variance, given the residual sum of squares.
func (ols *OLS) LogLike(ssr float64) float64 {
	n := float64(ols.NumObs())
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(ssr/n) + 1)
}

// EstimateScale returns the residual variance estimate sum(r^2) / (n - p)
// at the given coefficients.
func (ols *OLS) EstimateScale(params []float64) float64 {

	var ssr float64
	for i, y := range ols.y {
		var lp float64
		for j, x := range ols.data {
			lp += params[j] * x[i]
		}
		r := y - lp
		ssr += r * r
	}

	return ssr / float64(ols.NumObs()-ols.NumParams())
}

func centeredSS(y []float64) float64 {
	mn := floats.Sum(y) / float64(len(y))
	var ss float64
	for _, v := range y {
		ss += (v - mn) * (v - mn)
	}
	return ss
}

var _ statmodel.BaseResultser = (*OLSResults)(nil)

// OLSResults describes the results of a fitted linear model.
type OLSResults struct {
	statmodel.BaseResults

	scale float64
	resid []float64

	// Residual and centered total sums of squares.
	ssr float64
	sst float64

	cov *mat.SymDense

	// Inverse of the triangular QR factor
	rinv *mat.TriDense
}

// Scale returns the residual variance estimate.
func (rslt *OLSResults) Scale() float64 {
	return rslt.scale
}

// ResidDF returns the residual degrees of freedom n - p.
func (rslt *OLSResults) ResidDF() int {
	return rslt.DF()
}

// Resid returns the residuals y - X beta.
func (rslt *OLSResults) Resid() []float64 {
	return rslt.resid
}

// Covariance returns the estimated covariance of the coefficients,
// scale * (X'X)^-1.
func (rslt *OLSResults) Covariance() *mat.SymDense {
	return rslt.cov
}

// XTXInv returns (X'X)^-1, computed as R^-1 R^-T from the QR factor.
func (rslt *OLSResults) XTXInv() *mat.SymDense {
	var xtxi mat.SymDense
	xtxi.SymOuterK(1, rslt.rinv)
	return &xtxi
}

// RSquared returns the proportion of the centered variation in the
// outcome explained by the model.
func (rslt *OLSResults) RSquared() float64 {
	return 1 - rslt.ssr/rslt.sst
}

// AdjRSquared returns the R-squared adjusted for the number of parameters.
func (rslt *OLSResults) AdjRSquared() float64 {
	n := float64(rslt.Model().NumObs())
	return 1 - (1-rslt.RSquared())*(n-1)/float64(rslt.DF())
}

// FStat returns the F statistic and p-value for the null hypothesis that
// every coefficient except the intercept is zero.
func (rslt *OLSResults) FStat() (float64, float64) {

	k := rslt.Model().NumParams() - 1
	if k == 0 {
		return math.NaN(), math.NaN()
	}

	f := (rslt.sst - rslt.ssr) / float64(k) / rslt.scale
	fd := distuv.F{D1: float64(k), D2: float64(rslt.DF())}

	return f, fd.Survival(f)
}

// OLSSummary summarizes a fitted linear model.
type OLSSummary struct {
	ols     *OLS
	results *OLSResults

	// Coverage of the confidence intervals
	level float64

	// Messages that are appended to the table
	messages []string
}

// Summary returns a summary of the fitted model with 95% confidence
// intervals.
func (rslt *OLSResults) Summary() *OLSSummary {
	return &OLSSummary{
		ols:     rslt.Model().(*OLS),
		results: rslt,
		level:   0.95,
	}
}

// Level sets the coverage of the confidence intervals.
func (sm *OLSSummary) Level(level float64) *OLSSummary {
	sm.level = level
	return sm
}

// Message appends a line below the table.
func (sm *OLSSummary) Message(msg string) *OLSSummary {
	sm.messages = append(sm.messages, msg)
	return sm
}

// String returns a string representation of a summary table for the model.
func (sm *OLSSummary) String() string {

	rslt := sm.results
	fs, fp := rslt.FStat()

	sum := &statmodel.SummaryTable{
		Title: "Linear model analysis (OLS)",
		Msg:   sm.messages,
		Top: []string{
			fmt.Sprintf("Outcome:   %s", sm.ols.yname),
			fmt.Sprintf("Num obs:   %d", sm.ols.NumObs()),
			fmt.Sprintf("Resid DF:  %d", rslt.DF()),
			fmt.Sprintf("Scale:     %.6g", rslt.scale),
			fmt.Sprintf("R-squared: %.4f", rslt.RSquared()),
			fmt.Sprintf("Adj R-sq:  %.4f", rslt.AdjRSquared()),
			fmt.Sprintf("F-stat:    %.4f", fs),
			fmt.Sprintf("Prob(F):   %.4g", fp),
		},
		ColNames: []string{"Variable   ", "Estimate", "SE", "LCB", "UCB", "t-value", "P-value"},
		ColFmt: []statmodel.Fmter{statmodel.FmtStrings, statmodel.FmtFloats, statmodel.FmtFloats,
			statmodel.FmtFloats, statmodel.FmtFloats, statmodel.FmtFloats, statmodel.FmtPValues},
	}

	q := statmodel.CritValue(sm.level, rslt.DF())
	pa := rslt.Params()
	se := rslt.StdErr()
	lcb := make([]float64, len(pa))
	ucb := make([]float64, len(pa))
	for j := range pa {
		lcb[j] = pa[j] - q*se[j]
		ucb[j] = pa[j] + q*se[j]
	}

	sum.Cols = []interface{}{
		rslt.Names(),
		pa,
		se,
		lcb,
		ucb,
		rslt.TValues(),
		rslt.PValues(),
	}

	return sum.String()
}
