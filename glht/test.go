package glht

import (
	"errors"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// Hypothesis is the marginal t test of one row of a contrast matrix.
type Hypothesis struct {
	Estimate

	// TStat is (Estimate - Null) / StdErr.
	TStat float64

	// PValue is the two-sided p-value from the t distribution with DF
	// degrees of freedom.
	PValue float64

	// DF is the residual degrees of freedom of the model.
	DF int

	// Err is a *statmodel.DegenerateTestError if the standard error is
	// zero, in which case TStat and PValue are NaN.
	Err error
}

// Undefined reports whether the test could not be carried out.
func (h *Hypothesis) Undefined() bool {
	return h.Err != nil
}

// ConfInt returns a two-sided confidence interval for the linear
// combination with the given coverage, e.g. 0.95.
func (h *Hypothesis) ConfInt(level float64) (float64, float64) {
	q := statmodel.CritValue(level, h.DF) * h.StdErr
	return h.Estimate.Estimate - q, h.Estimate.Estimate + q
}

// Test carries out a two-sided t test of each estimate against its null
// value, using the t distribution with df degrees of freedom, or the
// normal distribution if df is not positive.  The tests
// are marginal: no adjustment is made for testing several rows together.
// A row with a zero standard error carries a *statmodel.DegenerateTestError
// and does not affect the other rows.
func Test(estimates []Estimate, df int) []Hypothesis {

	hyp := make([]Hypothesis, len(estimates))
	for i, e := range estimates {

		h := Hypothesis{Estimate: e, DF: df}

		if e.StdErr == 0 {
			h.TStat = math.NaN()
			h.PValue = math.NaN()
			h.Err = &statmodel.DegenerateTestError{Index: i, Label: e.Label, Estimate: e.Estimate}
		} else {
			h.TStat = (e.Estimate - e.Null) / e.StdErr
			h.PValue = statmodel.TwoSidedP(h.TStat, df)
		}

		hyp[i] = h
	}

	return hyp
}

// Test evaluates the contrasts and tests each row.
func (ts *Tester) Test(c *Contrasts) ([]Hypothesis, error) {

	est, err := ts.Evaluate(c)
	if err != nil {
		return nil, err
	}

	hyp := Test(est, ts.model.DF())
	for i := range hyp {
		if hyp[i].Err != nil {
			ts.log.Warn("undefined test", zap.String("contrasts", c.Name), zap.Error(hyp[i].Err))
		}
	}

	return hyp, nil
}

// FTestResult is the result of a joint test of every row of a contrast
// matrix.
type FTestResult struct {

	// F statistic
	F float64

	// Numerator degrees of freedom, the rank of L V L'.
	DF1 int

	// Denominator degrees of freedom, the residual degrees of freedom.
	DF2 int

	PValue float64
}

// FTest tests the joint null hypothesis L beta = RHS using the Wald F
// statistic d' (L V L')^+ d / r, where d = L beta - RHS and r is the rank
// of L V L'.  Linearly dependent rows are allowed and reduce r.
func (ts *Tester) FTest(c *Contrasts) (*FTestResult, error) {

	est, err := ts.Evaluate(c)
	if err != nil {
		return nil, err
	}

	k, _ := c.Dims()
	d := mat.NewVecDense(k, nil)
	for i, e := range est {
		d.SetVec(i, e.Estimate-e.Null)
	}

	// The covariance of L beta
	var lv mat.Dense
	lv.Mul(c.L, ts.vcov)
	cv := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cv.SetSym(i, j, mat.Dot(lv.RowView(i), c.L.RowView(j)))
		}
	}

	var es mat.EigenSym
	if !es.Factorize(cv, true) {
		return nil, errors.New("glht: eigendecomposition of the contrast covariance failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	var vmax float64
	for _, v := range vals {
		vmax = math.Max(vmax, v)
	}

	// Quadratic form with the pseudo-inverse, summing over the
	// non-negligible eigenvalues.
	var qf float64
	rank := 0
	for j, v := range vals {
		if v <= 1e-10*vmax {
			continue
		}
		rank++
		u := mat.Dot(vecs.ColView(j), d)
		qf += u * u / v
	}

	if rank == 0 {
		return nil, &statmodel.DegenerateTestError{Index: -1, Label: c.Name}
	}

	df2 := ts.model.DF()
	f := qf / float64(rank)
	fd := distuv.F{D1: float64(rank), D2: float64(df2)}

	return &FTestResult{
		F:      f,
		DF1:    rank,
		DF2:    df2,
		PValue: fd.Survival(f),
	}, nil
}

// FTest performs the joint F test of the contrasts against a fitted model
// using a Tester with default settings.
func FTest(model Fitted, c *Contrasts) (*FTestResult, error) {
	return NewTester(model).Done().FTest(c)
}
