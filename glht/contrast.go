package glht

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// Fitted is a fitted regression model whose coefficients can be
// contrasted.  *lm.OLSResults satisfies it.
type Fitted interface {

	// Names of the coefficients
	Names() []string

	// The coefficient estimates
	Params() []float64

	// The p x p covariance of the estimates, in row-major order
	VCov() []float64

	// Residual degrees of freedom
	DF() int
}

// Contrasts is a matrix of linear combinations of regression coefficients,
// one hypothesis per row.  Row i tests H0: L[i,:] . beta = RHS[i].
type Contrasts struct {

	// Name of the family of hypotheses, shown in tables.
	Name string

	// Labels holds one label per row.  Rows without a label are described
	// by their linear combination of the coefficient names.
	Labels []string

	// L is the k x p contrast matrix.
	L *mat.Dense

	// RHS holds the null values of the rows.  A nil RHS means zero for
	// every row.
	RHS []float64
}

// NewContrasts returns a contrast family from its rows.  Every row must
// have the same length.
func NewContrasts(name string, rows [][]float64) (*Contrasts, error) {

	if len(rows) == 0 {
		return nil, fmt.Errorf("contrasts %q: no rows", name)
	}

	p := len(rows[0])
	if p == 0 {
		return nil, fmt.Errorf("contrasts %q: empty row", name)
	}

	l := mat.NewDense(len(rows), p, nil)
	for i, r := range rows {
		if len(r) != p {
			return nil, &statmodel.DimensionMismatchError{
				What:     fmt.Sprintf("contrasts %q row %d length", name, i),
				Expected: p,
				Actual:   len(r),
			}
		}
		l.SetRow(i, r)
	}

	return &Contrasts{Name: name, L: l}, nil
}

// SetLabels sets the row labels.
func (c *Contrasts) SetLabels(labels ...string) *Contrasts {
	c.Labels = labels
	return c
}

// SetRHS sets the null values of the rows.
func (c *Contrasts) SetRHS(rhs []float64) *Contrasts {
	c.RHS = rhs
	return c
}

// Dims returns the number of hypotheses and the number of coefficients.
func (c *Contrasts) Dims() (int, int) {
	return c.L.Dims()
}

// null returns the null value of row i.
func (c *Contrasts) null(i int) float64 {
	if c.RHS == nil {
		return 0
	}
	return c.RHS[i]
}

// label returns the label of row i, describing the row by the coefficient
// names if no label was given.
func (c *Contrasts) label(i int, names []string) string {

	if i < len(c.Labels) && c.Labels[i] != "" {
		return c.Labels[i]
	}

	var b strings.Builder
	for j, v := range c.L.RawRowView(i) {
		if v == 0 {
			continue
		}
		na := fmt.Sprintf("b%d", j)
		if j < len(names) {
			na = names[j]
		}
		switch {
		case b.Len() == 0 && v == 1:
		case b.Len() == 0 && v == -1:
			b.WriteString("-")
		case b.Len() == 0:
			b.WriteString(strconv.FormatFloat(v, 'g', 4, 64) + "*")
		case v == 1:
			b.WriteString(" + ")
		case v == -1:
			b.WriteString(" - ")
		case v < 0:
			b.WriteString(" - " + strconv.FormatFloat(-v, 'g', 4, 64) + "*")
		default:
			b.WriteString(" + " + strconv.FormatFloat(v, 'g', 4, 64) + "*")
		}
		b.WriteString(na)
	}
	if b.Len() == 0 {
		b.WriteString("0")
	}

	fmt.Fprintf(&b, " = %g", c.null(i))

	return b.String()
}

// Estimate is a linear combination of coefficients with its standard
// error.
type Estimate struct {

	// Label describes the hypothesis.
	Label string

	// Estimate is c . beta.
	Estimate float64

	// StdErr is sqrt(c V c'), V being the coefficient covariance.
	StdErr float64

	// Null is the value of c . beta under the null hypothesis.
	Null float64
}

// Tester evaluates and tests general linear hypotheses about the
// coefficients of one fitted model.
type Tester struct {
	model Fitted

	// p x p coefficient covariance
	vcov *mat.SymDense

	log *zap.Logger
}

// NewTester returns a Tester for the fitted model.
func NewTester(model Fitted) *Tester {
	return &Tester{
		model: model,
	}
}

// Log sets the logger used for warnings about clamped variances.
func (ts *Tester) Log(log *zap.Logger) *Tester {
	ts.log = log
	return ts
}

// Done completes definition of the Tester.
func (ts *Tester) Done() *Tester {

	if ts.log == nil {
		ts.log = zap.NewNop()
	}

	p := len(ts.model.Params())
	vc := ts.model.VCov()
	if len(vc) != p*p {
		msg := fmt.Sprintf("Tester: covariance has %d elements, expected %d\n", len(vc), p*p)
		panic(msg)
	}
	ts.vcov = mat.NewSymDense(p, vc)

	return ts
}

// Model returns the fitted model being tested.
func (ts *Tester) Model() Fitted {
	return ts.model
}

// Evaluate applies the contrast matrix to the coefficients.  For each row
// c it returns the estimate c . beta and the standard error
// sqrt(c V c').  A negative variance, from rounding or from a covariance
// that is not positive semi-definite, is clamped to zero with a warning.
func (ts *Tester) Evaluate(c *Contrasts) ([]Estimate, error) {

	if ts.vcov == nil {
		panic("Tester: Done must be called before Evaluate.\n")
	}

	params := ts.model.Params()
	names := ts.model.Names()
	p := len(params)

	k, q := c.Dims()
	if q != p {
		return nil, &statmodel.DimensionMismatchError{
			What:     fmt.Sprintf("contrasts %q columns", c.Name),
			Expected: p,
			Actual:   q,
		}
	}
	if c.RHS != nil && len(c.RHS) != k {
		return nil, &statmodel.DimensionMismatchError{
			What:     fmt.Sprintf("contrasts %q null values", c.Name),
			Expected: k,
			Actual:   len(c.RHS),
		}
	}

	beta := mat.NewVecDense(p, params)

	est := make([]Estimate, k)
	for i := range est {

		row := c.L.RowView(i)
		va := mat.Inner(row, ts.vcov, row)

		if va < 0 {
			va = ts.clamp(c, i, row, va)
		}

		est[i] = Estimate{
			Label:    c.label(i, names),
			Estimate: mat.Dot(row, beta),
			StdErr:   math.Sqrt(va),
			Null:     c.null(i),
		}
	}

	return est, nil
}

// clamp handles a negative variance for row i by logging a warning and
// returning zero.  The rounding field tells a value that is small relative
// to the variances of the terms from a covariance that is not positive
// semi-definite.
func (ts *Tester) clamp(c *Contrasts, i int, row mat.Vector, va float64) float64 {

	var mag float64
	for j := 0; j < row.Len(); j++ {
		mag += row.AtVec(j) * row.AtVec(j) * math.Abs(ts.vcov.At(j, j))
	}

	ts.log.Warn("negative contrast variance clamped to zero",
		zap.String("contrasts", c.Name),
		zap.Int("row", i),
		zap.Float64("variance", va),
		zap.Bool("rounding", -va <= 1e-10*mag))

	return 0
}

// Evaluate applies the contrast matrix c to the fitted model.  See
// Tester.Evaluate.
func Evaluate(model Fitted, c *Contrasts) ([]Estimate, error) {
	return NewTester(model).Done().Evaluate(c)
}

// CellMeans returns contrasts whose rows are the given design rows, each
// estimating a fitted mean.  Rows typically come from
// design.Matrix.CellRow.
func CellMeans(name string, labels []string, rows [][]float64) (*Contrasts, error) {

	c, err := NewContrasts(name, rows)
	if err != nil {
		return nil, err
	}

	return c.SetLabels(labels...), nil
}

// Pairwise returns contrasts for every difference of two cell means,
// rows[i] - rows[j] for i < j, labeled "labels[i] - labels[j]".
func Pairwise(name string, labels []string, rows [][]float64) (*Contrasts, error) {

	if len(labels) != len(rows) {
		return nil, &statmodel.DimensionMismatchError{What: "pairwise labels", Expected: len(rows), Actual: len(labels)}
	}

	var diffs [][]float64
	var dl []string
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			if len(rows[i]) != len(rows[j]) {
				return nil, &statmodel.DimensionMismatchError{What: "pairwise row length", Expected: len(rows[i]), Actual: len(rows[j])}
			}
			d := make([]float64, len(rows[i]))
			for k := range d {
				d[k] = rows[i][k] - rows[j][k]
			}
			diffs = append(diffs, d)
			dl = append(dl, labels[i]+" - "+labels[j])
		}
	}

	c, err := NewContrasts(name, diffs)
	if err != nil {
		return nil, err
	}

	return c.SetLabels(dl...), nil
}
