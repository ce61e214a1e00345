package design

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// InterceptName is the column name of the intercept.
const InterceptName = "(Intercept)"

// ErrNoObservations is returned when a design would have no rows.
var ErrNoObservations = errors.New("design: no observations")

// Matrix is a design matrix together with its column names.
type Matrix struct {

	// X is the n x p design.  Column 0 is the intercept.
	X *mat.Dense

	// Names holds one name per column of X.
	Names []string

	// Factors lists the categorical predictors coded into X, in column
	// order.
	Factors []*Factor

	// Column offset of each factor's first indicator column.
	offsets []int
}

// BuildMatrix dummy-codes categories against the factor f.  The result has
// an intercept column followed by one indicator column for each
// non-reference level, in level order.  A label that is not a level of f
// yields a *statmodel.UnknownLevelError.
func BuildMatrix(categories []string, f *Factor) (*Matrix, error) {

	if len(categories) == 0 {
		return nil, ErrNoObservations
	}

	b := newBuilder(len(categories))
	if err := b.addFactor(categories, f); err != nil {
		return nil, err
	}

	return b.done(), nil
}

// Dims returns the number of rows and columns of the design.
func (m *Matrix) Dims() (int, int) {
	return m.X.Dims()
}

// Columns returns the design as a slice of columns.
func (m *Matrix) Columns() [][]float64 {
	n, p := m.X.Dims()
	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = make([]float64, n)
		mat.Col(cols[j], j, m.X)
	}
	return cols
}

// Column returns the position of the named column.
func (m *Matrix) Column(name string) (int, bool) {
	for j, na := range m.Names {
		if na == name {
			return j, true
		}
	}
	return -1, false
}

// CellRow returns the design row of an observation in the given level of
// the named factor, with every other factor at its reference level and
// numeric covariates at zero.  The dot product of this row with the
// coefficients is the fitted mean of the cell.
func (m *Matrix) CellRow(factor, level string) ([]float64, error) {

	_, p := m.X.Dims()
	row := make([]float64, p)
	row[0] = 1

	for k, f := range m.Factors {
		if f.Name() != factor {
			continue
		}
		i, ok := f.Index(level)
		if !ok {
			return nil, &statmodel.UnknownLevelError{Factor: factor, Row: -1, Label: level, Levels: f.Levels()}
		}
		if i > 0 {
			row[m.offsets[k]+i-1] = 1
		}
		return row, nil
	}

	return nil, fmt.Errorf("design has no factor %q", factor)
}

// builder accumulates design columns for n observations.
type builder struct {
	n       int
	cols    [][]float64
	names   []string
	factors []*Factor
	offsets []int
}

func newBuilder(n int) *builder {
	icept := make([]float64, n)
	for i := range icept {
		icept[i] = 1
	}
	return &builder{
		n:     n,
		cols:  [][]float64{icept},
		names: []string{InterceptName},
	}
}

func (b *builder) addFactor(labels []string, f *Factor) error {

	if len(labels) != b.n {
		return &statmodel.DimensionMismatchError{
			What:     fmt.Sprintf("factor %q length", f.Name()),
			Expected: b.n,
			Actual:   len(labels),
		}
	}

	k := f.NumLevels() - 1
	ind := make([][]float64, k)
	for j := range ind {
		ind[j] = make([]float64, b.n)
	}

	for i, x := range labels {
		lv, ok := f.Index(x)
		if !ok {
			return &statmodel.UnknownLevelError{Factor: f.Name(), Row: i, Label: x, Levels: f.Levels()}
		}
		if lv > 0 {
			ind[lv-1][i] = 1
		}
	}

	b.factors = append(b.factors, f)
	b.offsets = append(b.offsets, len(b.cols))
	b.cols = append(b.cols, ind...)
	b.names = append(b.names, f.ColumnNames()...)

	return nil
}

func (b *builder) addNumeric(name string, x []float64) error {

	if len(x) != b.n {
		return &statmodel.DimensionMismatchError{
			What:     fmt.Sprintf("covariate %q length", name),
			Expected: b.n,
			Actual:   len(x),
		}
	}

	z := make([]float64, b.n)
	copy(z, x)
	b.cols = append(b.cols, z)
	b.names = append(b.names, name)

	return nil
}

func (b *builder) done() *Matrix {

	x := mat.NewDense(b.n, len(b.cols), nil)
	for j, c := range b.cols {
		for i, v := range c {
			x.Set(i, j, v)
		}
	}

	return &Matrix{
		X:       x,
		Names:   b.names,
		Factors: b.factors,
		offsets: b.offsets,
	}
}
