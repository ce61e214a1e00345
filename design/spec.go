package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/kshedden/dstream/dstream"
)

// ErrNonFinite is returned when an outcome or numeric covariate holds NaN
// or an infinite value.
var ErrNonFinite = errors.New("non-finite value")

// Spec describes a linear model on the columns of a Dstream.
type Spec struct {

	// Outcome is the name of the numeric outcome column.
	Outcome string

	// Predictors are entered additively after the intercept, in this
	// order.  Categorical columns are dummy coded, numeric columns enter
	// as they are.
	Predictors []string

	// Levels optionally fixes the level order of a categorical predictor.
	// If absent the sorted distinct labels are used.
	Levels map[string][]string

	// Reference optionally names the reference level of a categorical
	// predictor.  If absent the first level is the reference.
	Reference map[string]string
}

// Build returns the design matrix and outcome vector for the model
// described by spec.  The outcome must be a float64 column of data, and
// each predictor a float64 or string column.
func (spec Spec) Build(data dstream.Dstream) (*Matrix, []float64, error) {

	y, err := floatCol(data, spec.Outcome)
	if err != nil {
		return nil, nil, fmt.Errorf("outcome: %w", err)
	}
	if len(y) == 0 {
		return nil, nil, ErrNoObservations
	}
	if err := checkFinite(spec.Outcome, y); err != nil {
		return nil, nil, err
	}

	b := newBuilder(len(y))
	for _, na := range spec.Predictors {

		col, err := column(data, na)
		if err != nil {
			return nil, nil, fmt.Errorf("predictor: %w", err)
		}

		switch x := col.(type) {
		case []float64:
			if err := checkFinite(na, x); err != nil {
				return nil, nil, err
			}
			if err := b.addNumeric(na, x); err != nil {
				return nil, nil, err
			}
		case []string:
			f, err := spec.factor(na, x)
			if err != nil {
				return nil, nil, err
			}
			if err := b.addFactor(x, f); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, fmt.Errorf("predictor %q has unsupported type %T", na, col)
		}
	}

	return b.done(), y, nil
}

// column returns a copy of the named variable of data, read from the
// first chunk onward.
func column(data dstream.Dstream, name string) (interface{}, error) {

	for _, na := range data.Names() {
		if na == name {
			return dstream.GetCol(data, name), nil
		}
	}

	return nil, fmt.Errorf("variable %q not found", name)
}

func floatCol(data dstream.Dstream, name string) ([]float64, error) {

	col, err := column(data, name)
	if err != nil {
		return nil, err
	}

	switch x := col.(type) {
	case []float64:
		return x, nil
	case nil:
		return nil, nil
	}

	return nil, fmt.Errorf("variable %q is %T, not []float64", name, col)
}

func (spec Spec) factor(name string, labels []string) (*Factor, error) {

	var f *Factor
	var err error
	if lv, ok := spec.Levels[name]; ok {
		f, err = NewFactor(name, lv...)
	} else {
		f, err = FactorFromData(name, labels)
	}
	if err != nil {
		return nil, err
	}

	if ref, ok := spec.Reference[name]; ok && ref != f.Reference() {
		return f.Relevel(ref)
	}

	return f, nil
}

func checkFinite(name string, x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("column %q, row %d: %w (%v)", name, i, ErrNonFinite, v)
		}
	}
	return nil
}
