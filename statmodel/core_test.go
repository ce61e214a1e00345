package statmodel

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

func data1() ([]string, [][]Dtype) {
	x := [][]Dtype{
		{1, 1, 1, 1, 1, 1, 1},
		{4, 1, -1, 3, 5, -5, 3},
	}
	return []string{"x1", "x2"}, x
}

func data1b() ([]string, [][]Dtype) {
	x := [][]Dtype{
		{1, 1, 1, 1, 1, 1, 1},
		{8, 2, -2, 6, 10, -10, 6},
	}
	return []string{"x1", "x2"}, x
}

// A mock model for testing
type Mock struct {
	data [][]Dtype
}

func (m *Mock) Dataset() [][]Dtype {
	return m.data
}

func (m *Mock) NumParams() int {
	return len(m.data)
}

func (m *Mock) NumObs() int {
	return len(m.data[0])
}

func TestResult1(t *testing.T) {

	xnames, da := data1()
	model := &Mock{data: da}

	params := []float64{1, 2}
	vcov := []float64{0, 0, 0, 0}

	r := NewBaseResults(model, 0, params, xnames, vcov, 5)

	// Test fitted values on the training data.
	fv := []float64{9, 3, -1, 7, 11, -9, 7}
	if !floats.Equal(fv, r.FittedValues(nil)) {
		t.Fail()
	}

	// Test fitted values when passing new data.
	_, da2 := data1b()
	fv = []float64{17, 5, -3, 13, 21, -19, 13}
	if !floats.Equal(fv, r.FittedValues(da2)) {
		t.Fail()
	}
}

func TestResultInference(t *testing.T) {

	xnames, da := data1()
	model := &Mock{data: da}

	params := []float64{2, -1}
	vcov := []float64{4, 1, 1, 0.25}
	r := NewBaseResults(model, 0, params, xnames, vcov, 10)

	if !floats.EqualApprox(r.StdErr(), []float64{2, 0.5}, 1e-12) {
		t.Errorf("stderr: %v", r.StdErr())
	}
	if !floats.EqualApprox(r.TValues(), []float64{1, -2}, 1e-12) {
		t.Errorf("tvalues: %v", r.TValues())
	}

	// Reference values from the t distribution with 10 df.
	pv := []float64{0.3408931, 0.0733880}
	if !floats.EqualApprox(r.PValues(), pv, 1e-6) {
		t.Errorf("pvalues: %v", r.PValues())
	}
}

// The accessors of a results value agree through the BaseResultser
// interface.
func TestBaseResultser(t *testing.T) {

	xnames, da := data1()
	model := &Mock{data: da}
	br := NewBaseResults(model, -3.5, []float64{2, -1}, xnames, []float64{4, 1, 1, 0.25}, 10)

	var r BaseResultser = &br
	assert.Equal(t, RegFitter(model), r.Model())
	assert.Equal(t, xnames, r.Names())
	assert.Equal(t, 10, r.DF())
	assert.Equal(t, -3.5, r.LogLike())
	assert.Len(t, r.VCov(), 4)

	for j, tv := range r.TValues() {
		if !scalar.EqualWithinAbs(tv, r.Params()[j]/r.StdErr()[j], 1e-12) {
			t.Errorf("t value %d: %v", j, tv)
		}
		if !scalar.EqualWithinAbs(r.PValues()[j], TwoSidedP(tv, r.DF()), 1e-12) {
			t.Errorf("p value %d: %v", j, r.PValues()[j])
		}
	}
}

func TestTwoSidedP(t *testing.T) {

	if p := TwoSidedP(0, 5); !scalar.EqualWithinAbs(p, 1, 1e-12) {
		t.Errorf("t=0: got %v", p)
	}

	// Symmetry
	if !scalar.EqualWithinAbs(TwoSidedP(2.1, 7), TwoSidedP(-2.1, 7), 1e-14) {
		t.Fail()
	}

	// Normal limit, also used for negative degrees of freedom
	if p := TwoSidedP(1.959964, 0); !scalar.EqualWithinAbs(p, 0.05, 1e-6) {
		t.Errorf("normal: got %v", p)
	}
	if p := TwoSidedP(1.959964, -2); !scalar.EqualWithinAbs(p, 0.05, 1e-6) {
		t.Errorf("negative df: got %v", p)
	}

	if !math.IsNaN(TwoSidedP(math.NaN(), 3)) {
		t.Fail()
	}
}

func TestCritValue(t *testing.T) {

	// qt(0.975, 6) = 2.446912
	if c := CritValue(0.95, 6); !scalar.EqualWithinAbs(c, 2.446912, 1e-6) {
		t.Errorf("got %v", c)
	}
	if c := CritValue(0.95, 0); !scalar.EqualWithinAbs(c, 1.959964, 1e-6) {
		t.Errorf("got %v", c)
	}
}

func TestSummaryTable(t *testing.T) {

	s := &SummaryTable{
		Title:    "Test table",
		Top:      []string{"Num obs: 7", "DF: 5", "Scale: 1.0"},
		ColNames: []string{"Variable", "Estimate", "P-value"},
		ColFmt:   []Fmter{FmtStrings, FmtFloats, FmtPValues},
		Cols: []interface{}{
			[]string{"a", "bb"},
			[]float64{1.5, -2},
			[]float64{0.5, math.NaN()},
		},
		Msg: []string{"footer"},
	}

	out := s.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if !strings.Contains(lines[0], "Test table") {
		t.Errorf("missing title: %q", lines[0])
	}
	if lines[len(lines)-1] != "footer" {
		t.Errorf("missing footer: %q", lines[len(lines)-1])
	}
	if !strings.Contains(out, "NA") {
		t.Errorf("NaN p-value not rendered as NA")
	}
	if !strings.Contains(out, "1.5000") {
		t.Errorf("estimate not rendered")
	}
}

func TestErrorKinds(t *testing.T) {

	errs := []struct {
		err    error
		target error
	}{
		{&UnknownLevelError{Factor: "g", Row: 3, Label: "x", Levels: []string{"a", "b"}}, ErrUnknownLevel},
		{&RankDeficientError{NumObs: 3, NumParams: 3, Rank: -1, Column: -1}, ErrRankDeficient},
		{&DimensionMismatchError{What: "contrast columns", Expected: 3, Actual: 2}, ErrDimensionMismatch},
		{&DegenerateTestError{Index: 1, Estimate: 0}, ErrDegenerateTest},
	}

	for _, e := range errs {
		wrapped := fmt.Errorf("context: %w", e.err)
		assert.ErrorIs(t, wrapped, e.target)
		assert.NotEmpty(t, e.err.Error(), "%T", e.err)
	}

	assert.NotErrorIs(t, &UnknownLevelError{}, ErrRankDeficient)
}
