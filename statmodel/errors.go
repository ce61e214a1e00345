package statmodel

import (
	"errors"
	"fmt"
)

// Sentinel values for matching the typed errors below with errors.Is.
var (
	ErrUnknownLevel      = errors.New("unknown factor level")
	ErrRankDeficient     = errors.New("design matrix is rank deficient")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrDegenerateTest    = errors.New("degenerate test")
)

// UnknownLevelError is returned when a categorical value is not one of the
// declared levels of its factor.
type UnknownLevelError struct {
	Factor string
	Row    int
	Label  string
	Levels []string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("factor %q, row %d: level %q is not one of %v", e.Factor, e.Row, e.Label, e.Levels)
}

// Is reports whether target is ErrUnknownLevel.
func (e *UnknownLevelError) Is(target error) bool {
	return target == ErrUnknownLevel
}

// RankDeficientError is returned when a design matrix does not have full
// column rank, or has no more rows than columns.
type RankDeficientError struct {
	NumObs    int
	NumParams int

	// Rank is the numerical rank detected, or -1 if the rank was not
	// computed because NumObs <= NumParams.
	Rank int

	// Column is the first column found to be linearly dependent on the
	// preceding columns, or -1.
	Column int
}

func (e *RankDeficientError) Error() string {
	if e.Rank < 0 {
		return fmt.Sprintf("design matrix is %dx%d, need more observations than parameters", e.NumObs, e.NumParams)
	}
	return fmt.Sprintf("design matrix is %dx%d with rank %d, column %d is linearly dependent",
		e.NumObs, e.NumParams, e.Rank, e.Column)
}

// Is reports whether target is ErrRankDeficient.
func (e *RankDeficientError) Is(target error) bool {
	return target == ErrRankDeficient
}

// DimensionMismatchError is returned when two operands do not conform.
type DimensionMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// DegenerateTestError marks a single hypothesis whose standard error is
// zero, so that no test statistic is defined.  It does not abort the other
// hypotheses tested alongside it.
type DegenerateTestError struct {
	Index    int
	Label    string
	Estimate float64
}

func (e *DegenerateTestError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("hypothesis %d (%s): standard error is zero (estimate=%g), test is undefined",
			e.Index, e.Label, e.Estimate)
	}
	return fmt.Sprintf("hypothesis %d: standard error is zero (estimate=%g), test is undefined", e.Index, e.Estimate)
}

// Is reports whether target is ErrDegenerateTest.
func (e *DegenerateTestError) Is(target error) bool {
	return target == ErrDegenerateTest
}
