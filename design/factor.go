// Package design builds numeric design matrices for linear models from
// categorical and numeric columns.
//
// A categorical predictor is held as a Factor, an ordered set of levels
// whose first element is the reference level.  The reference level is
// absorbed into the intercept and contributes no column of its own; each
// remaining level gets a 0/1 indicator column (treatment or dummy coding).
package design

import (
	"fmt"
	"sort"
)

// Factor is an ordered, immutable set of category labels.  The first
// level is the reference level.
type Factor struct {
	name   string
	levels []string
	index  map[string]int
}

// NewFactor returns a factor with the given name and levels.  The first
// level is the reference.  Levels must be non-empty and distinct.
func NewFactor(name string, levels ...string) (*Factor, error) {

	if len(levels) == 0 {
		return nil, fmt.Errorf("factor %q: no levels", name)
	}

	f := &Factor{
		name:   name,
		levels: make([]string, len(levels)),
		index:  make(map[string]int, len(levels)),
	}
	copy(f.levels, levels)

	for i, lv := range f.levels {
		if _, ok := f.index[lv]; ok {
			return nil, fmt.Errorf("factor %q: duplicate level %q", name, lv)
		}
		f.index[lv] = i
	}

	return f, nil
}

// FactorFromData returns a factor whose levels are the distinct values
// of labels in sorted order, so the alphabetically first label is the
// reference level.
func FactorFromData(name string, labels []string) (*Factor, error) {

	seen := make(map[string]bool)
	var levels []string
	for _, x := range labels {
		if !seen[x] {
			seen[x] = true
			levels = append(levels, x)
		}
	}
	sort.Strings(levels)

	return NewFactor(name, levels...)
}

// Name returns the name of the factor.
func (f *Factor) Name() string {
	return f.name
}

// Levels returns a copy of the levels in order.
func (f *Factor) Levels() []string {
	lv := make([]string, len(f.levels))
	copy(lv, f.levels)
	return lv
}

// NumLevels returns the number of levels.
func (f *Factor) NumLevels() int {
	return len(f.levels)
}

// Reference returns the reference level.
func (f *Factor) Reference() string {
	return f.levels[0]
}

// Index returns the position of label in the level set.
func (f *Factor) Index(label string) (int, bool) {
	i, ok := f.index[label]
	return i, ok
}

// Relevel returns a new factor with ref moved to the front.  The relative
// order of the other levels is kept.
func (f *Factor) Relevel(ref string) (*Factor, error) {

	if _, ok := f.index[ref]; !ok {
		return nil, fmt.Errorf("factor %q: reference level %q is not one of %v", f.name, ref, f.levels)
	}

	levels := []string{ref}
	for _, lv := range f.levels {
		if lv != ref {
			levels = append(levels, lv)
		}
	}

	return NewFactor(f.name, levels...)
}

// ColumnNames returns the names of the indicator columns for the
// non-reference levels, e.g. "group[T.m]".
func (f *Factor) ColumnNames() []string {
	var na []string
	for _, lv := range f.levels[1:] {
		na = append(na, fmt.Sprintf("%s[T.%s]", f.name, lv))
	}
	return na
}
