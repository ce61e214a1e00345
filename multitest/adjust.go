// Package multitest adjusts p-values for multiple comparisons.
//
// Adjusted p-values are computed jointly over every p-value passed in one
// call, so a batch built from several families of hypotheses must be
// adjusted in a single call.  Output order always matches input order.
package multitest

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Method is a multiple comparison adjustment procedure.
type Method int

// Bonferroni and Holm control the family-wise error rate, BH
// (Benjamini-Hochberg) controls the false discovery rate.
const (
	Bonferroni Method = iota
	Holm
	BH
)

// FDR is an alias for the Benjamini-Hochberg procedure.
const FDR = BH

func (m Method) String() string {
	switch m {
	case Bonferroni:
		return "bonferroni"
	case Holm:
		return "holm"
	case BH:
		return "fdr"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod returns the method with the given name.  Recognized names
// are "bonferroni", "holm", and "fdr" or "bh", in any case.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bonferroni":
		return Bonferroni, nil
	case "holm":
		return Holm, nil
	case "fdr", "bh", "benjamini-hochberg":
		return BH, nil
	}
	return 0, fmt.Errorf("unknown adjustment method %q", name)
}

// UnmarshalText implements encoding.TextUnmarshaler so that methods can be
// read from configuration files.
func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Adjust returns the adjusted p-values for pvals using the given method.
// The p-values must lie in [0, 1].  A single p-value is returned
// unchanged by every method.
func Adjust(pvals []float64, method Method) ([]float64, error) {

	if len(pvals) == 0 {
		return nil, fmt.Errorf("multitest: no p-values")
	}
	for i, p := range pvals {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("multitest: p-value %d is %v, not in [0, 1]", i, p)
		}
	}

	switch method {
	case Bonferroni:
		return bonferroni(pvals), nil
	case Holm:
		return holm(pvals), nil
	case BH:
		return benjaminiHochberg(pvals), nil
	}

	return nil, fmt.Errorf("multitest: unknown method %v", method)
}

func bonferroni(pvals []float64) []float64 {
	m := float64(len(pvals))
	adj := make([]float64, len(pvals))
	for i, p := range pvals {
		adj[i] = math.Min(1, m*p)
	}
	return adj
}

// order returns the indices of pvals sorted by ascending p-value.  Ties
// keep their input order.
func order(pvals []float64) []int {
	ix := make([]int, len(pvals))
	for i := range ix {
		ix[i] = i
	}
	sort.SliceStable(ix, func(a, b int) bool {
		return pvals[ix[a]] < pvals[ix[b]]
	})
	return ix
}

// holm applies the step-down procedure of Holm (1979): the r'th smallest
// p-value is multiplied by m-r+1, followed by a running maximum from the
// smallest rank up.
func holm(pvals []float64) []float64 {

	m := len(pvals)
	ix := order(pvals)
	adj := make([]float64, m)

	var cmax float64
	for r, i := range ix {
		v := math.Min(1, float64(m-r)*pvals[i])
		cmax = math.Max(cmax, v)
		adj[i] = cmax
	}

	return adj
}

// benjaminiHochberg applies the step-up procedure of Benjamini and
// Hochberg (1995): the r'th smallest p-value is multiplied by m/r,
// followed by a running minimum from the largest rank down.
func benjaminiHochberg(pvals []float64) []float64 {

	m := len(pvals)
	ix := order(pvals)
	adj := make([]float64, m)

	cmin := math.Inf(1)
	for r := m - 1; r >= 0; r-- {
		i := ix[r]
		v := pvals[i] * float64(m) / float64(r+1)
		cmin = math.Min(cmin, v)
		adj[i] = math.Max(0, math.Min(1, cmin))
	}

	return adj
}
