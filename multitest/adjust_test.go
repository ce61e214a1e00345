package multitest

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestAdjustValues(t *testing.T) {

	pvals := []float64{0.02, 0.03, 0.04, 0.10}

	tests := []struct {
		method Method
		want   []float64
	}{
		{Bonferroni, []float64{0.08, 0.12, 0.16, 0.40}},
		{BH, []float64{0.16 / 3, 0.16 / 3, 0.16 / 3, 0.10}},
		{Holm, []float64{0.08, 0.09, 0.09, 0.10}},
	}

	for _, tt := range tests {
		got, err := Adjust(pvals, tt.method)
		require.NoError(t, err)
		if !floats.EqualApprox(got, tt.want, 1e-12) {
			t.Errorf("%v: got %v, want %v", tt.method, got, tt.want)
		}
	}
}

// Output order follows input order, not p-value order.
func TestAdjustOrder(t *testing.T) {

	pvals := []float64{0.10, 0.04, 0.02, 0.03}

	got, err := Adjust(pvals, BH)
	require.NoError(t, err)
	if want := []float64{0.10, 0.16 / 3, 0.16 / 3, 0.16 / 3}; !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("BH: got %v, want %v", got, want)
	}

	// Values from R: p.adjust(c(0.01, 0.04, 0.03, 0.005), "BH")
	got, err = Adjust([]float64{0.01, 0.04, 0.03, 0.005}, BH)
	require.NoError(t, err)
	if want := []float64{0.02, 0.04, 0.04, 0.02}; !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("BH: got %v, want %v", got, want)
	}

	// Values from R: p.adjust(c(0.01, 0.04, 0.03, 0.005), "holm")
	got, err = Adjust([]float64{0.01, 0.04, 0.03, 0.005}, Holm)
	require.NoError(t, err)
	if want := []float64{0.03, 0.06, 0.06, 0.02}; !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("Holm: got %v, want %v", got, want)
	}
}

func TestAdjustSingle(t *testing.T) {
	for _, m := range []Method{Bonferroni, Holm, BH} {
		for _, p := range []float64{0, 0.0371, 0.5, 1} {
			got, err := Adjust([]float64{p}, m)
			require.NoError(t, err)
			if got[0] != p {
				t.Errorf("%v: got %v, want %v", m, got[0], p)
			}
		}
	}
}

// Adjusted values lie in [0, 1], are at least the raw values, and the BH
// values are non-decreasing in the raw p-values.
func TestAdjustProperties(t *testing.T) {

	rng := rand.New(rand.NewPCG(1, 2))

	for rep := 0; rep < 50; rep++ {

		m := 1 + rng.IntN(30)
		pvals := make([]float64, m)
		for i := range pvals {
			// Mix of small and large p-values
			pvals[i] = math.Pow(rng.Float64(), 1+3*rng.Float64())
		}

		for _, method := range []Method{Bonferroni, Holm, BH} {
			adj, err := Adjust(pvals, method)
			require.NoError(t, err)
			for i := range adj {
				if adj[i] < 0 || adj[i] > 1 {
					t.Errorf("%v: adjusted value %v out of range", method, adj[i])
				}
				if adj[i] < pvals[i] {
					t.Errorf("%v: adjusted %v smaller than raw %v", method, adj[i], pvals[i])
				}
			}

			if method == Bonferroni {
				continue
			}
			ix := make([]int, m)
			for i := range ix {
				ix[i] = i
			}
			sort.Slice(ix, func(a, b int) bool { return pvals[ix[a]] < pvals[ix[b]] })
			for k := 1; k < m; k++ {
				if adj[ix[k]] < adj[ix[k-1]] {
					t.Errorf("%v: not monotone at rank %d", method, k)
				}
			}
		}
	}
}

func TestAdjustInvalid(t *testing.T) {

	bad := [][]float64{
		nil,
		{0.1, math.NaN()},
		{0.1, 1.5},
		{-0.01},
	}

	for _, p := range bad {
		_, err := Adjust(p, BH)
		assert.Error(t, err, "%v", p)
	}

	_, err := Adjust([]float64{0.1}, Method(17))
	assert.Error(t, err, "unknown method")
}

func TestParseMethod(t *testing.T) {

	for name, want := range map[string]Method{
		"bonferroni": Bonferroni,
		"Holm":       Holm,
		"fdr":        BH,
		"BH":         BH,
	} {
		got, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseMethod("tukey")
	assert.Error(t, err)

	var m Method
	require.NoError(t, m.UnmarshalText([]byte("holm")))
	assert.Equal(t, Holm, m)
	b, err := FDR.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "fdr", string(b))
}
