package lm

import (
	"math"
	"testing"

	"github.com/kshedden/dstream/dstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/wkingc/general-linear-hypothesis/design"
	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// Three observations in each of three ordered groups.
func lmhData() (*design.Matrix, []float64) {
	labels := []string{"l", "l", "l", "m", "m", "m", "h", "h", "h"}
	y := []float64{0, 1, 2, 2, 3, 4, 5, 6, 7}
	f, err := design.NewFactor("level", "l", "m", "h")
	if err != nil {
		panic(err)
	}
	dm, err := design.BuildMatrix(labels, f)
	if err != nil {
		panic(err)
	}
	return dm, y
}

// An unbalanced design with a numeric covariate.
func mixedData() (*design.Matrix, []float64) {
	data := dstream.NewFromArrays([][]interface{}{
		{[]float64{3, 1, 5, 4, 2, 3, 6, 2, 8, 1}},
		{[]string{"a", "b", "a", "c", "b", "a", "c", "c", "a", "b"}},
		{[]float64{4, 1, -1, 3, 5, -5, 3, 2, 0, 1}},
	}, []string{"y", "g", "x"})
	spec := design.Spec{Outcome: "y", Predictors: []string{"g", "x"}}
	dm, y, err := spec.Build(data)
	if err != nil {
		panic(err)
	}
	return dm, y
}

type testprob struct {
	title  string
	data   func() (*design.Matrix, []float64)
	params []float64
	stderr []float64
	scale  float64
	df     int
}

var olsTests = []testprob{
	{
		title:  "Group means",
		data:   lmhData,
		params: []float64{1, 2, 5},
		stderr: []float64{math.Sqrt(1.0 / 3), math.Sqrt(2.0 / 3), math.Sqrt(2.0 / 3)},
		scale:  1,
		df:     6,
	},
}

func TestOLS(t *testing.T) {

	for _, ds := range olsTests {

		dm, y := ds.data()
		rslt, err := NewOLS(dm, y).Done().Fit()
		require.NoError(t, err, ds.title)

		if !floats.EqualApprox(rslt.Params(), ds.params, 1e-10) {
			t.Errorf("%s: params %v, want %v", ds.title, rslt.Params(), ds.params)
		}
		if !floats.EqualApprox(rslt.StdErr(), ds.stderr, 1e-10) {
			t.Errorf("%s: stderr %v, want %v", ds.title, rslt.StdErr(), ds.stderr)
		}
		if !scalar.EqualWithinAbs(rslt.Scale(), ds.scale, 1e-10) {
			t.Errorf("%s: scale %v, want %v", ds.title, rslt.Scale(), ds.scale)
		}
		if rslt.ResidDF() != ds.df {
			t.Errorf("%s: df %d, want %d", ds.title, rslt.ResidDF(), ds.df)
		}
	}
}

func TestOLSGroupMeans(t *testing.T) {

	dm, y := lmhData()
	rslt, err := NewOLS(dm, y).Done().Fit()
	require.NoError(t, err)

	if !scalar.EqualWithinAbs(rslt.RSquared(), 1-6.0/44, 1e-10) {
		t.Errorf("R-squared %v", rslt.RSquared())
	}
	if !scalar.EqualWithinAbs(rslt.AdjRSquared(), 1-(6.0/44)*8/6, 1e-10) {
		t.Errorf("adjusted R-squared %v", rslt.AdjRSquared())
	}

	f, _ := rslt.FStat()
	if !scalar.EqualWithinAbs(f, 19, 1e-9) {
		t.Errorf("F %v", f)
	}

	ll := -4.5 * (math.Log(2*math.Pi) + math.Log(6.0/9) + 1)
	if !scalar.EqualWithinAbs(rslt.LogLike(), ll, 1e-10) {
		t.Errorf("loglike %v, want %v", rslt.LogLike(), ll)
	}

	resid := []float64{-1, 0, 1, -1, 0, 1, -1, 0, 1}
	if !floats.EqualApprox(rslt.Resid(), resid, 1e-10) {
		t.Errorf("resid %v", rslt.Resid())
	}

	fv := rslt.FittedValues(nil)
	if !floats.EqualApprox(fv, []float64{1, 1, 1, 3, 3, 3, 6, 6, 6}, 1e-10) {
		t.Errorf("fitted values %v", fv)
	}
}

// The residuals are orthogonal to the columns of the design.
func TestOLSNormalEquations(t *testing.T) {

	for _, data := range []func() (*design.Matrix, []float64){lmhData, mixedData} {

		dm, y := data()
		rslt, err := NewOLS(dm, y).Done().Fit()
		require.NoError(t, err)

		var xtr mat.VecDense
		xtr.MulVec(dm.X.T(), mat.NewVecDense(len(y), rslt.Resid()))

		for j := 0; j < xtr.Len(); j++ {
			if math.Abs(xtr.AtVec(j)) > 1e-10 {
				t.Errorf("X'r[%d] = %v", j, xtr.AtVec(j))
			}
		}
	}
}

// The covariance agrees with scale * inverse(X'X) formed directly.
func TestOLSCovariance(t *testing.T) {

	dm, y := mixedData()
	model := NewOLS(dm, y).Done()
	rslt, err := model.Fit()
	require.NoError(t, err)

	var xtx, xtxi mat.Dense
	xtx.Mul(dm.X.T(), dm.X)
	require.NoError(t, xtxi.Inverse(&xtx))

	if !mat.EqualApprox(rslt.XTXInv(), &xtxi, 1e-10) {
		t.Errorf("XTXInv\n%v\nwant\n%v", mat.Formatted(rslt.XTXInv()), mat.Formatted(&xtxi))
	}

	xtxi.Scale(rslt.Scale(), &xtxi)
	if !mat.EqualApprox(rslt.Covariance(), &xtxi, 1e-10) {
		t.Errorf("covariance\n%v\nwant\n%v", mat.Formatted(rslt.Covariance()), mat.Formatted(&xtxi))
	}

	// VCov is the covariance in row-major order.
	cv := mat.DenseCopyOf(rslt.Covariance())
	if !floats.EqualApprox(rslt.VCov(), cv.RawMatrix().Data, 1e-12) {
		t.Errorf("VCov does not match Covariance")
	}

	if !scalar.EqualWithinAbs(model.EstimateScale(rslt.Params()), rslt.Scale(), 1e-10) {
		t.Errorf("EstimateScale %v, Scale %v", model.EstimateScale(rslt.Params()), rslt.Scale())
	}
}

func TestOLSRankDeficient(t *testing.T) {

	// The third column is the sum of the first two.
	x := mat.NewDense(5, 3, []float64{
		1, 0, 1,
		1, 1, 2,
		1, 0, 1,
		1, 1, 2,
		1, 0, 1,
	})
	dm := &design.Matrix{X: x, Names: []string{"a", "b", "c"}}
	y := []float64{1, 2, 3, 4, 5}

	_, err := NewOLS(dm, y).Done().Fit()
	require.ErrorIs(t, err, statmodel.ErrRankDeficient)
	var rde *statmodel.RankDeficientError
	require.ErrorAs(t, err, &rde)
	assert.Equal(t, 2, rde.Rank)
	assert.Equal(t, 2, rde.Column)

	// Too few observations.
	dm, _ = lmhData()
	small := &design.Matrix{X: mat.DenseCopyOf(dm.X.Slice(0, 3, 0, 3)), Names: dm.Names}
	_, err = NewOLS(small, y[:3]).Done().Fit()
	require.ErrorAs(t, err, &rde)
	assert.Equal(t, -1, rde.Rank)
}

func TestOLSDimensionMismatch(t *testing.T) {

	dm, y := lmhData()
	_, err := NewOLS(dm, y[:5]).Done().Fit()
	assert.ErrorIs(t, err, statmodel.ErrDimensionMismatch)
}

func TestOLSSummary(t *testing.T) {

	dm, y := lmhData()
	rslt, err := NewOLS(dm, y).YName("outcome").Done().Fit()
	require.NoError(t, err)

	s := rslt.Summary().Message("Simulated data").String()
	for _, w := range []string{"Linear model analysis", "outcome", "level[T.m]", "(Intercept)", "Simulated data"} {
		assert.Contains(t, s, w)
	}
}
