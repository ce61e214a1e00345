package glht

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/wkingc/general-linear-hypothesis/multitest"
	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// Row is one hypothesis of a Table together with its adjusted p-values.
type Row struct {
	Hypothesis

	// Family is the name of the contrast matrix the row came from.
	Family string

	// PFWER and PFDR are the p-values adjusted for the family-wise error
	// rate and the false discovery rate over the whole table.  They are
	// NaN until Adjust is called, and stay NaN for undefined tests.
	PFWER float64
	PFDR  float64
}

// Table collects hypotheses from one or more contrast matrices so that
// their p-values can be adjusted jointly.
type Table struct {
	Rows []Row

	fwer multitest.Method
	fdr  multitest.Method

	// Number of p-values in the last adjustment
	m int

	adjusted bool

	log *zap.Logger
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		fwer: multitest.Bonferroni,
		fdr:  multitest.BH,
		log:  zap.NewNop(),
	}
}

// Log sets the logger.
func (tb *Table) Log(log *zap.Logger) *Table {
	tb.log = log
	return tb
}

// Methods sets the FWER and FDR adjustment methods.  The defaults are
// Bonferroni and Benjamini-Hochberg.
func (tb *Table) Methods(fwer, fdr multitest.Method) *Table {
	tb.fwer = fwer
	tb.fdr = fdr
	return tb
}

// Add tests every row of c against the fitted model and appends the
// results to the table.  Adding rows invalidates a previous adjustment.
func (tb *Table) Add(model Fitted, c *Contrasts) error {

	hyp, err := NewTester(model).Log(tb.log).Done().Test(c)
	if err != nil {
		return fmt.Errorf("contrasts %q: %w", c.Name, err)
	}

	tb.AddHypotheses(c.Name, hyp)

	return nil
}

// AddHypotheses appends already tested hypotheses under the given family
// name.
func (tb *Table) AddHypotheses(family string, hyp []Hypothesis) *Table {
	for _, h := range hyp {
		tb.Rows = append(tb.Rows, Row{
			Hypothesis: h,
			Family:     family,
			PFWER:      math.NaN(),
			PFDR:       math.NaN(),
		})
	}
	tb.adjusted = false
	return tb
}

// Adjust computes the adjusted p-values jointly over every row of the
// table with a defined test.
func (tb *Table) Adjust() error {

	var pv []float64
	var ix []int
	for i, r := range tb.Rows {
		if r.Undefined() {
			continue
		}
		pv = append(pv, r.PValue)
		ix = append(ix, i)
	}

	tb.m = len(pv)
	if tb.m == 0 {
		return fmt.Errorf("glht: no defined tests to adjust")
	}

	fw, err := multitest.Adjust(pv, tb.fwer)
	if err != nil {
		return err
	}
	fd, err := multitest.Adjust(pv, tb.fdr)
	if err != nil {
		return err
	}

	for k, i := range ix {
		tb.Rows[i].PFWER = fw[k]
		tb.Rows[i].PFDR = fd[k]
	}
	tb.adjusted = true

	tb.log.Debug("adjusted p-values",
		zap.Int("m", tb.m),
		zap.Stringer("fwer", tb.fwer),
		zap.Stringer("fdr", tb.fdr))

	return nil
}

// Hypotheses returns the tested hypotheses in table order.
func (tb *Table) Hypotheses() []Hypothesis {
	h := make([]Hypothesis, len(tb.Rows))
	for i, r := range tb.Rows {
		h[i] = r.Hypothesis
	}
	return h
}

// Summary returns a text table of the hypotheses.
func (tb *Table) Summary() string {

	n := len(tb.Rows)
	fam := make([]string, n)
	lab := make([]string, n)
	est := make([]float64, n)
	se := make([]float64, n)
	tv := make([]float64, n)
	pv := make([]float64, n)
	pfw := make([]float64, n)
	pfd := make([]float64, n)

	var undefined int
	for i, r := range tb.Rows {
		fam[i] = r.Family
		lab[i] = r.Label
		est[i] = r.Estimate.Estimate
		se[i] = r.StdErr
		tv[i] = r.TStat
		pv[i] = r.PValue
		pfw[i] = r.PFWER
		pfd[i] = r.PFDR
		if r.Undefined() {
			undefined++
		}
	}

	sum := &statmodel.SummaryTable{
		Title: "Simultaneous tests for general linear hypotheses",
		ColNames: []string{"Family  ", "Hypothesis  ", "Estimate", "SE", "t-value", "P-value",
			"P(" + tb.fwer.String() + ")", "P(" + tb.fdr.String() + ")"},
		ColFmt: []statmodel.Fmter{statmodel.FmtStrings, statmodel.FmtStrings, statmodel.FmtFloats,
			statmodel.FmtFloats, statmodel.FmtFloats, statmodel.FmtPValues, statmodel.FmtPValues, statmodel.FmtPValues},
		Cols: []interface{}{fam, lab, est, se, tv, pv, pfw, pfd},
	}

	if n > 0 {
		sum.Top = []string{
			fmt.Sprintf("Hypotheses: %d", n),
			fmt.Sprintf("Resid DF:   %d", tb.Rows[0].DF),
		}
	}

	if tb.adjusted {
		sum.Msg = append(sum.Msg, fmt.Sprintf("P-values adjusted jointly over %d hypotheses.", tb.m))
	} else {
		sum.Msg = append(sum.Msg, "P-values not adjusted.")
	}
	if undefined > 0 {
		sum.Msg = append(sum.Msg, fmt.Sprintf("%d hypotheses have zero standard error and are undefined (NA).", undefined))
	}

	return sum.String()
}

// WriteCSV writes the table with a header row.  Undefined values are
// written as "NA".
func (tb *Table) WriteCSV(w io.Writer) error {

	cw := csv.NewWriter(w)

	header := []string{"family", "hypothesis", "estimate", "std_error", "null", "t_value", "df", "p_value",
		"p_" + tb.fwer.String(), "p_" + tb.fdr.String()}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range tb.Rows {
		rec := []string{
			r.Family,
			r.Label,
			fmtCSV(r.Estimate.Estimate),
			fmtCSV(r.StdErr),
			fmtCSV(r.Null),
			fmtCSV(r.TStat),
			strconv.Itoa(r.DF),
			fmtCSV(r.PValue),
			fmtCSV(r.PFWER),
			fmtCSV(r.PFDR),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtCSV(x float64) string {
	if math.IsNaN(x) {
		return "NA"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
