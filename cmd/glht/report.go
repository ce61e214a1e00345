package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wkingc/general-linear-hypothesis/glht"
	"github.com/wkingc/general-linear-hypothesis/lm"
	"github.com/wkingc/general-linear-hypothesis/simulate"
	"github.com/wkingc/general-linear-hypothesis/statmodel"
)

// report runs the analysis described by cfg and writes the text report
// to out.  CSV and plot files are written when their paths are set.
func report(cfg *Config, out io.Writer, logger *zap.Logger) (*glht.Table, error) {

	data, err := loadData(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer data.Close()

	dm, y, err := cfg.Spec().Build(data)
	if err != nil {
		return nil, fmt.Errorf("building design: %w", err)
	}

	gs, err := simulate.Describe(data, cfg.Model.Outcome, cfg.Model.Factor, cfg.Model.Levels)
	if err != nil {
		return nil, err
	}
	title := "Simulated data"
	if cfg.Data != "" {
		title = "Data from " + cfg.Data
	}
	fmt.Fprint(out, describe(title, gs))
	fmt.Fprintln(out)

	rslt, err := lm.NewOLS(dm, y).Log(logger).YName(cfg.Model.Outcome).Done().Fit()
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}
	fmt.Fprint(out, rslt.Summary().Level(cfg.Level).String())
	fmt.Fprintln(out)

	tester := glht.NewTester(rslt).Log(logger).Done()
	tb := glht.NewTable().Log(logger).Methods(cfg.FWER, cfg.FDR)
	for i := range cfg.Contrasts {
		cc := &cfg.Contrasts[i]

		c, err := cc.contrasts(dm, cfg.Model.Factor)
		if err != nil {
			return nil, fmt.Errorf("contrasts %q: %w", cc.Name, err)
		}
		if err := tb.Add(rslt, c); err != nil {
			return nil, err
		}

		if cc.FTest {
			ft, err := tester.FTest(c)
			if err != nil {
				logger.Warn("joint test failed", zap.String("contrasts", cc.Name), zap.Error(err))
				continue
			}
			fmt.Fprintf(out, "Joint test of %q: F(%d, %d) = %.4f, p = %s\n",
				cc.Name, ft.DF1, ft.DF2, ft.F, strings.TrimSpace(statmodel.FmtPValues([]float64{ft.PValue}, "")[0]))
		}
	}
	fmt.Fprintln(out)

	if err := tb.Adjust(); err != nil {
		return nil, err
	}
	fmt.Fprint(out, tb.Summary())

	var nfw, nfd int
	for _, r := range tb.Rows {
		if r.PFWER <= cfg.Alpha {
			nfw++
		}
		if r.PFDR <= cfg.Alpha {
			nfd++
		}
	}
	fmt.Fprintf(out, "Rejected at alpha = %g: %d (%s), %d (%s) of %d.\n",
		cfg.Alpha, nfw, cfg.FWER, nfd, cfg.FDR, len(tb.Rows))

	if err := writeOutputs(cfg, tb, logger); err != nil {
		return nil, err
	}

	return tb, nil
}

func writeOutputs(cfg *Config, tb *glht.Table, logger *zap.Logger) error {

	if fn := cfg.Output.CSV; fn != "" {
		f, err := os.Create(fn)
		if err != nil {
			return err
		}
		if err := tb.WriteCSV(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", fn, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("wrote table", zap.String("path", fn))
	}

	if fn := cfg.Output.Plot; fn != "" {
		ip, err := glht.NewIntervalPlotter().Level(cfg.Level).Add(tb.Hypotheses()).Plot()
		if err != nil {
			return err
		}
		if err := ip.Save(fn); err != nil {
			return fmt.Errorf("writing %s: %w", fn, err)
		}
		logger.Info("wrote plot", zap.String("path", fn))
	}

	return nil
}

// describe renders the per-group summary statistics.
func describe(title string, gs []simulate.GroupStats) string {

	lv := make([]string, len(gs))
	n := make([]string, len(gs))
	mn := make([]float64, len(gs))
	sd := make([]float64, len(gs))
	for i, g := range gs {
		lv[i] = g.Level
		n[i] = strconv.Itoa(g.N)
		mn[i] = g.Mean
		sd[i] = g.SD
	}

	tab := &statmodel.SummaryTable{
		Title:    title,
		ColNames: []string{"Level  ", "N", "Mean", "SD"},
		ColFmt:   []statmodel.Fmter{statmodel.FmtStrings, statmodel.FmtStrings, statmodel.FmtFloats, statmodel.FmtFloats},
		Cols:     []interface{}{lv, n, mn, sd},
	}

	return tab.String()
}
