package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/kshedden/dstream/dstream"
	"go.uber.org/zap"

	"github.com/wkingc/general-linear-hypothesis/simulate"
)

// loadData returns the data to analyze: the CSV file named in the
// configuration if there is one, otherwise a simulated sample.
func loadData(cfg *Config, logger *zap.Logger) (dstream.Dstream, error) {

	if cfg.Data == "" {
		ow := cfg.OneWay()
		data, err := simulate.OneWay(ow)
		if err != nil {
			return nil, err
		}
		logger.Info("simulated data",
			zap.Uint64("seed", ow.Seed),
			zap.Int("n", data.NumObs()))
		return data, nil
	}

	data, err := readCSV(cfg.Data, cfg.Model.Outcome, cfg.Model.Factor)
	if err != nil {
		return nil, err
	}
	logger.Info("read data",
		zap.String("path", cfg.Data),
		zap.Int("n", data.NumObs()))

	return data, nil
}

// readCSV reads the outcome and factor columns from a CSV file with a
// header row.  Outcome values that do not parse as numbers are read as
// NaN.
func readCSV(path, outcome, factor string) (data dstream.Dstream, err error) {

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	// The stream reader maps columns missing from the header onto the
	// first column, so the header is checked here.
	header, err := csv.NewReader(bytes.NewReader(b)).Read()
	if err != nil {
		return nil, fmt.Errorf("data %s: %w", path, err)
	}
	for _, na := range []string{outcome, factor} {
		found := false
		for _, h := range header {
			if h == na {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("data %s: no column %q", path, na)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("data %s: %v", path, r)
		}
	}()

	types := []dstream.VarType{
		{Name: outcome, Type: dstream.Float64},
		{Name: factor, Type: dstream.String},
	}
	rdr := dstream.FromCSV(bytes.NewReader(b)).SetTypes(types).HasHeader().Done()

	return dstream.MemCopy(rdr, false), nil
}
