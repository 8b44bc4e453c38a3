package observations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/errs"
)

// missingMarkers are the tokens loader.go treats as "no observation for this
// bin" rather than a literal numeric value.
var missingMarkers = map[string]bool{"": true, "NA": true, "na": true, "NaN": true}

// Load reads cfg's ground-truth CSV (cfg.Inference.GTDataPath) and returns a
// Bundle joined against cfg's declared subpopulations and fitting targets,
// with a synthesized "Total" series. The expected columns are "date",
// "subpop", and one column per TargetConfig.DataColumn; any row naming a
// subpop not in cfg.Subpopulations is rejected as an observation error
// (spec.md §6.3's join/validation contract), since a silently-ignored row
// would make the likelihood evaluate against a set of bins narrower than
// the analyst expects.
func Load(cfg *config.Config) (Bundle, error) {
	f, err := os.Open(cfg.Inference.GTDataPath)
	if err != nil {
		return Bundle{}, errs.New(errs.KindObservation, fmt.Errorf("opening ground truth data: %w", err))
	}
	defer f.Close()

	bundle, err := parse(f, cfg)
	if err != nil {
		return Bundle{}, errs.New(errs.KindObservation, err)
	}
	return bundle.withTotal(), nil
}

func parse(r io.Reader, cfg *config.Config) (Bundle, error) {
	known := map[string]bool{}
	for _, sp := range cfg.Subpopulations {
		known[sp.ID] = true
	}
	wantColumns := map[string]bool{}
	for _, t := range cfg.Inference.Statistics {
		wantColumns[t.DataColumn] = true
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return Bundle{}, fmt.Errorf("reading header: %w", err)
	}
	colIndex := map[string]int{}
	for i, h := range header {
		colIndex[h] = i
	}
	dateIdx, ok := colIndex["date"]
	if !ok {
		return Bundle{}, fmt.Errorf("ground truth data missing required %q column", "date")
	}
	subpopIdx, ok := colIndex["subpop"]
	if !ok {
		return Bundle{}, fmt.Errorf("ground truth data missing required %q column", "subpop")
	}

	bundle := Bundle{Series: map[string]map[string]Series{}}

	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Bundle{}, fmt.Errorf("row %d: %w", rowNum, err)
		}
		rowNum++

		subpop := row[subpopIdx]
		if !known[subpop] {
			return Bundle{}, fmt.Errorf("row %d: unknown subpop %q", rowNum, subpop)
		}
		date, err := time.Parse("2006-01-02", row[dateIdx])
		if err != nil {
			return Bundle{}, fmt.Errorf("row %d: invalid date %q: %w", rowNum, row[dateIdx], err)
		}

		if _, ok := bundle.Series[subpop]; !ok {
			bundle.Series[subpop] = map[string]Series{}
		}
		for column := range wantColumns {
			idx, ok := colIndex[column]
			if !ok {
				return Bundle{}, fmt.Errorf("ground truth data missing expected column %q", column)
			}
			raw := row[idx]
			series := bundle.Series[subpop][column]
			series.Dates = append(series.Dates, date)
			if missingMarkers[raw] {
				series.Values = append(series.Values, 0)
				series.Missing = append(series.Missing, true)
			} else {
				val, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return Bundle{}, fmt.Errorf("row %d: column %q: %w", rowNum, column, err)
				}
				series.Values = append(series.Values, val)
				series.Missing = append(series.Missing, false)
			}
			bundle.Series[subpop][column] = series
		}
	}

	return bundle, nil
}
