package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	runsHeader      = []string{"run_id", "created", "portfolio", "portfolio_size", "total_exposure", "asset_corr", "scenarios", "seed", "workers", "el_mc", "el_exact", "loss_std", "elapsed_ms", "notes"}
	scenariosHeader = []string{"run_id", "scenario", "loss", "loss_rate", "defaults"}
	measuresHeader  = []string{"run_id", "confidence", "var", "es", "unexpected_loss"}
)

// CSV writes runs, scenarios and risk measures to three flat files.
type CSV struct {
	runs      *csv.Writer
	scenarios *csv.Writer
	measures  *csv.Writer
	files     []*os.File
}

func NewCSV(runsPath, scenariosPath, measuresPath string) (*CSV, error) {
	j := &CSV{}
	writers := []**csv.Writer{&j.runs, &j.scenarios, &j.measures}
	headers := [][]string{runsHeader, scenariosHeader, measuresHeader}

	for i, path := range []string{runsPath, scenariosPath, measuresPath} {
		fh, err := os.Create(path)
		if err != nil {
			j.closeFiles()
			return nil, err
		}
		j.files = append(j.files, fh)
		*writers[i] = csv.NewWriter(fh)
	}

	for i, w := range writers {
		if err := j.write(*w, headers[i]); err != nil {
			j.closeFiles()
			return nil, err
		}
	}
	return j, nil
}

// RecordRun writes the run row and one measures row per tail.
func (j *CSV) RecordRun(_ context.Context, r RunRecord) error {
	for _, t := range r.Tails {
		err := j.measures.Write([]string{
			r.RunID,
			strconv.FormatFloat(t.Confidence, 'g', -1, 64),
			f(t.VaR),
			f(t.ES),
			f(t.UnexpectedLoss),
		})
		if err != nil {
			return err
		}
	}
	j.measures.Flush()
	if err := j.measures.Error(); err != nil {
		return err
	}

	return j.write(j.runs, []string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Portfolio,
		strconv.Itoa(r.PortfolioSize),
		f(r.TotalExposure),
		f(r.AssetCorr),
		strconv.Itoa(r.Scenarios),
		strconv.FormatUint(r.Seed, 10),
		strconv.Itoa(r.Workers),
		f(r.ExpectedLossMC),
		f(r.ExpectedLossExact),
		f(r.LossStdDev),
		f(r.ElapsedMS),
		strings.Join(r.Notes, "\n"),
	})
}

func (j *CSV) RecordScenarios(ctx context.Context, runID string, scenarios []ScenarioRecord) error {
	for _, s := range scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := j.scenarios.Write([]string{
			runID,
			strconv.Itoa(s.Scenario),
			f(s.Loss),
			strconv.FormatFloat(s.LossRate, 'g', -1, 64),
			strconv.Itoa(s.Defaults),
		})
		if err != nil {
			return err
		}
	}
	j.scenarios.Flush()
	return j.scenarios.Error()
}

// Record writes the scenarios before the run row. Files cannot be rolled
// back, but a run row is only present once all of its scenarios are.
func (j *CSV) Record(ctx context.Context, r RunRecord, scenarios []ScenarioRecord) error {
	if err := j.RecordScenarios(ctx, r.RunID, scenarios); err != nil {
		return err
	}
	return j.RecordRun(ctx, r)
}

func (j *CSV) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) Close() error {
	for _, w := range []*csv.Writer{j.runs, j.scenarios, j.measures} {
		w.Flush()
		if err := w.Error(); err != nil {
			j.closeFiles()
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSV) closeFiles() error {
	var first error
	for _, fh := range j.files {
		if err := fh.Close(); err != nil && first == nil {
			first = err
		}
	}
	j.files = nil
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
