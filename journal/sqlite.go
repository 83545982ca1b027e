package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/merton/risk"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordRun stores the run summary and its tail measures.
func (j *SQLite) RecordRun(ctx context.Context, r RunRecord) error {
	return j.inTx(ctx, func(tx *sql.Tx) error {
		return insertRun(ctx, tx, r)
	})
}

// RecordScenarios stores per-scenario losses in one transaction.
func (j *SQLite) RecordScenarios(ctx context.Context, runID string, scenarios []ScenarioRecord) error {
	err := j.inTx(ctx, func(tx *sql.Tx) error {
		return insertScenarios(ctx, tx, runID, scenarios)
	})
	if err != nil {
		return err
	}
	log.WithField("run_id", runID).Debugf("recorded %d scenarios", len(scenarios))
	return nil
}

// Record stores a run and its scenarios in one transaction. On error nothing
// of the run is kept.
func (j *SQLite) Record(ctx context.Context, r RunRecord, scenarios []ScenarioRecord) error {
	err := j.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, r); err != nil {
			return err
		}
		return insertScenarios(ctx, tx, r.RunID, scenarios)
	})
	if err != nil {
		return err
	}
	log.WithField("run_id", r.RunID).Debugf("recorded run with %d scenarios", len(scenarios))
	return nil
}

func (j *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRun(ctx context.Context, tx *sql.Tx, r RunRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, portfolio, portfolio_size, total_exposure, asset_corr, scenarios, seed,
		 workers, el_mc, el_exact, loss_std, elapsed_ms, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Portfolio, r.PortfolioSize, r.TotalExposure, r.AssetCorr, r.Scenarios,
		strconv.FormatUint(r.Seed, 10), r.Workers, r.ExpectedLossMC, r.ExpectedLossExact,
		r.LossStdDev, r.ElapsedMS, strings.Join(r.Notes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	for _, t := range r.Tails {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO risk_measures (run_id, confidence, var, es, unexpected_loss)
			VALUES (?, ?, ?, ?, ?)`,
			r.RunID, t.Confidence, t.VaR, t.ES, t.UnexpectedLoss,
		)
		if err != nil {
			return fmt.Errorf("insert risk measure %v: %w", t.Confidence, err)
		}
	}
	return nil
}

func insertScenarios(ctx context.Context, tx *sql.Tx, runID string, scenarios []ScenarioRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scenarios (run_id, scenario, loss, loss_rate, defaults)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range scenarios {
		if _, err := stmt.ExecContext(ctx, runID, s.Scenario, s.Loss, s.LossRate, s.Defaults); err != nil {
			return fmt.Errorf("insert scenario %d: %w", s.Scenario, err)
		}
	}
	return nil
}

// ErrRunNotFound is returned by GetRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// GetRun returns a single run record by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, portfolio, portfolio_size, total_exposure, asset_corr, scenarios, seed,
		       workers, el_mc, el_exact, loss_std, elapsed_ms, notes
		FROM runs
		WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}

	rec.Tails, err = j.listTails(ctx, runID)
	if err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
// Tail measures are not loaded, use GetRun for those.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, created, portfolio, portfolio_size, total_exposure, asset_corr, scenarios, seed,
		       workers, el_mc, el_exact, loss_std, elapsed_ms, notes
		FROM runs
		ORDER BY created DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListScenarios returns the scenarios of a run in scenario order.
func (j *SQLite) ListScenarios(ctx context.Context, runID string) ([]ScenarioRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT scenario, loss, loss_rate, defaults
		FROM scenarios
		WHERE run_id = ?
		ORDER BY scenario ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScenarioRecord
	for rows.Next() {
		var s ScenarioRecord
		if err := rows.Scan(&s.Scenario, &s.Loss, &s.LossRate, &s.Defaults); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) listTails(ctx context.Context, runID string) ([]risk.Tail, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT confidence, var, es, unexpected_loss
		FROM risk_measures
		WHERE run_id = ?
		ORDER BY confidence ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []risk.Tail
	for rows.Next() {
		var t risk.Tail
		if err := rows.Scan(&t.Confidence, &t.VaR, &t.ES, &t.UnexpectedLoss); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec   RunRecord
		seed  string
		notes string
	)
	err := s.Scan(
		&rec.RunID,
		&rec.Created,
		&rec.Portfolio,
		&rec.PortfolioSize,
		&rec.TotalExposure,
		&rec.AssetCorr,
		&rec.Scenarios,
		&seed,
		&rec.Workers,
		&rec.ExpectedLossMC,
		&rec.ExpectedLossExact,
		&rec.LossStdDev,
		&rec.ElapsedMS,
		&notes,
	)
	if err != nil {
		return RunRecord{}, err
	}
	if rec.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return RunRecord{}, fmt.Errorf("run %s: bad seed %q: %w", rec.RunID, seed, err)
	}
	if notes != "" {
		rec.Notes = strings.Split(notes, "\n")
	}
	return rec, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
