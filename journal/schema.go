package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	portfolio TEXT NOT NULL,
	portfolio_size INTEGER NOT NULL,
	total_exposure REAL NOT NULL,
	asset_corr REAL NOT NULL,
	scenarios INTEGER NOT NULL,
	seed TEXT NOT NULL,
	workers INTEGER NOT NULL,
	el_mc REAL NOT NULL,
	el_exact REAL NOT NULL,
	loss_std REAL NOT NULL,
	elapsed_ms REAL NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS risk_measures (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	confidence REAL NOT NULL,
	var REAL NOT NULL,
	es REAL NOT NULL,
	unexpected_loss REAL NOT NULL,
	PRIMARY KEY (run_id, confidence)
);

CREATE TABLE IF NOT EXISTS scenarios (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	scenario INTEGER NOT NULL,
	loss REAL NOT NULL,
	loss_rate REAL NOT NULL,
	defaults INTEGER NOT NULL,
	PRIMARY KEY (run_id, scenario)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
