package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	settings "github.com/rustyeddy/merton/config"
	"github.com/rustyeddy/merton/journal"
	"github.com/rustyeddy/merton/portfolio"
	"github.com/rustyeddy/merton/sim"
)

// These tests share the global logrus logger and must not run in parallel.

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePortfolio(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "merton dev\n", out)
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log-level")
}

func TestSimulateHomogeneous(t *testing.T) {
	out, err := execute(t, "simulate",
		"--homogeneous", "50",
		"--sims", "2000",
		"--seed", "1",
		"--journal", "none",
		"--print", "3",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "homogeneous(50)")
	assert.Contains(t, out, "Expected loss (exact)")
	assert.Contains(t, out, "0.6840") // 50 * 1 * 0.6 * 0.0228
	assert.Contains(t, out, "99.90%")
	assert.Contains(t, out, "Scenario")
}

func TestSimulatePortfolioFile(t *testing.T) {
	path := writePortfolio(t, "id,EAD,PD,LGD\nA,10000000,0.0001,0.6\nB,10000000,0.0094,0.6\n")

	out, err := execute(t, "simulate",
		"--portfolio", path,
		"--rho", "0.05",
		"--sims", "1000",
		"--seed", "5",
		"--journal", "none",
	)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.Contains(t, out, "57000.0000")
}

func TestSimulateMissingPortfolio(t *testing.T) {
	out, err := execute(t, "simulate",
		"--portfolio", filepath.Join(t.TempDir(), "nope.csv"),
		"--journal", "none",
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, portfolio.ErrFileNotFound)
	assert.Empty(t, out)
}

func TestSimulateInvalidObligor(t *testing.T) {
	path := writePortfolio(t, "id,EAD,PD,LGD\nA,1,0.5,1\nB,1,1,1\n")

	out, err := execute(t, "simulate", "--portfolio", path, "--sims", "10", "--journal", "none")
	require.Error(t, err)
	assert.ErrorIs(t, err, portfolio.ErrInvalidObligor)
	assert.Contains(t, err.Error(), "obligor 1 (B)")
	assert.Empty(t, out)
}

func TestSimulateInvalidConfig(t *testing.T) {
	out, err := execute(t, "simulate", "--homogeneous", "5", "--rho", "1", "--journal", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset_corr")
	assert.Empty(t, out)
}

func TestSimulateJournalAndRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.sqlite")
	org := filepath.Join(dir, "run.org")

	_, err := execute(t, "simulate",
		"--homogeneous", "20",
		"--sims", "500",
		"--seed", "3",
		"--db", db,
		"--journal", "sqlite",
		"--org", org,
	)
	require.NoError(t, err)

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	recorded, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	run := recorded[0]
	assert.Equal(t, 500, run.Scenarios)
	assert.Equal(t, uint64(3), run.Seed)
	assert.Equal(t, "homogeneous(20)", run.Portfolio)

	scenarios, err := j.ListScenarios(ctx, run.RunID)
	require.NoError(t, err)
	assert.Len(t, scenarios, 500)

	body, err := os.ReadFile(org)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "* SIMULATION: homogeneous(20)"))

	out, err := execute(t, "runs", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, run.RunID)

	out, err = execute(t, "runs", "show", run.RunID, "--scenarios", "2", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Simulation "+run.RunID)
	assert.Contains(t, out, "Scenario")
	assert.Contains(t, out, "95.00%")
}

func TestRunsShowUnknown(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.sqlite")
	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = execute(t, "runs", "show", "01HNOPE", "--db", db)
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
}

func TestRunsMissingDatabase(t *testing.T) {
	_, err := execute(t, "runs", "list", "--db", filepath.Join(t.TempDir(), "missing.sqlite"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSimulateCSVJournal(t *testing.T) {
	dir := t.TempDir()
	runsFile := filepath.Join(dir, "runs.csv")
	scenariosFile := filepath.Join(dir, "scenarios.csv")
	measuresFile := filepath.Join(dir, "measures.csv")

	_, err := execute(t, "simulate",
		"--homogeneous", "10",
		"--sims", "100",
		"--seed", "9",
		"--journal", "csv",
		"--runs-csv", runsFile,
		"--scenarios-csv", scenariosFile,
		"--measures-csv", measuresFile,
	)
	require.NoError(t, err)

	body, err := os.ReadFile(scenariosFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 101)

	body, err = os.ReadFile(runsFile)
	require.NoError(t, err)
	assert.Contains(t, string(body), "homogeneous(10)")

	body, err = os.ReadFile(measuresFile)
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Len(t, lines, 4) // header + 0.95, 0.99, 0.999
}

func TestSimulateFromConfigFile(t *testing.T) {
	cfg := settings.Default()
	cfg.Portfolio = settings.PortfolioConfig{Homogeneous: 10, EAD: 1, PD: 0.02, LGD: 0.5}
	cfg.Simulation.Scenarios = 300
	cfg.Simulation.Seed = sim.Seed(11)
	cfg.Risk.MaxELPct = 0.001
	cfg.Journal = settings.JournalConfig{Type: "none"}

	path := filepath.Join(t.TempDir(), "simulation.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	out, err := execute(t, "--config", path, "simulate")
	require.NoError(t, err)
	assert.Contains(t, out, "homogeneous(10)")
	assert.Contains(t, out, "EL_TOO_HIGH")

	out, err = execute(t, "--config", path, "simulate", "--fail-on-limit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk limit")
	assert.Contains(t, out, "EL_TOO_HIGH")
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simulation.yaml")

	out, err := execute(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	out, err = execute(t, "config", "validate", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: sqlite")
}

func TestConfigValidateRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  asset_corr: 2\n  scenarios: 10\n"), 0o644))

	_, err := execute(t, "config", "validate", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
