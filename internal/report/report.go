// Package report prints simulation runs as terminal tables.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rustyeddy/merton/journal"
)

// Style picks the table style. Colored styles embed ANSI escapes.
func Style(noColor bool) table.Style {
	if noColor {
		return table.StyleLight
	}
	return table.StyleColoredDark
}

func newTable(w io.Writer, style table.Style) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func pct(amount, exposure float64) string {
	if exposure <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f%%", 100*amount/exposure)
}

// PrintRun writes the header, expected loss and tail tables of one run.
func PrintRun(w io.Writer, r journal.RunRecord, style table.Style) {
	t := newTable(w, style)
	t.SetTitle("Simulation " + r.RunID)
	t.AppendRows([]table.Row{
		{"Created", r.Created.Format(time.RFC3339)},
		{"Portfolio", r.Portfolio},
		{"Obligors", r.PortfolioSize},
		{"Exposure", fmt.Sprintf("%.2f", r.TotalExposure)},
		{"Asset correlation", r.AssetCorr},
		{"Scenarios", r.Scenarios},
		{"Seed", r.Seed},
		{"Workers", r.Workers},
		{"Elapsed", fmt.Sprintf("%.1f ms", r.ElapsedMS)},
	})
	t.Render()

	el := newTable(w, style)
	el.AppendHeader(table.Row{"", "Amount", "% of exposure"})
	el.AppendRows([]table.Row{
		{"Expected loss (MC)", fmt.Sprintf("%.4f", r.ExpectedLossMC), pct(r.ExpectedLossMC, r.TotalExposure)},
		{"Expected loss (exact)", fmt.Sprintf("%.4f", r.ExpectedLossExact), pct(r.ExpectedLossExact, r.TotalExposure)},
		{"Loss std dev", fmt.Sprintf("%.4f", r.LossStdDev), pct(r.LossStdDev, r.TotalExposure)},
	})
	el.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	el.Render()

	if len(r.Tails) > 0 {
		tt := newTable(w, style)
		tt.AppendHeader(table.Row{"Confidence", "VaR", "ES", "Unexpected loss", "VaR %"})
		for _, tl := range r.Tails {
			tt.AppendRow(table.Row{
				fmt.Sprintf("%.2f%%", tl.Confidence*100),
				fmt.Sprintf("%.4f", tl.VaR),
				fmt.Sprintf("%.4f", tl.ES),
				fmt.Sprintf("%.4f", tl.UnexpectedLoss),
				pct(tl.VaR, r.TotalExposure),
			})
		}
		tt.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		})
		tt.Render()
	}

	for _, n := range r.Notes {
		fmt.Fprintf(w, "! %s\n", n)
	}
}

// PrintRuns writes one line per run, newest first as given.
func PrintRuns(w io.Writer, runs []journal.RunRecord, style table.Style) {
	t := newTable(w, style)
	t.AppendHeader(table.Row{"Run ID", "Created", "Portfolio", "Rho", "Scenarios", "EL (MC)", "EL (exact)"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.Created.Format(time.RFC3339),
			r.Portfolio,
			r.AssetCorr,
			r.Scenarios,
			fmt.Sprintf("%.4f", r.ExpectedLossMC),
			fmt.Sprintf("%.4f", r.ExpectedLossExact),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.Render()
}

// PrintScenarios writes per-scenario losses.
func PrintScenarios(w io.Writer, scenarios []journal.ScenarioRecord, style table.Style) {
	t := newTable(w, style)
	t.AppendHeader(table.Row{"Scenario", "Loss", "Loss rate", "Defaults"})
	for _, s := range scenarios {
		t.AppendRow(table.Row{s.Scenario, fmt.Sprintf("%.6f", s.Loss), fmt.Sprintf("%.6f", s.LossRate), s.Defaults})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}
