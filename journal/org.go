package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/merton/risk"
)

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"rate": func(amount, exposure float64) float64 {
		if exposure <= 0 {
			return 0
		}
		return 100 * amount / exposure
	},
	"gap": func(mc, exact float64) float64 {
		if exact == 0 {
			return 0
		}
		return 100 * (mc - exact) / exact
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders a run as an Org-mode block.
func FormatRunOrg(r RunRecord) (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteOrg writes the Org block for r to path.
func (r RunRecord) WriteOrg(path string) error {
	s, err := FormatRunOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// Tail returns the stored measures at confidence level lvl.
func (r RunRecord) Tail(lvl float64) (risk.Tail, bool) {
	for _, t := range r.Tails {
		if t.Confidence == lvl {
			return t, true
		}
	}
	return risk.Tail{}, false
}

const RunOrgTemplate = `* SIMULATION: {{.Portfolio}} rho={{printf "%.4f" .AssetCorr}}
:PROPERTIES:
:RUN_ID:        {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:MODEL:         single-factor gaussian copula
:PORTFOLIO:     {{.Portfolio}}
:OBLIGORS:      {{.PortfolioSize}}
:EXPOSURE:      {{printf "%.2f" .TotalExposure}}
:ASSET_CORR:    {{printf "%.4f" .AssetCorr}}
:SCENARIOS:     {{.Scenarios}}
:SEED:          {{.Seed}}
:WORKERS:       {{.Workers}}
:EL_MC:         {{printf "%.2f" .ExpectedLossMC}}
:EL_EXACT:      {{printf "%.2f" .ExpectedLossExact}}
:ELAPSED_MS:    {{printf "%.1f" .ElapsedMS}}
:CREATED:       [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Expected Loss
- Monte Carlo:   *{{printf "%.2f" .ExpectedLossMC}}* ({{printf "%.4f" (rate .ExpectedLossMC .TotalExposure)}}% of exposure)
- Closed form:   *{{printf "%.2f" .ExpectedLossExact}}*
- MC vs exact:   *{{printf "%+.2f" (gap .ExpectedLossMC .ExpectedLossExact)}}%*
- Loss std dev:  *{{printf "%.2f" .LossStdDev}}*

{{- if .Tails }}

** Tail Risk
| Confidence | VaR | ES | Unexpected Loss | VaR % |
|------------+-----+----+-----------------+-------|
{{- range .Tails }}
| {{printf "%.2f" (mul100 .Confidence)}}% | {{printf "%.2f" .VaR}} | {{printf "%.2f" .ES}} | {{printf "%.2f" .UnexpectedLoss}} | {{printf "%.4f" (rate .VaR $.TotalExposure)}} |
{{- end }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
