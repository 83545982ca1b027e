package simulate

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	settings "github.com/rustyeddy/merton/config"
	"github.com/rustyeddy/merton/internal/cli/config"
	"github.com/rustyeddy/merton/internal/report"
	"github.com/rustyeddy/merton/journal"
	"github.com/rustyeddy/merton/pkg/id"
	"github.com/rustyeddy/merton/portfolio"
	"github.com/rustyeddy/merton/risk"
	"github.com/rustyeddy/merton/sim"
)

var log = logrus.WithField("component", "cli")

type options struct {
	portfolio   string
	homogeneous int
	ead         float64
	pd          float64
	lgd         float64

	rho       float64
	sims      int
	seed      uint64
	workers   int
	chunkSize int

	confidence []float64

	journal      string
	runsCSV      string
	scenariosCSV string
	measuresCSV  string
	org          string

	print       int
	failOnLimit bool
}

func New(rc *config.RootConfig) *cobra.Command {
	def := settings.Default()
	o := options{
		portfolio:  def.Portfolio.Path,
		ead:        1,
		pd:         0.0228, // Φ(-2)
		lgd:        0.6,
		rho:        def.Simulation.AssetCorr,
		sims:       def.Simulation.Scenarios,
		confidence: def.Risk.Confidence,
		journal:    def.Journal.Type,
	}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte Carlo credit loss simulation",
		Long: `Simulate portfolio credit losses under a single-factor Gaussian copula.

The portfolio is read from a CSV file (id,EAD,PD,LGD with a header line) or
built as m identical obligors with --homogeneous.

Examples:
  merton simulate --portfolio loans.csv --rho 0.05 --sims 100000 --seed 42
  merton simulate --homogeneous 100 --pd 0.0228 --lgd 0.6 --journal none --print 10
  merton --config simulation.yaml simulate --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := settings.Default()
			if rc.ConfigPath != "" {
				loaded, err := settings.LoadFromFile(rc.ConfigPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			if rc.ConfigPath == "" || cmd.Flags().Changed("db") {
				cfg.Journal.DBPath = rc.DBPath
			}
			apply(cmd.Flags(), &o, cfg)

			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cmd.OutOrStdout(), cfg, o, report.Style(rc.NoColor))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.portfolio, "portfolio", "p", o.portfolio, "Obligor CSV file (id,EAD,PD,LGD)")
	f.IntVar(&o.homogeneous, "homogeneous", 0, "Simulate m identical obligors instead of a file")
	f.Float64Var(&o.ead, "ead", o.ead, "Exposure at default of each homogeneous obligor")
	f.Float64Var(&o.pd, "pd", o.pd, "Default probability of each homogeneous obligor")
	f.Float64Var(&o.lgd, "lgd", o.lgd, "Loss given default of each homogeneous obligor")

	f.Float64Var(&o.rho, "rho", o.rho, "Asset correlation in [0,1)")
	f.IntVarP(&o.sims, "sims", "n", o.sims, "Number of scenarios")
	f.Uint64Var(&o.seed, "seed", 0, "Random seed (default: from the clock)")
	f.IntVar(&o.workers, "workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	f.IntVar(&o.chunkSize, "chunk-size", 0, "Scenarios per random stream (0 = 1024)")

	f.Float64SliceVar(&o.confidence, "confidence", o.confidence, "VaR/ES confidence levels")

	f.StringVar(&o.journal, "journal", o.journal, "Journal type: sqlite|csv|none")
	f.StringVar(&o.runsCSV, "runs-csv", "", "CSV journal runs file")
	f.StringVar(&o.scenariosCSV, "scenarios-csv", "", "CSV journal scenarios file")
	f.StringVar(&o.measuresCSV, "measures-csv", "", "CSV journal risk measures file")
	f.StringVar(&o.org, "org", "", "Write an Org-mode report to this file")

	f.IntVar(&o.print, "print", 0, "Print the first N scenario losses")
	f.BoolVar(&o.failOnLimit, "fail-on-limit", false, "Exit non-zero when a risk limit is breached")

	return cmd
}

// apply copies explicitly set flags over cfg.
func apply(f *pflag.FlagSet, o *options, cfg *settings.Config) {
	if f.Changed("homogeneous") {
		cfg.Portfolio = settings.PortfolioConfig{
			Homogeneous: o.homogeneous,
			EAD:         o.ead,
			PD:          o.pd,
			LGD:         o.lgd,
		}
	} else if f.Changed("portfolio") {
		cfg.Portfolio = settings.PortfolioConfig{Path: o.portfolio}
	}
	if cfg.Portfolio.Homogeneous > 0 {
		if f.Changed("ead") {
			cfg.Portfolio.EAD = o.ead
		}
		if f.Changed("pd") {
			cfg.Portfolio.PD = o.pd
		}
		if f.Changed("lgd") {
			cfg.Portfolio.LGD = o.lgd
		}
	}

	if f.Changed("rho") {
		cfg.Simulation.AssetCorr = o.rho
	}
	if f.Changed("sims") {
		cfg.Simulation.Scenarios = o.sims
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed = sim.Seed(o.seed)
	}
	if f.Changed("workers") {
		cfg.Simulation.Workers = o.workers
	}
	if f.Changed("chunk-size") {
		cfg.Simulation.ChunkSize = o.chunkSize
	}
	if f.Changed("confidence") {
		cfg.Risk.Confidence = o.confidence
	}

	if f.Changed("journal") {
		cfg.Journal.Type = o.journal
	}
	if f.Changed("runs-csv") {
		cfg.Journal.RunsFile = o.runsCSV
	}
	if f.Changed("scenarios-csv") {
		cfg.Journal.ScenariosFile = o.scenariosCSV
	}
	if f.Changed("measures-csv") {
		cfg.Journal.MeasuresFile = o.measuresCSV
	}
	if f.Changed("org") {
		cfg.Journal.OrgPath = o.org
	}
}

func loadPortfolio(pc settings.PortfolioConfig) (portfolio.Portfolio, string, error) {
	if pc.Homogeneous > 0 {
		return portfolio.Homogeneous(pc.Homogeneous, pc.EAD, pc.PD, pc.LGD),
			fmt.Sprintf("homogeneous(%d)", pc.Homogeneous), nil
	}
	p, err := portfolio.LoadCSV(pc.Path)
	if err != nil {
		return portfolio.Portfolio{}, "", fmt.Errorf("load portfolio: %w", err)
	}
	return p, pc.Path, nil
}

func openJournal(jc settings.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.RunsFile, jc.ScenariosFile, jc.MeasuresFile)
	default:
		return journal.Nop{}, nil
	}
}

func run(ctx context.Context, w io.Writer, cfg *settings.Config, o options, style table.Style) error {
	p, source, err := loadPortfolio(cfg.Portfolio)
	if err != nil {
		return err
	}

	eng := sim.NewEngine(sim.WithLogger(logrus.WithField("component", "sim")))
	res, err := eng.Simulate(ctx, p, cfg.Simulation.SimConfig())
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	summary, err := risk.Summarize(res.Losses, res.TotalExposure, cfg.Risk.Levels()...)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	workers := cfg.Simulation.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rec := journal.NewRunRecord(id.New(), time.Now().UTC(), source, workers, res, summary)

	decision := risk.Evaluate(cfg.Risk.Policy(), summary, res.ExpectedLossExact)
	for _, v := range decision.Violations {
		log.WithField("code", v.Code).Warn(v.Msg)
		rec.Notes = append(rec.Notes, v.Code+": "+v.Msg)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	scenarios := journal.Scenarios(res)
	if err := j.Record(ctx, rec, scenarios); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	if cfg.Journal.OrgPath != "" {
		if err := rec.WriteOrg(cfg.Journal.OrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"run_id":  rec.RunID,
		"journal": cfg.Journal.Type,
	}).Info("run recorded")

	report.PrintRun(w, rec, style)
	if o.print > 0 {
		n := min(o.print, len(scenarios))
		report.PrintScenarios(w, scenarios[:n], style)
	}

	if o.failOnLimit && !decision.Allowed {
		return fmt.Errorf("%d risk limit(s) breached", len(decision.Violations))
	}
	return nil
}
