package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"pisaresilience/adapters/excel"
	"pisaresilience/adapters/postgres"
	"pisaresilience/adapters/report"
	"pisaresilience/app"
	"pisaresilience/internal/config"
	"pisaresilience/internal/errors"
	"pisaresilience/internal/logging"
	"pisaresilience/internal/pipeline"
	"pisaresilience/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data, logs and result directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogsDir, cfg.Paths.ResultDir} {
				if dir == "" {
					continue
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return errors.StorageError("create "+dir, err)
				}
				fmt.Printf("created %s\n", dir)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var pv int
	var loop bool
	var diagnostics bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline for one plausible value or all ten",
		Long: `Join student, school and teacher data, drop students with too many
missing answers, compute per-country thresholds and label the full and
sliced datasets. Results go to <RESULT_DIR>/preprocessing<k>.xlsx.

Example: pisa-resilience run --pv 3 --diagnostics
         pisa-resilience run --loop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			indices := []int{cfg.Pipeline.Options.PlausibleValueIndex}
			switch {
			case loop && cmd.Flags().Changed("pv"):
				return errors.InvalidParameter("--pv and --loop are mutually exclusive")
			case loop:
				indices = pipeline.AllPlausibleValueIndices()
			case cmd.Flags().Changed("pv"):
				if err := pipeline.ValidatePlausibleValueIndex(pv); err != nil {
					return err
				}
				indices = []int{pv}
			}
			return runPipeline(cmd.Context(), cfg, indices, diagnostics)
		},
	}

	cmd.Flags().IntVar(&pv, "pv", 1, "Reading plausible value index (1-10)")
	cmd.Flags().BoolVar(&loop, "loop", false, "Run all ten plausible values")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Write the diagnostics report for each run")

	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Write the column missingness report only",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			env, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer env.close()

			reports, path, err := env.service.Describe(cmd.Context())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"View", "Rows", "Columns", "Columns with NA"})
			for _, r := range reports {
				withNA := 0
				for _, p := range r.Profiles {
					if p.NARatio > 0 {
						withNA++
					}
				}
				table.Append([]string{r.View, strconv.Itoa(r.Rows), strconv.Itoa(len(r.Profiles)), strconv.Itoa(withNA)})
			}
			table.Render()
			fmt.Printf("written %s\n", path)
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs from the ledger (requires DATABASE_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.ConfigInvalid("DATABASE_URL is required to list runs")
			}
			db, err := sqlx.Connect("postgres", cfg.Database.URL)
			if err != nil {
				return errors.StorageError("failed to connect to database", err)
			}
			defer db.Close()

			records, err := postgres.NewRunRepository(db).ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Run", "PV", "Variant", "Country", "ESCS cutoff", "Resilient", "Total", "Ratio (%)"})
			for _, r := range records {
				for _, c := range r.Counts {
					table.Append([]string{
						r.RunID.String(), strconv.Itoa(r.PlausibleValue), string(c.Variant), string(c.Country),
						fmt.Sprintf("%.3f", c.ESCSThreshold), strconv.Itoa(c.Resilient), strconv.Itoa(c.Total),
						fmt.Sprintf("%.2f", c.Ratio),
					})
				}
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	return cmd
}

// environment holds what a command needs to drive the service.
type environment struct {
	service *app.ResilienceService
	logger  *zap.Logger
	db      *sqlx.DB
	cleanup func()
}

func (e *environment) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	e.cleanup()
}

func setup(ctx context.Context, cfg *config.Config) (*environment, error) {
	logger, cleanup, err := logging.New(logging.Options{Level: cfg.Logging.Level, Dir: cfg.Paths.LogsDir})
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	env := &environment{logger: logger, cleanup: cleanup}

	codebook, err := excel.ReadCodebook(cfg.Paths.CodebookPath(), logger)
	if err != nil {
		env.close()
		return nil, err
	}

	var ledger ports.RunLedger
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			env.close()
			return nil, errors.StorageError("failed to connect to database", err)
		}
		env.db = db
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			env.close()
			return nil, err
		}
		ledger = postgres.NewRunRepository(db)
	}

	env.service, err = app.NewResilienceService(app.ServiceDeps{
		Source:   excel.NewInputLoader(cfg.Paths.DataDir, codebook, logger),
		Codebook: codebook,
		Exporter: excel.NewResultWriter(cfg.Paths.ResultDir, logger),
		Ledger:   ledger,
		Reporter: report.NewDiagnosticsRenderer(cfg.Paths.ResultDir, logger),
		Logger:   logger,
	}, cfg.Pipeline.Options, cfg.Pipeline.BatchWorkers)
	if err != nil {
		env.close()
		return nil, err
	}
	return env, nil
}

func runPipeline(ctx context.Context, cfg *config.Config, indices []int, diagnostics bool) error {
	env, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.close()

	rep, err := env.service.Run(ctx, app.RunRequest{Indices: indices, Diagnostics: diagnostics})
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"PV", "Variant", "Country", "Resilient", "Total", "Ratio (%)", "Status"})
	for _, o := range rep.Outcomes {
		if o.Err != nil {
			table.Append([]string{strconv.Itoa(o.Index), "-", "-", "-", "-", "-", errors.GetCode(o.Err)})
			continue
		}
		for _, rc := range o.Result.Summary {
			table.Append([]string{
				strconv.Itoa(o.Index), string(rc.Variant), rc.Country.Name(),
				strconv.Itoa(rc.Resilient), strconv.Itoa(rc.Total), fmt.Sprintf("%.2f", rc.Ratio), "ok",
			})
		}
	}
	table.Render()

	if failed := rep.Failed(); failed > 0 {
		return errors.Newf(errors.CodeInternalError, "%d of %d runs failed", failed, len(rep.Outcomes))
	}
	return nil
}
