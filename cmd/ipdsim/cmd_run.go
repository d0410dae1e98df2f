package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/ipd-go/ipd"
	"github.com/baldhumanity/ipd-go/ipd/logging"
	"github.com/baldhumanity/ipd-go/ipd/observer"
	"github.com/baldhumanity/ipd-go/ipd/store"
)

type runOptions struct {
	configPath     string
	generations    int
	seed           int64
	seedSet        bool
	strategiesPath string
	dbPath         string
	runID          string
	checkpointPath string
	resumePath     string
	listenAddr     string
	reportLogPath  string
	logLevel       string
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a tournament for a number of generations",
		Long: `Run a tournament for a number of generations.

A fresh population is created unless --resume names a checkpoint, or --run-id
names a run whose latest snapshot is present in --db.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts runOptions
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.generations, _ = cmd.Flags().GetInt("generations")
			opts.seed, _ = cmd.Flags().GetInt64("seed")
			opts.seedSet = cmd.Flags().Changed("seed")
			opts.strategiesPath, _ = cmd.Flags().GetString("strategies")
			opts.dbPath, _ = cmd.Flags().GetString("db")
			opts.runID, _ = cmd.Flags().GetString("run-id")
			opts.checkpointPath, _ = cmd.Flags().GetString("checkpoint")
			opts.resumePath, _ = cmd.Flags().GetString("resume")
			opts.listenAddr, _ = cmd.Flags().GetString("listen")
			opts.reportLogPath, _ = cmd.Flags().GetString("report-log")
			opts.logLevel, _ = cmd.Flags().GetString("log-level")
			return runTournament(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().String("config", "", "INI configuration file (defaults when empty)")
	cmd.Flags().Int("generations", 100, "Number of generations to run")
	cmd.Flags().Int64("seed", 0, "Random seed, overrides the configuration (0 seeds from the clock)")
	cmd.Flags().String("strategies", "", "YAML file of scripted resident strategies")
	cmd.Flags().String("db", "", "sqlite database for snapshots and reports (in-memory when empty)")
	cmd.Flags().String("run-id", "", "Run identity in the database (random when empty)")
	cmd.Flags().String("checkpoint", "", "Checkpoint file written every checkpoint_every generations and at exit")
	cmd.Flags().String("resume", "", "Checkpoint file to resume from")
	cmd.Flags().String("listen", "", "Address to serve the websocket report stream on, e.g. :8080")
	cmd.Flags().String("report-log", "", "JSONL file receiving every generation report")
	return cmd
}

func runTournament(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.generations < 0 {
		return fmt.Errorf("--generations must be >= 0, got %d", opts.generations)
	}
	logger := logging.NewLogger(opts.logLevel, stderr)

	config := ipd.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if config, err = ipd.LoadConfig(opts.configPath); err != nil {
			return err
		}
	}
	if opts.seedSet {
		config.Simulation.Seed = opts.seed
	}

	db, err := store.Open(ctx, opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With("run", runID)

	sim, err := buildSimulator(ctx, config, db, runID, opts, logger)
	if err != nil {
		return err
	}

	if opts.strategiesPath != "" {
		residents, err := ipd.LoadStrategies(opts.strategiesPath)
		if err != nil {
			return err
		}
		for _, r := range residents {
			if err := sim.AddResident(r); err != nil {
				return err
			}
		}
		logger.Info("residents loaded", "count", len(residents))
	}

	reportLog, err := openReportLog(opts.reportLogPath)
	if err != nil {
		return err
	}
	defer reportLog.Close()

	hub := observer.NewHub(logger)
	defer hub.Close()
	if opts.listenAddr != "" {
		shutdown, err := serveObserver(opts.listenAddr, hub, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	checkpoint := func() error {
		snap := sim.Export()
		if err := db.SaveSnapshot(ctx, runID, snap); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if opts.checkpointPath != "" {
			if err := ipd.WriteCheckpoint(opts.checkpointPath, snap); err != nil {
				return err
			}
		}
		logger.Debug("checkpoint saved", "generation", snap.Generation, "path", opts.checkpointPath)
		return nil
	}

	every := config.Simulation.CheckpointEvery
	err = sim.RunGenerations(ctx, opts.generations, func(r *ipd.GenerationReport) error {
		if err := db.SaveReport(ctx, runID, r); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		if err := reportLog.Log(r); err != nil {
			return fmt.Errorf("write report log: %w", err)
		}
		if err := hub.Publish(r); err != nil {
			return err
		}
		printReport(stdout, r)
		if every > 0 && r.Generation%every == 0 {
			return checkpoint()
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("run interrupted", "generation", sim.Generation())
		// The interrupted context must not abort the final save.
		ctx = context.WithoutCancel(ctx)
	}

	if err := checkpoint(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run %s finished at generation %s\n", runID, humanize.Comma(int64(sim.Generation())))
	return nil
}

// buildSimulator resumes from --resume, then from the run's latest stored
// snapshot, and otherwise creates a fresh population.
func buildSimulator(ctx context.Context, config *ipd.Config, db store.Store, runID string, opts runOptions, logger *slog.Logger) (*ipd.GenerationSimulator, error) {
	simOpts := []ipd.Option{
		ipd.WithRand(ipd.NewRand(config.Simulation.Seed)),
		ipd.WithLogger(logger),
	}

	if opts.resumePath != "" {
		ex, err := ipd.ReadCheckpoint(opts.resumePath)
		if err != nil {
			return nil, err
		}
		logger.Info("resuming from checkpoint", "path", opts.resumePath, "generation", ex.Generation)
		return ipd.RestoreSimulator(config, ex, simOpts...)
	}

	if opts.runID != "" {
		snap, found, err := db.LatestSnapshot(ctx, runID)
		if err != nil {
			return nil, err
		}
		if found {
			logger.Info("resuming stored run", "generation", snap.Generation)
			return ipd.RestoreSimulator(config, snap, simOpts...)
		}
	}
	return ipd.NewGenerationSimulator(config, simOpts...)
}

func openReportLog(path string) (*logging.ReportLog, error) {
	if path == "" {
		return nil, nil
	}
	return logging.OpenReportLog(path)
}

func serveObserver(addr string, hub *observer.Hub, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("observer server failed", "error", err)
		}
	}()
	logger.Info("observer listening", "addr", ln.Addr().String(), "path", "/ws")

	return func() {
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

func printReport(w io.Writer, r *ipd.GenerationReport) {
	line := fmt.Sprintf("gen %-5d rounds %-3d cooperate %-4d defect %-4d total %s",
		r.Generation, r.Rounds, r.Cooperators, r.Defectors, humanize.Comma(int64(r.TotalScore)))
	if best, ok := r.Best(); ok {
		line += fmt.Sprintf("  best %s (%s)", best.ID, humanize.Comma(int64(best.Score)))
	}
	fmt.Fprintln(w, line)
}
