package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/cesargomez89/genofetch/internal/config"
	"github.com/cesargomez89/genofetch/internal/domain"
	"github.com/cesargomez89/genofetch/internal/ledger"
	"github.com/cesargomez89/genofetch/internal/logger"
	"github.com/cesargomez89/genofetch/internal/ncbi"
	"github.com/cesargomez89/genofetch/internal/resolver"
	"github.com/cesargomez89/genofetch/internal/species"
	"github.com/cesargomez89/genofetch/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:          "genofetch",
		Short:        "Resolve species names to reference-genome accessions",
		SilenceUsage: true,
	}
	root.AddCommand(newResolveCmd(), newRunsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newResolveCmd() *cobra.Command {
	var (
		speciesPath      string
		statusPath       string
		accessionsPath   string
		downloadInfoPath string
		workers          int
		retryFrom        string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a species table against the NCBI genome catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if workers > 0 {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			appLogger := logger.New(logger.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runResolve(ctx, cfg, appLogger, resolveArgs{
				speciesPath:      speciesPath,
				statusPath:       statusPath,
				accessionsPath:   accessionsPath,
				downloadInfoPath: downloadInfoPath,
				retryFrom:        retryFrom,
			})
		},
	}

	cmd.Flags().StringVar(&speciesPath, "species", "", "Input CSV with species names")
	cmd.Flags().StringVar(&statusPath, "status", "", "Output CSV with per-species status")
	cmd.Flags().StringVar(&accessionsPath, "accessions", "", "Output TXT with one accession per line")
	cmd.Flags().StringVar(&downloadInfoPath, "download-info", "", "Output CSV with download metadata")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers (overrides GENOFETCH_WORKERS)")
	cmd.Flags().StringVar(&retryFrom, "retry-from", "", "Re-resolve only the unresolved species of a previous run ID")
	_ = cmd.MarkFlagRequired("status")
	_ = cmd.MarkFlagRequired("accessions")
	_ = cmd.MarkFlagRequired("download-info")

	return cmd
}

type resolveArgs struct {
	speciesPath      string
	statusPath       string
	accessionsPath   string
	downloadInfoPath string
	retryFrom        string
}

func runResolve(ctx context.Context, cfg *config.Config, log *logger.Logger, args resolveArgs) error {
	if args.speciesPath == "" && args.retryFrom == "" {
		return errors.New("either --species or --retry-from is required")
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init run store: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	requests, inputLabel, err := loadRequests(db, args)
	if err != nil {
		return err
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		InputPath: inputLabel,
		Status:    domain.RunStatusRunning,
		Total:     len(requests),
		StartedAt: time.Now(),
	}
	if err := db.CreateRun(run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	runLogger := log.WithRun(run.ID)
	runLogger.Info("Starting resolution run",
		"species", len(requests),
		"workers", cfg.Workers,
		"rate_per_second", cfg.RequestsPerSecond(),
		"api_key", cfg.APIKey != "",
	)

	// One limiter instance shared by every worker; burst 1 keeps the grant
	// rate inside the catalog's quota even under scheduling jitter.
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond()), 1)
	client := ncbi.NewClient(cfg.BaseURL, limiter, ncbi.Options{
		APIKey:     cfg.APIKey,
		Timeout:    cfg.RequestTimeout,
		RetryCount: cfg.RetryCount,
		RetryBase:  cfg.RetryBase,
	})

	pool := resolver.NewPool(client, cfg.Workers, log)
	records, err := pool.Run(ctx, requests)
	if err != nil {
		// Interrupted: leave the ledger unwritten rather than truncated.
		_ = db.FinishRun(run.ID, domain.RunStatusFailed, 0, 0, 0)
		return err
	}

	writer := ledger.NewWriter(args.statusPath, args.accessionsPath, args.downloadInfoPath)
	if err := writer.Write(records); err != nil {
		_ = db.FinishRun(run.ID, domain.RunStatusFailed, 0, 0, 0)
		return err
	}

	resolved, notFound, failed := tally(records)
	if err := db.RecordOutcomes(run.ID, records); err != nil {
		runLogger.Error("Failed to persist outcomes", "error", err)
	}
	if err := db.FinishRun(run.ID, domain.RunStatusCompleted, resolved, notFound, failed); err != nil {
		runLogger.Error("Failed to finalize run", "error", err)
	}

	runLogger.Info("Resolution run complete",
		"resolved", resolved,
		"not_found", notFound,
		"lookup_failed", failed,
	)
	return nil
}

func loadRequests(db *store.DB, args resolveArgs) ([]domain.SpeciesRequest, string, error) {
	if args.retryFrom != "" {
		prev, err := db.GetRun(args.retryFrom)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load run %s: %w", args.retryFrom, err)
		}
		if prev == nil {
			return nil, "", fmt.Errorf("unknown run: %s", args.retryFrom)
		}
		requests, err := db.UnresolvedSpecies(args.retryFrom)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load unresolved species: %w", err)
		}
		if len(requests) == 0 {
			return nil, "", fmt.Errorf("run %s has no unresolved species", args.retryFrom)
		}
		return requests, "retry:" + args.retryFrom, nil
	}

	requests, err := species.ReadTable(args.speciesPath)
	if err != nil {
		return nil, "", err
	}
	return requests, args.speciesPath, nil
}

func tally(records []domain.ResolutionRecord) (resolved, notFound, failed int) {
	for _, rec := range records {
		switch rec.Status {
		case domain.StatusResolved:
			resolved++
		case domain.StatusNotFound:
			notFound++
		case domain.StatusLookupFailed:
			failed++
		}
	}
	return resolved, notFound, failed
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded resolution runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			db, err := store.NewSQLiteDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open run store: %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTATUS\tTOTAL\tRESOLVED\tNOT FOUND\tFAILED\tSTARTED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					run.ID, run.Status, run.Total, run.Resolved, run.NotFound, run.Failed,
					run.StartedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}
