package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/jobportal/internal/applications"
	"github.com/jonathan/jobportal/internal/config"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Delete stored resumes that no application references",
	Long: `Scans the resume bucket and deletes objects older than the grace period that no
application points at. These are left behind when a submission fails after its
upload and the compensating delete also fails. Prints a JSON report.`,
	RunE: runReconcile,
}

var (
	reconcileGrace       time.Duration
	reconcileConcurrency int
	reconcileDryRun      bool
)

func init() {
	reconcileCmd.Flags().DurationVar(&reconcileGrace, "grace", applications.DefaultReconcileGrace, "Skip objects younger than this")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", applications.DefaultReconcileConcurrency, "Parallel reference lookups and deletes")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report orphans without deleting them")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.ArtifactBackend != config.BackendGCS {
		return fmt.Errorf("reconcile requires the %s artifact backend", config.BackendGCS)
	}

	ctx := cmd.Context()
	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store, closeArtifacts, err := openArtifacts(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeArtifacts()

	reconciler := applications.NewReconciler(database, store, applications.ReconcileOptions{
		Grace:       reconcileGrace,
		Concurrency: reconcileConcurrency,
		DryRun:      reconcileDryRun,
		Logger:      newLogger(),
	})
	report, err := reconciler.Sweep(ctx)
	if report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return fmt.Errorf("failed to write report: %w", encErr)
		}
	}
	if err != nil {
		return fmt.Errorf("reconcile stopped: %w", err)
	}
	return nil
}
