package applications

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonathan/jobportal/internal/artifacts"
	"golang.org/x/sync/errgroup"
)

// Defaults for a Reconciler.
const (
	DefaultReconcileGrace       = time.Hour
	DefaultReconcileConcurrency = 8
)

// ReconcileOptions tunes a Reconciler.
type ReconcileOptions struct {
	// Grace protects objects younger than this; they may belong to an in-flight submission.
	Grace       time.Duration
	Concurrency int
	DryRun      bool
	Logger      *slog.Logger
}

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Scanned    int      `json:"scanned"`
	TooYoung   int      `json:"too_young"`
	Referenced int      `json:"referenced"`
	Orphans    []string `json:"orphans"`
	Deleted    int      `json:"deleted"`
}

// Reconciler removes resume objects that no application references, such as
// the leftovers of a failed compensating delete.
type Reconciler struct {
	store     Store
	artifacts artifacts.Store
	opts      ReconcileOptions
	now       func() time.Time
}

// NewReconciler creates a reconciler.
func NewReconciler(store Store, artifactStore artifacts.Store, opts ReconcileOptions) *Reconciler {
	if opts.Grace <= 0 {
		opts.Grace = DefaultReconcileGrace
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultReconcileConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{store: store, artifacts: artifactStore, opts: opts, now: time.Now}
}

// Sweep runs one pass. It stops at the first store or delete error.
func (r *Reconciler) Sweep(ctx context.Context) (*SweepReport, error) {
	objects, err := r.artifacts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resume objects: %w", err)
	}

	report := &SweepReport{Scanned: len(objects)}
	cutoff := r.now().Add(-r.opts.Grace)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, obj := range objects {
		if obj.Created.After(cutoff) {
			report.TooYoung++
			continue
		}
		g.Go(func() error {
			inUse, err := r.store.ResumeInUse(gctx, obj.FileName)
			if err != nil {
				return fmt.Errorf("failed to check references to %s: %w", obj.FileName, err)
			}
			if inUse {
				mu.Lock()
				report.Referenced++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			report.Orphans = append(report.Orphans, obj.FileName)
			mu.Unlock()

			if r.opts.DryRun {
				r.opts.Logger.Info("Orphaned resume found (dry run).", "resumeFile", obj.FileName)
				return nil
			}
			if err := r.artifacts.Delete(gctx, obj.FileName); err != nil {
				return fmt.Errorf("failed to delete orphaned resume %s: %w", obj.FileName, err)
			}
			r.opts.Logger.Info("Deleted orphaned resume.", "resumeFile", obj.FileName, "created", obj.Created)

			mu.Lock()
			report.Deleted++
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	sort.Strings(report.Orphans)
	if err != nil {
		return report, err
	}
	return report, nil
}
