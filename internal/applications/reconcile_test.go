package applications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/artifacts"
	"github.com/jonathan/jobportal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconcileFixture struct {
	store      *MemoryStore
	artifacts  *artifacts.MemoryStore
	clock      time.Time
	referenced string
	orphan     string
	fresh      string
}

// newReconcileFixture stores one referenced resume and one orphan, both two
// hours old, plus a fresh orphan.
func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()
	ctx := context.Background()
	f := &reconcileFixture{
		store: NewMemoryStore(),
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	created := f.clock.Add(-2 * time.Hour)
	f.artifacts = artifacts.NewMemoryStore("https://files.example.com").WithClock(func() time.Time { return created })

	owner := uuid.New()
	ref, err := f.artifacts.Put(ctx, owner, []byte("%PDF"), types.ResumeContentType)
	require.NoError(t, err)
	f.referenced = ref.FileName
	_, err = f.store.Create(ctx, &types.Application{
		Applicant: types.Party{UserID: owner, Role: types.RoleJobSeeker},
		JobID:     uuid.New(),
		Resume:    ref,
	})
	require.NoError(t, err)

	orphan, err := f.artifacts.Put(ctx, uuid.New(), []byte("%PDF"), types.ResumeContentType)
	require.NoError(t, err)
	f.orphan = orphan.FileName

	created = f.clock.Add(-time.Minute)
	fresh, err := f.artifacts.Put(ctx, uuid.New(), []byte("%PDF"), types.ResumeContentType)
	require.NoError(t, err)
	f.fresh = fresh.FileName
	return f
}

func (f *reconcileFixture) reconciler(store Store, artifactStore artifacts.Store, opts ReconcileOptions) *Reconciler {
	opts.Logger = discardLogger()
	r := NewReconciler(store, artifactStore, opts)
	r.now = func() time.Time { return f.clock }
	return r
}

func TestReconciler_DeletesOldOrphans(t *testing.T) {
	f := newReconcileFixture(t)

	report, err := f.reconciler(f.store, f.artifacts, ReconcileOptions{}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.TooYoung)
	assert.Equal(t, 1, report.Referenced)
	assert.Equal(t, []string{f.orphan}, report.Orphans)
	assert.Equal(t, 1, report.Deleted)

	_, _, ok := f.artifacts.Get(f.orphan)
	assert.False(t, ok)
	_, _, ok = f.artifacts.Get(f.referenced)
	assert.True(t, ok)
	_, _, ok = f.artifacts.Get(f.fresh)
	assert.True(t, ok, "objects inside the grace period are kept")
}

func TestReconciler_DryRun(t *testing.T) {
	f := newReconcileFixture(t)

	report, err := f.reconciler(f.store, f.artifacts, ReconcileOptions{DryRun: true}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{f.orphan}, report.Orphans)
	assert.Zero(t, report.Deleted)
	assert.Equal(t, 3, f.artifacts.Len())
}

func TestReconciler_ShortGraceIncludesFreshObjects(t *testing.T) {
	f := newReconcileFixture(t)

	report, err := f.reconciler(f.store, f.artifacts, ReconcileOptions{Grace: time.Second}).Sweep(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TooYoung)
	assert.ElementsMatch(t, []string{f.orphan, f.fresh}, report.Orphans)
	assert.Equal(t, 1, f.artifacts.Len())
}

func TestReconciler_DeleteErrorStopsSweep(t *testing.T) {
	f := newReconcileFixture(t)
	faulty := &faultyArtifacts{MemoryStore: f.artifacts, deleteErr: errors.New("permission denied")}

	report, err := f.reconciler(f.store, faulty, ReconcileOptions{}).Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), f.orphan)
	require.NotNil(t, report)
	assert.Zero(t, report.Deleted)
}

type failingLookupStore struct {
	*MemoryStore
}

func (failingLookupStore) ResumeInUse(context.Context, string) (bool, error) {
	return false, errors.New("database unavailable")
}

func TestReconciler_StoreErrorDeletesNothing(t *testing.T) {
	f := newReconcileFixture(t)

	_, err := f.reconciler(failingLookupStore{f.store}, f.artifacts, ReconcileOptions{}).Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, f.artifacts.Len())
}
