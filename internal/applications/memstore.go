package applications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

type pairKey struct {
	applicant uuid.UUID
	job       uuid.UUID
}

type memoryRecord struct {
	app types.Application
	seq uint64
}

// MemoryStore is an in-process Store. The (applicant, job) index is checked and written
// under the same lock as the record, which makes Create the atomic uniqueness point.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*memoryRecord
	byPair map[pairKey]uuid.UUID
	seq    uint64
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*memoryRecord),
		byPair: make(map[pairKey]uuid.UUID),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, draft *types.Application) (*types.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := pairKey{applicant: draft.Applicant.UserID, job: draft.JobID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byPair[key]; exists {
		return nil, &types.ErrDuplicateApplication{ApplicantID: key.applicant, JobID: key.job}
	}

	app := *draft
	app.ID = uuid.New()
	app.Status = types.StatusPending
	app.CreatedAt = m.now()
	app.UpdatedAt = app.CreatedAt

	m.seq++
	m.byID[app.ID] = &memoryRecord{app: app, seq: m.seq}
	m.byPair[key] = app.ID

	out := app
	return &out, nil
}

// Find implements Store.
func (m *MemoryStore) Find(_ context.Context, applicantID, jobID uuid.UUID) (*types.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPair[pairKey{applicant: applicantID, job: jobID}]
	if !ok {
		return nil, nil
	}
	app := m.byID[id].app
	return &app, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*types.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	app := rec.app
	return &app, nil
}

// ListByApplicant implements Store.
func (m *MemoryStore) ListByApplicant(_ context.Context, applicantID uuid.UUID) ([]types.Application, error) {
	return m.list(func(app *types.Application) bool { return app.Applicant.UserID == applicantID }), nil
}

// ListByEmployer implements Store.
func (m *MemoryStore) ListByEmployer(_ context.Context, employerID uuid.UUID) ([]types.Application, error) {
	return m.list(func(app *types.Application) bool { return app.Employer.UserID == employerID }), nil
}

// ListByJob implements Store.
func (m *MemoryStore) ListByJob(_ context.Context, jobID uuid.UUID) ([]types.Application, error) {
	return m.list(func(app *types.Application) bool { return app.JobID == jobID }), nil
}

func (m *MemoryStore) list(match func(*types.Application) bool) []types.Application {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]*memoryRecord, 0)
	for _, rec := range m.byID {
		if match(&rec.app) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	apps := make([]types.Application, len(recs))
	for i, rec := range recs {
		apps[i] = rec.app
	}
	return apps
}

// UpdateStatus implements Store.
func (m *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to types.Status) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}
	if rec.app.Status != from {
		return nil, &types.ErrInvalidTransition{From: rec.app.Status, To: to}
	}
	rec.app.Status = to
	rec.app.UpdatedAt = m.now()

	app := rec.app
	return &app, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byID[id]
	if !ok {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}
	delete(m.byID, id)
	delete(m.byPair, pairKey{applicant: rec.app.Applicant.UserID, job: rec.app.JobID})

	app := rec.app
	return &app, nil
}

// ResumeInUse implements Store.
func (m *MemoryStore) ResumeInUse(_ context.Context, fileName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.byID {
		if rec.app.Resume.FileName == fileName {
			return true, nil
		}
	}
	return false, nil
}

// StaticJobs is a JobLookup over a fixed set of jobs.
type StaticJobs map[uuid.UUID]types.Job

// GetJob implements JobLookup.
func (j StaticJobs) GetJob(_ context.Context, id uuid.UUID) (*types.Job, error) {
	job, ok := j[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}
