// Package applications implements the application submission and review pipeline.
package applications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

// Store is the persistent record store for applications. It is the single source of truth
// for application state and the only place the (applicant, job) uniqueness is authoritative.
type Store interface {
	// Create persists a new application. The store assigns ID, Status (Pending) and CreatedAt.
	// It returns *types.ErrDuplicateApplication when a record for the same
	// (applicant, job) pair already exists, including one written concurrently.
	Create(ctx context.Context, draft *types.Application) (*types.Application, error)
	// Find returns the application for an (applicant, job) pair, or nil if there is none.
	Find(ctx context.Context, applicantID, jobID uuid.UUID) (*types.Application, error)
	// Get returns the application with the given id, or nil if there is none.
	Get(ctx context.Context, id uuid.UUID) (*types.Application, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]types.Application, error)
	ListByEmployer(ctx context.Context, employerID uuid.UUID) ([]types.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]types.Application, error)
	// UpdateStatus sets the status to `to` only if it currently is `from`.
	// It returns *types.ErrApplicationNotFound if the id does not exist and
	// *types.ErrInvalidTransition if the status is no longer `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to types.Status) (*types.Application, error)
	// Delete removes the application and returns it, freeing its (applicant, job) slot.
	Delete(ctx context.Context, id uuid.UUID) (*types.Application, error)
	// ResumeInUse reports whether any application references the resume file.
	ResumeInUse(ctx context.Context, fileName string) (bool, error)
}

// JobLookup resolves jobs owned by the job service.
type JobLookup interface {
	// GetJob returns the job, or nil if it does not exist.
	GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error)
}
