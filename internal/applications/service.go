package applications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/artifacts"
	"github.com/jonathan/jobportal/internal/types"
)

// DefaultCleanupTimeout bounds a compensating resume delete.
const DefaultCleanupTimeout = 10 * time.Second

// Options tunes a Service.
type Options struct {
	// VerifyPDF makes intake parse the resume as a PDF after the content-type rule.
	VerifyPDF bool
	// CleanupTimeout bounds the delete issued when a submission fails after its upload.
	CleanupTimeout time.Duration
	Logger         *slog.Logger
}

// Service exposes the boundary operations of the application pipeline.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store          Store
	jobs           JobLookup
	artifacts      artifacts.Store
	intake         *IntakeValidator
	guard          *DuplicationGuard
	workflow       *Workflow
	logger         *slog.Logger
	cleanupTimeout time.Duration
}

// NewService wires the pipeline around its collaborators.
func NewService(store Store, jobs JobLookup, artifactStore artifacts.Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cleanupTimeout := opts.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = DefaultCleanupTimeout
	}
	return &Service{
		store:          store,
		jobs:           jobs,
		artifacts:      artifactStore,
		intake:         NewIntakeValidator(opts.VerifyPDF),
		guard:          NewDuplicationGuard(store),
		workflow:       NewWorkflow(store),
		logger:         logger,
		cleanupTimeout: cleanupTimeout,
	}
}

// Submit runs a job seeker's application through validation, job resolution,
// the duplication check, resume upload and record creation, in that order.
// The first failing step aborts the rest and its error is returned.
func (s *Service) Submit(ctx context.Context, requester types.Identity, req types.SubmitRequest, file types.ResumeFile) (*types.Application, error) {
	if requester.Role != types.RoleJobSeeker {
		return nil, &types.ErrForbidden{Reason: "employers are not allowed to apply for jobs"}
	}

	if err := s.intake.Validate(&req, file); err != nil {
		return nil, err
	}

	job, err := s.resolveJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	if err := s.guard.Check(ctx, requester.UserID, job.ID); err != nil {
		return nil, err
	}

	logger := s.logger.With("applicantId", requester.UserID, "jobId", job.ID)

	resume, err := s.artifacts.Put(ctx, requester.UserID, file.Data, file.ContentType)
	if err != nil {
		var urlErr *types.ErrURLResolutionFailed
		if errors.As(err, &urlErr) && resume.FileName != "" {
			s.discardResume(ctx, logger, resume.FileName, err)
		} else {
			logger.Error("Resume upload failed.", "error", err)
		}
		return nil, err
	}

	created, err := s.store.Create(ctx, &types.Application{
		Applicant:   types.Party{UserID: requester.UserID, Role: types.RoleJobSeeker},
		Employer:    types.Party{UserID: job.PostedBy, Role: types.RoleEmployer},
		JobID:       job.ID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		CoverLetter: req.CoverLetter,
		Resume:      resume,
	})
	if err != nil {
		s.discardResume(ctx, logger, resume.FileName, err)
		var dup *types.ErrDuplicateApplication
		if errors.As(err, &dup) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	logger.Info("Application submitted.", "applicationId", created.ID, "resumeFile", resume.FileName)
	return created, nil
}

func (s *Service) resolveJob(ctx context.Context, rawID string) (*types.Job, error) {
	jobID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, &types.ErrJobNotFound{JobID: rawID}
	}
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up job: %w", err)
	}
	if job == nil {
		return nil, &types.ErrJobNotFound{JobID: rawID}
	}
	return job, nil
}

// discardResume deletes an uploaded resume that no record will reference.
// The delete is detached from ctx's cancellation and bounded by the cleanup timeout.
func (s *Service) discardResume(ctx context.Context, logger *slog.Logger, fileName string, cause error) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	if err := s.artifacts.Delete(cleanupCtx, fileName); err != nil {
		logger.Error("Orphaned resume artifact left for reconciliation.",
			"resumeFile", fileName, "cause", cause, "error", err)
		return
	}
	logger.Warn("Discarded unreferenced resume artifact.", "resumeFile", fileName, "cause", cause)
}

// ListForApplicant returns the caller's own applications, oldest first.
func (s *Service) ListForApplicant(ctx context.Context, requester types.Identity) ([]types.Application, error) {
	if requester.Role != types.RoleJobSeeker {
		return nil, &types.ErrForbidden{Reason: "employers are not allowed to access this resource"}
	}
	apps, err := s.store.ListByApplicant(ctx, requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListForEmployer returns applications to jobs the caller posted, oldest first.
func (s *Service) ListForEmployer(ctx context.Context, requester types.Identity) ([]types.Application, error) {
	if requester.Role != types.RoleEmployer {
		return nil, &types.ErrForbidden{Reason: "job seekers are not allowed to access this resource"}
	}
	apps, err := s.store.ListByEmployer(ctx, requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListForJob returns the applications to one of the caller's jobs, oldest first.
func (s *Service) ListForJob(ctx context.Context, requester types.Identity, jobID uuid.UUID) ([]types.Application, error) {
	if requester.Role != types.RoleEmployer {
		return nil, &types.ErrForbidden{Reason: "job seekers are not allowed to access this resource"}
	}
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up job: %w", err)
	}
	if job == nil {
		return nil, &types.ErrJobNotFound{JobID: jobID.String()}
	}
	if job.PostedBy != requester.UserID {
		return nil, &types.ErrForbidden{Reason: "job belongs to another employer"}
	}
	apps, err := s.store.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	// The job's owner may have changed since these were submitted.
	owned := apps[:0]
	for _, app := range apps {
		if app.Employer.UserID == requester.UserID {
			owned = append(owned, app)
		}
	}
	return owned, nil
}

// Get returns one application to either of its parties.
func (s *Service) Get(ctx context.Context, requester types.Identity, id uuid.UUID) (*types.Application, error) {
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}
	if requester.UserID != app.Applicant.UserID && requester.UserID != app.Employer.UserID {
		return nil, &types.ErrForbidden{Reason: "application belongs to someone else"}
	}
	return app, nil
}

// Review applies an employer's decision to a pending application.
func (s *Service) Review(ctx context.Context, requester types.Identity, id uuid.UUID, decision types.Decision) (*types.Application, error) {
	updated, err := s.workflow.Transition(ctx, id, requester, decision.TargetStatus())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Application reviewed.", "applicationId", id, "employerId", requester.UserID, "status", updated.Status)
	return updated, nil
}

// Withdraw deletes the caller's application so they may apply again.
// The resume is deleted afterwards; if that fails the object is left for reconciliation.
func (s *Service) Withdraw(ctx context.Context, requester types.Identity, id uuid.UUID) (*types.Application, error) {
	if requester.Role != types.RoleJobSeeker {
		return nil, &types.ErrForbidden{Reason: "employers are not allowed to delete applications"}
	}
	app, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}
	if app.Applicant.UserID != requester.UserID {
		return nil, &types.ErrForbidden{Reason: "application belongs to someone else"}
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("applicationId", id, "applicantId", requester.UserID)
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()
	if err := s.artifacts.Delete(cleanupCtx, deleted.Resume.FileName); err != nil {
		logger.Error("Orphaned resume artifact left for reconciliation.",
			"resumeFile", deleted.Resume.FileName, "error", err)
	}
	logger.Info("Application withdrawn.")
	return deleted, nil
}
