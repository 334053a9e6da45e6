package applications

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/artifacts"
	"github.com/jonathan/jobportal/internal/types"
)

type fixture struct {
	svc       *Service
	store     *MemoryStore
	artifacts *artifacts.MemoryStore
	jobs      StaticJobs
	seeker    types.Identity
	employer  types.Identity
	job       types.Job
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	employer := types.Identity{UserID: uuid.New(), Role: types.RoleEmployer}
	job := types.Job{ID: uuid.New(), Title: "Backend Engineer", Category: "Engineering", Country: "NL", PostedBy: employer.UserID}
	f := &fixture{
		store:     NewMemoryStore(),
		artifacts: artifacts.NewMemoryStore("https://files.example.com"),
		jobs:      StaticJobs{job.ID: job},
		seeker:    types.Identity{UserID: uuid.New(), Role: types.RoleJobSeeker},
		employer:  employer,
		job:       job,
	}
	f.svc = NewService(f.store, f.jobs, f.artifacts, Options{Logger: discardLogger()})
	return f
}

func (f *fixture) withArtifacts(store artifacts.Store) *fixture {
	f.svc = NewService(f.store, f.jobs, store, Options{Logger: discardLogger()})
	return f
}

func validRequest(jobID uuid.UUID) types.SubmitRequest {
	return types.SubmitRequest{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Phone:       "+31 20 555 0100",
		Address:     "1 Analytical Way",
		CoverLetter: "I would love to work on your engines.",
		JobID:       jobID.String(),
	}
}

func pdfFile(size int) types.ResumeFile {
	return types.ResumeFile{
		Present:     true,
		FileName:    "cv.pdf",
		ContentType: types.ResumeContentType,
		Size:        int64(size),
		Data:        bytes.Repeat([]byte("x"), size),
	}
}

// faultyArtifacts wraps a MemoryStore and injects failures.
type faultyArtifacts struct {
	*artifacts.MemoryStore
	putErr      error
	failURL     bool
	deleteErr   error
	deleteCalls atomic.Int32
}

func (f *faultyArtifacts) Put(ctx context.Context, owner uuid.UUID, data []byte, contentType string) (types.ResumeRef, error) {
	if f.putErr != nil {
		return types.ResumeRef{}, &types.ErrUploadFailed{Key: "resume/x", Cause: f.putErr}
	}
	ref, err := f.MemoryStore.Put(ctx, owner, data, contentType)
	if err != nil {
		return ref, err
	}
	if f.failURL {
		return types.ResumeRef{FileName: ref.FileName}, &types.ErrURLResolutionFailed{
			Key:   artifacts.ObjectName(ref.FileName),
			Cause: errors.New("attrs unavailable"),
		}
	}
	return ref, nil
}

func (f *faultyArtifacts) Delete(ctx context.Context, fileName string) error {
	f.deleteCalls.Add(1)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(ctx, fileName)
}

// failingCreateStore fails every Create with err.
type failingCreateStore struct {
	*MemoryStore
	err error
}

func (s *failingCreateStore) Create(context.Context, *types.Application) (*types.Application, error) {
	return nil, s.err
}
