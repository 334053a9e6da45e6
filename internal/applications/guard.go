package applications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

// DuplicationGuard rejects a submission early when the applicant already applied for the job.
// It is a fast path only; Store.Create is what actually enforces uniqueness.
type DuplicationGuard struct {
	store Store
}

// NewDuplicationGuard creates a guard reading from store.
func NewDuplicationGuard(store Store) *DuplicationGuard {
	return &DuplicationGuard{store: store}
}

// Check returns *types.ErrDuplicateApplication if a record exists for the pair.
func (g *DuplicationGuard) Check(ctx context.Context, applicantID, jobID uuid.UUID) error {
	existing, err := g.store.Find(ctx, applicantID, jobID)
	if err != nil {
		return fmt.Errorf("failed to check existing application: %w", err)
	}
	if existing != nil {
		return &types.ErrDuplicateApplication{ApplicantID: applicantID, JobID: jobID}
	}
	return nil
}
