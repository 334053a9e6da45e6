package applications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

// transitions is the whole status graph. Terminal states have no entry.
var transitions = map[types.Status][]types.Status{
	types.StatusPending: {types.StatusAccepted, types.StatusRejected},
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to types.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Workflow applies review decisions to applications.
type Workflow struct {
	store Store
}

// NewWorkflow creates a workflow over store.
func NewWorkflow(store Store) *Workflow {
	return &Workflow{store: store}
}

// Transition moves an application to target on behalf of requester.
//
// Only the employer recorded on the application may transition it, whatever its status.
// Re-requesting a status the application already has is an invalid transition, not a no-op.
func (w *Workflow) Transition(ctx context.Context, id uuid.UUID, requester types.Identity, target types.Status) (*types.Application, error) {
	app, err := w.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}

	if requester.Role != types.RoleEmployer || requester.UserID != app.Employer.UserID {
		return nil, &types.ErrForbidden{Reason: "only the employer who posted the job can review this application"}
	}

	if !CanTransition(app.Status, target) {
		return nil, &types.ErrInvalidTransition{From: app.Status, To: target}
	}

	return w.store.UpdateStatus(ctx, id, app.Status, target)
}
