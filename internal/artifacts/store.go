// Package artifacts stores resume binaries and resolves the URLs applications point at.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

// Prefix is the folder every resume object lives under.
const Prefix = "resume/"

// ErrKeyExists is returned when a write would overwrite an existing object.
var ErrKeyExists = errors.New("object already exists")

// Store is durable binary storage for resumes.
type Store interface {
	// Put stores data under a fresh key derived from ownerID and returns where it can be read.
	// Errors are *types.ErrUploadFailed or *types.ErrURLResolutionFailed; in the latter case
	// the object exists and the returned ResumeRef carries its FileName.
	Put(ctx context.Context, ownerID uuid.UUID, data []byte, contentType string) (types.ResumeRef, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, fileName string) error
	// List returns every stored resume object.
	List(ctx context.Context) ([]Object, error)
}

// Object describes a stored resume.
type Object struct {
	FileName string
	Size     int64
	Created  time.Time
}

// KeyFunc derives an object file name for an owner.
type KeyFunc func(ownerID uuid.UUID) string

// NewKeyFunc returns a KeyFunc of the form <owner>_resume_<unix-nanos>.pdf.
// Keys from the same owner are strictly increasing even when the clock
// does not advance between calls.
func NewKeyFunc(now func() time.Time) KeyFunc {
	var (
		mu   sync.Mutex
		last int64
	)
	return func(ownerID uuid.UUID) string {
		mu.Lock()
		ts := now().UnixNano()
		if ts <= last {
			ts = last + 1
		}
		last = ts
		mu.Unlock()
		return fmt.Sprintf("%s_resume_%d.pdf", ownerID, ts)
	}
}

// ObjectName returns the full object path for a file name.
func ObjectName(fileName string) string {
	return Prefix + fileName
}
