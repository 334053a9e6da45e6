package artifacts

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
)

type memoryObject struct {
	data        []byte
	contentType string
	created     time.Time
}

// MemoryStore keeps resumes in process memory. Used for local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	keys    KeyFunc
	now     func() time.Time
}

// NewMemoryStore creates an empty store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: baseURL,
		keys:    NewKeyFunc(time.Now),
		now:     time.Now,
	}
}

// WithKeyFunc replaces the key derivation. Intended for tests.
func (s *MemoryStore) WithKeyFunc(keys KeyFunc) *MemoryStore {
	s.keys = keys
	return s
}

// WithClock replaces the creation-time clock. Intended for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, ownerID uuid.UUID, data []byte, contentType string) (types.ResumeRef, error) {
	fileName := s.keys(ownerID)
	name := ObjectName(fileName)
	if err := ctx.Err(); err != nil {
		return types.ResumeRef{}, &types.ErrUploadFailed{Key: name, Cause: err}
	}

	s.mu.Lock()
	if _, exists := s.objects[name]; exists {
		s.mu.Unlock()
		return types.ResumeRef{}, &types.ErrUploadFailed{Key: name, Cause: ErrKeyExists}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[name] = memoryObject{data: buf, contentType: contentType, created: s.now()}
	s.mu.Unlock()

	ref := types.ResumeRef{FileName: fileName}
	u, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return ref, &types.ErrURLResolutionFailed{Key: name, Cause: err}
	}
	ref.URL = u
	return ref, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, fileName string) error {
	s.mu.Lock()
	delete(s.objects, ObjectName(fileName))
	s.mu.Unlock()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := make([]Object, 0, len(s.objects))
	for name, obj := range s.objects {
		objects = append(objects, Object{
			FileName: name[len(Prefix):],
			Size:     int64(len(obj.data)),
			Created:  obj.created,
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].FileName < objects[j].FileName })
	return objects, nil
}

// Get returns a stored object's bytes and content type.
func (s *MemoryStore) Get(fileName string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[ObjectName(fileName)]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
