package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultPublicBaseURL serves public GCS objects.
const DefaultPublicBaseURL = "https://storage.googleapis.com"

// GCSConfig configures a GCSStore.
type GCSConfig struct {
	Bucket          string
	PublicBaseURL   string // defaults to DefaultPublicBaseURL
	CredentialsFile string // optional; application default credentials otherwise
	Endpoint        string // optional; e.g. a local emulator
	CacheControl    string
}

// GCSStore keeps resumes in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	cfg    GCSConfig
	keys   KeyFunc
}

// NewGCSClient creates the storage client a GCSStore uses.
// The client is meant to be created once per process and shared.
func NewGCSClient(ctx context.Context, cfg GCSConfig) (*storage.Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// NewGCSStore wraps an existing client. The caller owns the client's lifecycle.
func NewGCSStore(client *storage.Client, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name must be provided")
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = DefaultPublicBaseURL
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "public, max-age=3600"
	}
	return &GCSStore{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		cfg:    cfg,
		keys:   NewKeyFunc(time.Now),
	}, nil
}

// Put implements Store. The write only succeeds if the object does not exist yet,
// so a key collision never overwrites another submission's resume.
func (s *GCSStore) Put(ctx context.Context, ownerID uuid.UUID, data []byte, contentType string) (types.ResumeRef, error) {
	fileName := s.keys(ownerID)
	name := ObjectName(fileName)
	obj := s.bucket.Object(name)

	w := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = s.cfg.CacheControl
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return types.ResumeRef{}, &types.ErrUploadFailed{Key: name, Cause: err}
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Warn("Resume key collision, refusing to overwrite.", "object", name)
			err = ErrKeyExists
		}
		return types.ResumeRef{}, &types.ErrUploadFailed{Key: name, Cause: err}
	}

	ref := types.ResumeRef{FileName: fileName}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return ref, &types.ErrURLResolutionFailed{Key: name, Cause: err}
	}
	u, err := publicURL(s.cfg.PublicBaseURL, attrs.Bucket, attrs.Name)
	if err != nil {
		return ref, &types.ErrURLResolutionFailed{Key: name, Cause: err}
	}
	ref.URL = u
	return ref, nil
}

// Delete implements Store.
func (s *GCSStore) Delete(ctx context.Context, fileName string) error {
	err := s.bucket.Object(ObjectName(fileName)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", fileName, err)
	}
	return nil
}

// List implements Store.
func (s *GCSStore) List(ctx context.Context) ([]Object, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: Prefix})
	var objects []Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list resume objects: %w", err)
		}
		fileName := strings.TrimPrefix(attrs.Name, Prefix)
		if fileName == "" || strings.Contains(fileName, "/") {
			continue
		}
		objects = append(objects, Object{FileName: fileName, Size: attrs.Size, Created: attrs.Created})
	}
	return objects, nil
}

// publicURL joins base, bucket and object name, escaping each path segment.
func publicURL(base, bucket, name string) (string, error) {
	if bucket == "" || name == "" {
		return "", fmt.Errorf("object has no bucket or name")
	}
	segments := append([]string{bucket}, strings.Split(name, "/")...)
	u, err := url.JoinPath(base, segments...)
	if err != nil {
		return "", fmt.Errorf("invalid public base URL %q: %w", base, err)
	}
	return u, nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
