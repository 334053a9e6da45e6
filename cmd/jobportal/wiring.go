package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/jobportal/internal/artifacts"
	"github.com/jonathan/jobportal/internal/config"
	"github.com/jonathan/jobportal/internal/db"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// openDatabase connects and applies the schema.
func openDatabase(ctx context.Context, cfg *config.ServerConfig) (*db.DB, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// openArtifacts builds the configured resume store. The returned func releases it.
func openArtifacts(ctx context.Context, cfg *config.ServerConfig) (artifacts.Store, func(), error) {
	switch cfg.ArtifactBackend {
	case config.BackendMemory:
		return artifacts.NewMemoryStore(cfg.MemoryBaseURL), func() {}, nil
	case config.BackendGCS:
		gcsCfg := artifacts.GCSConfig{
			Bucket:          cfg.GCSBucket,
			PublicBaseURL:   cfg.GCSPublicBaseURL,
			CredentialsFile: cfg.GCSCredentialsFile,
			Endpoint:        cfg.GCSEndpoint,
		}
		client, err := artifacts.NewGCSClient(ctx, gcsCfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := artifacts.NewGCSStore(client, gcsCfg)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown artifact backend %q", cfg.ArtifactBackend)
	}
}
