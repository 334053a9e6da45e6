package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/jobportal/internal/applications"
	"github.com/jonathan/jobportal/internal/config"
	"github.com/jonathan/jobportal/internal/server"
	"github.com/jonathan/jobportal/internal/server/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for submitting, reviewing and withdrawing job applications.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	// The storage client keeps its context for credential refreshes.
	store, closeArtifacts, err := openArtifacts(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeArtifacts()
	if cfg.ArtifactBackend == config.BackendMemory {
		logger.Warn("Using in-memory artifact store; resumes are lost on restart.")
	}

	svc := applications.NewService(database, database, store, applications.Options{
		VerifyPDF:      cfg.VerifyPDF,
		CleanupTimeout: time.Duration(cfg.CleanupTimeout),
		Logger:         logger,
	})

	submitLimiter, closeLimiter, err := newSubmitLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLimiter()

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		Service:        svc,
		TokenValidator: server.NewJWTService(jwtCfg).AsTokenValidator(),
		Health:         database,
		RateLimiter:    ratelimit.NewLimiter(ratelimit.LoadConfig()),
		SubmitLimiter:  submitLimiter,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// newSubmitLimiter returns the per-applicant submission limiter. Redis backs it when
// REDIS_URL is set so the limit holds across replicas.
func newSubmitLimiter(ctx context.Context, cfg *config.ServerConfig) (ratelimit.WindowLimiter, func(), error) {
	window := time.Duration(cfg.SubmitRateWindow)
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryWindow(cfg.SubmitRateLimit, window), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	limiter := ratelimit.NewRedisWindow(client, cfg.SubmitRateLimit, window, "jobportal:submit:")
	return limiter, func() { _ = client.Close() }, nil
}
