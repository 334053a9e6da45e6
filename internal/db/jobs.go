package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/jobportal/internal/types"
)

// GetJob retrieves a job by ID. Returns nil, nil when it does not exist.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.Job, error) {
	var j types.Job
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, category, country, posted_by FROM jobs WHERE id = $1`,
		id,
	).Scan(&j.ID, &j.Title, &j.Category, &j.Country, &j.PostedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// CreateJob inserts a job and returns it with its assigned ID.
// Used to seed development databases; production jobs come from the job service.
func (db *DB) CreateJob(ctx context.Context, job types.Job) (*types.Job, error) {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, category, country, posted_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		job.Title, job.Category, job.Country, job.PostedBy,
	).Scan(&job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return &job, nil
}
