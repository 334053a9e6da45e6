package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/jobportal/internal/types"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const (
	uniqueViolation        = "23505"
	applicantJobConstraint = "applications_applicant_job_key"
)

const applicationColumns = `id, applicant_id, applicant_role, employer_id, employer_role, job_id,
	name, email, phone, address, cover_letter, resume_url, resume_file_name,
	status, created_at, updated_at`

func scanApplication(row pgx.Row) (*types.Application, error) {
	var a types.Application
	err := row.Scan(&a.ID, &a.Applicant.UserID, &a.Applicant.Role, &a.Employer.UserID, &a.Employer.Role,
		&a.JobID, &a.Name, &a.Email, &a.Phone, &a.Address, &a.CoverLetter,
		&a.Resume.URL, &a.Resume.FileName, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// isDuplicatePair reports whether err is the unique violation on (applicant_id, job_id).
func isDuplicatePair(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == applicantJobConstraint
}

// Create inserts a new application in the Pending status.
// A concurrent or earlier application for the same pair yields *types.ErrDuplicateApplication.
func (db *DB) Create(ctx context.Context, draft *types.Application) (*types.Application, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO applications (applicant_id, applicant_role, employer_id, employer_role, job_id,
		        name, email, phone, address, cover_letter, resume_url, resume_file_name, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+applicationColumns,
		draft.Applicant.UserID, draft.Applicant.Role, draft.Employer.UserID, draft.Employer.Role, draft.JobID,
		draft.Name, draft.Email, draft.Phone, draft.Address, draft.CoverLetter,
		draft.Resume.URL, draft.Resume.FileName, types.StatusPending,
	)
	app, err := scanApplication(row)
	if err != nil {
		if isDuplicatePair(err) {
			return nil, &types.ErrDuplicateApplication{ApplicantID: draft.Applicant.UserID, JobID: draft.JobID}
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// Find retrieves the application for an applicant and job, or nil, nil.
func (db *DB) Find(ctx context.Context, applicantID, jobID uuid.UUID) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE applicant_id = $1 AND job_id = $2`,
		applicantID, jobID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return app, nil
}

// Get retrieves an application by ID, or nil, nil.
func (db *DB) Get(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListByApplicant lists an applicant's applications, oldest first.
func (db *DB) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]types.Application, error) {
	return db.listApplications(ctx, "applicant_id", applicantID)
}

// ListByEmployer lists applications to an employer's jobs, oldest first.
func (db *DB) ListByEmployer(ctx context.Context, employerID uuid.UUID) ([]types.Application, error) {
	return db.listApplications(ctx, "employer_id", employerID)
}

// ListByJob lists applications to a job, oldest first.
func (db *DB) ListByJob(ctx context.Context, jobID uuid.UUID) ([]types.Application, error) {
	return db.listApplications(ctx, "job_id", jobID)
}

// listApplications filters on one of the indexed id columns. column is never user input.
func (db *DB) listApplications(ctx context.Context, column string, id uuid.UUID) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM applications WHERE %s = $1 ORDER BY created_at ASC, id ASC`, applicationColumns, column),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []types.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus moves an application from one status to another, only if it is
// still in from. A lost race reports the status it actually holds.
func (db *DB) UpdateStatus(ctx context.Context, id uuid.UUID, from, to types.Status) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`UPDATE applications SET status = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $2
		 RETURNING `+applicationColumns,
		id, from, to,
	))
	if err == nil {
		return app, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}

	current, err := db.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &types.ErrApplicationNotFound{ID: id}
	}
	return nil, &types.ErrInvalidTransition{From: current.Status, To: to}
}

// Delete removes an application and returns what was removed.
func (db *DB) Delete(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	app, err := scanApplication(db.pool.QueryRow(ctx,
		`DELETE FROM applications WHERE id = $1 RETURNING `+applicationColumns,
		id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &types.ErrApplicationNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to delete application: %w", err)
	}
	return app, nil
}

// ResumeInUse reports whether any application references the resume file.
func (db *DB) ResumeInUse(ctx context.Context, fileName string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE resume_file_name = $1)`,
		fileName,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check resume references: %w", err)
	}
	return exists, nil
}
