// Package types provides type definitions for structured data used throughout the job portal.
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxResumeBytes is the largest resume accepted, inclusive (2 MiB).
const MaxResumeBytes int64 = 2 << 20

// ResumeContentType is the only content type accepted for resumes.
const ResumeContentType = "application/pdf"

// Role distinguishes the two capability-constrained views over applications.
type Role string

// Known roles. Values match what the auth system puts in tokens.
const (
	RoleJobSeeker Role = "Job Seeker"
	RoleEmployer  Role = "Employer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

// ParseRole accepts the canonical role names and a few common spellings
// ("jobseeker", "job_seeker", "employer"), case-insensitively.
func ParseRole(s string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)
	switch normalized {
	case "jobseeker":
		return RoleJobSeeker, true
	case "employer":
		return RoleEmployer, true
	default:
		return "", false
	}
}

// Identity is the authenticated caller of a boundary operation.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Party is one side of an application, captured at submission time.
type Party struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Decision is an employer's review verdict.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// TargetStatus maps a decision onto the status it requests.
// Unknown decisions map to the empty status, which the workflow rejects.
func (d Decision) TargetStatus() Status {
	switch Decision(strings.ToLower(string(d))) {
	case DecisionAccept:
		return StatusAccepted
	case DecisionReject:
		return StatusRejected
	default:
		return ""
	}
}

// ResumeRef points at a stored resume object.
type ResumeRef struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Application is a job seeker's application to a job.
// Everything except Status (and UpdatedAt) is fixed at creation.
type Application struct {
	ID          uuid.UUID `json:"id"`
	Applicant   Party     `json:"applicant"`
	Employer    Party     `json:"employer"`
	JobID       uuid.UUID `json:"job_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	CoverLetter string    `json:"cover_letter"`
	Resume      ResumeRef `json:"resume"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is the subset of a job posting the pipeline reads. Owned by the job service.
type Job struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Country  string    `json:"country"`
	PostedBy uuid.UUID `json:"posted_by"`
}

// SubmitRequest holds the profile fields of a submission.
// JobID stays a string so that an absent value is reported as a missing field.
type SubmitRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Address     string `json:"address" validate:"required"`
	CoverLetter string `json:"cover_letter" validate:"required"`
	JobID       string `json:"job_id" validate:"required"`
}

// ResumeFile is the uploaded resume as received from the client.
type ResumeFile struct {
	Present     bool
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// ReviewRequest is the body of a review call.
type ReviewRequest struct {
	Decision Decision `json:"decision"`
}
