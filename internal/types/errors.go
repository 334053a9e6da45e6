package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationRule names the intake rule a submission failed.
type ValidationRule string

// Intake rules, in the order they are checked.
const (
	RuleMissingFields     ValidationRule = "missing_fields"
	RuleMissingResume     ValidationRule = "missing_resume"
	RuleResumeTooLarge    ValidationRule = "resume_too_large"
	RuleInvalidResumeType ValidationRule = "invalid_resume_type"
	RuleCorruptResume     ValidationRule = "corrupt_resume"
)

// ErrValidation indicates a submission failed an intake rule.
type ErrValidation struct {
	Rule   ValidationRule
	Fields []string // set for RuleMissingFields
}

func (e *ErrValidation) Error() string {
	switch e.Rule {
	case RuleMissingFields:
		if len(e.Fields) > 0 {
			return "all fields are required, missing: " + strings.Join(e.Fields, ", ")
		}
		return "all fields are required"
	case RuleMissingResume:
		return "resume file is required"
	case RuleResumeTooLarge:
		return "resume must be at most 2MB"
	case RuleInvalidResumeType:
		return "only PDF resumes are allowed"
	case RuleCorruptResume:
		return "resume is not a readable PDF"
	default:
		return fmt.Sprintf("validation failed: %s", e.Rule)
	}
}

// ErrJobNotFound indicates the job applied for does not exist.
type ErrJobNotFound struct {
	JobID string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobID)
}

// ErrDuplicateApplication indicates the applicant already applied for the job.
type ErrDuplicateApplication struct {
	ApplicantID uuid.UUID
	JobID       uuid.UUID
}

func (e *ErrDuplicateApplication) Error() string {
	return "you have already applied for this job"
}

// ErrUploadFailed indicates the resume could not be written to the artifact store.
type ErrUploadFailed struct {
	Key   string
	Cause error
}

func (e *ErrUploadFailed) Error() string {
	return fmt.Sprintf("resume upload failed for %s: %v", e.Key, e.Cause)
}

func (e *ErrUploadFailed) Unwrap() error {
	return e.Cause
}

// ErrURLResolutionFailed indicates the resume was stored but no URL could be produced for it.
type ErrURLResolutionFailed struct {
	Key   string
	Cause error
}

func (e *ErrURLResolutionFailed) Error() string {
	return fmt.Sprintf("could not generate resume URL for %s: %v", e.Key, e.Cause)
}

func (e *ErrURLResolutionFailed) Unwrap() error {
	return e.Cause
}

// ErrForbidden indicates the caller may not perform the operation.
type ErrForbidden struct {
	Reason string
}

func (e *ErrForbidden) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// ErrInvalidTransition indicates a status change outside the workflow graph.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	to := string(e.To)
	if to == "" {
		to = "<none>"
	}
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, to)
}

// ErrApplicationNotFound indicates no application exists with the given id.
type ErrApplicationNotFound struct {
	ID uuid.UUID
}

func (e *ErrApplicationNotFound) Error() string {
	return fmt.Sprintf("application not found: %s", e.ID)
}
