// Package server provides the HTTP API for job applications.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/jobportal/internal/schemas"
	"github.com/jonathan/jobportal/internal/types"
)

// ErrBadRequest indicates a malformed request that never reached the pipeline.
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

// ErrRateLimited indicates the caller exceeded the submission limit.
type ErrRateLimited struct{}

func (e *ErrRateLimited) Error() string {
	return "too many applications submitted, try again later"
}

// Error codes returned in the "code" field of error responses.
const (
	CodeBadRequest        = "invalid_request"
	CodeJobNotFound       = "job_not_found"
	CodeDuplicate         = "duplicate_application"
	CodeUploadFailed      = "upload_failed"
	CodeURLResolution     = "url_resolution_failed"
	CodeForbidden         = "forbidden"
	CodeInvalidTransition = "invalid_transition"
	CodeNotFound          = "not_found"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// ErrorCode returns the machine-readable code for an error.
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	var (
		validation *types.ErrValidation
		badRequest *ErrBadRequest
		schemaErr  *schemas.ValidationError
		jobMissing *types.ErrJobNotFound
		duplicate  *types.ErrDuplicateApplication
		upload     *types.ErrUploadFailed
		urlErr     *types.ErrURLResolutionFailed
		forbidden  *types.ErrForbidden
		transition *types.ErrInvalidTransition
		notFound   *types.ErrApplicationNotFound
		limited    *ErrRateLimited
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, string(validation.Rule)
	case errors.As(err, &badRequest), errors.As(err, &schemaErr):
		return http.StatusBadRequest, CodeBadRequest
	case errors.As(err, &jobMissing):
		return http.StatusNotFound, CodeJobNotFound
	case errors.As(err, &duplicate):
		return http.StatusConflict, CodeDuplicate
	case errors.As(err, &urlErr):
		return http.StatusBadGateway, CodeURLResolution
	case errors.As(err, &upload):
		return http.StatusBadGateway, CodeUploadFailed
	case errors.As(err, &forbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.As(err, &transition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.As(err, &notFound):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &limited):
		return http.StatusTooManyRequests, CodeRateLimited
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// publicMessage returns the message shown to clients. Storage failures and
// unclassified errors are not passed through since they carry infrastructure detail.
func publicMessage(err error, code string) string {
	switch code {
	case CodeUploadFailed:
		return "Could not upload resume"
	case CodeURLResolution:
		return "Could not generate resume URL"
	case CodeInternal:
		return "Internal server error"
	default:
		return err.Error()
	}
}
