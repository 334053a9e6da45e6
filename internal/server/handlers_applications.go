package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/schemas"
	"github.com/jonathan/jobportal/internal/server/middleware"
	"github.com/jonathan/jobportal/internal/types"
)

// multipartOverhead is the room left above the resume limit for form fields
// and part headers, so an oversized resume is still reported by intake.
const multipartOverhead = 1 << 20

// maxReviewBodyBytes caps a review request body.
const maxReviewBodyBytes = 64 << 10

// ApplicationResponse wraps a single application.
type ApplicationResponse struct {
	Application *types.Application `json:"application"`
}

// ApplicationListResponse wraps a list of applications.
type ApplicationListResponse struct {
	Applications []types.Application `json:"applications"`
	Count        int                 `json:"count"`
}

// handleSubmit accepts a multipart application with a "resume" file part.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if identity.Role != types.RoleJobSeeker {
		s.errorResponse(w, r, &types.ErrForbidden{Reason: "employers are not allowed to apply for jobs"})
		return
	}

	if s.submitLimiter != nil {
		allowed, err := s.submitLimiter.Allow(r.Context(), "apply:"+identity.UserID.String())
		if err != nil {
			s.logger.Warn("Submit limiter unavailable.", "userId", identity.UserID, "error", err)
		}
		if !allowed {
			s.errorResponse(w, r, &ErrRateLimited{})
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, types.MaxResumeBytes+multipartOverhead)
	if err := r.ParseMultipartForm(types.MaxResumeBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, r, &types.ErrValidation{Rule: types.RuleResumeTooLarge})
			return
		}
		s.errorResponse(w, r, &ErrBadRequest{Message: "request must be multipart/form-data"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := types.SubmitRequest{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		Address:     r.FormValue("address"),
		CoverLetter: formValue(r, "cover_letter", "coverLetter"),
		JobID:       formValue(r, "job_id", "jobId"),
	}

	file, err := readResume(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, r, &types.ErrValidation{Rule: types.RuleResumeTooLarge})
			return
		}
		s.errorResponse(w, r, &ErrBadRequest{Message: "could not read resume upload"})
		return
	}

	app, err := s.service.Submit(r.Context(), identity, req, file)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ApplicationResponse{Application: app})
}

// formValue returns the first non-empty value among the given field names.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}

// readResume pulls the "resume" part out of a parsed multipart form.
// A missing part is not an error; intake reports it.
func readResume(r *http.Request) (types.ResumeFile, error) {
	f, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return types.ResumeFile{}, nil
	}
	if err != nil {
		return types.ResumeFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return types.ResumeFile{}, err
	}
	return types.ResumeFile{
		Present:     true,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        data,
	}, nil
}

// handleListMine lists the caller's own applications
func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	apps, err := s.service.ListForApplicant(r.Context(), identity)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.listResponse(w, apps)
}

// handleListEmployer lists applications to the caller's jobs
func (s *Server) handleListEmployer(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	apps, err := s.service.ListForEmployer(r.Context(), identity)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.listResponse(w, apps)
}

// handleListForJob lists applications to one of the caller's jobs
func (s *Server) handleListForJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, &types.ErrJobNotFound{JobID: r.PathValue("id")})
		return
	}
	apps, err := s.service.ListForJob(r.Context(), identity, jobID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.listResponse(w, apps)
}

// handleGet returns one application to either party
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, ok := s.applicationID(w, r)
	if !ok {
		return
	}
	app, err := s.service.Get(r.Context(), identity, id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ApplicationResponse{Application: app})
}

// handleReview applies an employer's decision
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, ok := s.applicationID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReviewBodyBytes))
	if err != nil {
		s.errorResponse(w, r, &ErrBadRequest{Message: "could not read request body"})
		return
	}
	if err := schemas.Validate(schemas.ReviewRequest, body); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	var req types.ReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, r, &ErrBadRequest{Message: "invalid request body"})
		return
	}
	req.Decision = types.Decision(strings.TrimSpace(string(req.Decision)))

	app, err := s.service.Review(r.Context(), identity, id, req.Decision)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ApplicationResponse{Application: app})
}

// handleWithdraw deletes the caller's application
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.GetIdentity(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, ok := s.applicationID(w, r)
	if !ok {
		return
	}
	app, err := s.service.Withdraw(r.Context(), identity, id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ApplicationResponse{Application: app})
}

// applicationID parses the {id} path segment, writing a 400 if it is not a UUID.
func (s *Server) applicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, &ErrBadRequest{Message: "invalid application id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) listResponse(w http.ResponseWriter, apps []types.Application) {
	if apps == nil {
		apps = []types.Application{}
	}
	s.jsonResponse(w, http.StatusOK, ApplicationListResponse{Applications: apps, Count: len(apps)})
}
