package applications

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobportal/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleOf(t *testing.T, err error) types.ValidationRule {
	t.Helper()
	var verr *types.ErrValidation
	require.ErrorAs(t, err, &verr)
	return verr.Rule
}

func TestIntakeValidator_RuleOrder(t *testing.T) {
	v := NewIntakeValidator(false)
	jobID := uuid.New()

	tests := []struct {
		name string
		req  func() types.SubmitRequest
		file types.ResumeFile
		want types.ValidationRule
	}{
		{
			name: "missing fields win over a missing resume",
			req: func() types.SubmitRequest {
				r := validRequest(jobID)
				r.Phone = ""
				return r
			},
			file: types.ResumeFile{},
			want: types.RuleMissingFields,
		},
		{
			name: "whitespace counts as missing",
			req: func() types.SubmitRequest {
				r := validRequest(jobID)
				r.CoverLetter = "   \n"
				return r
			},
			file: pdfFile(10),
			want: types.RuleMissingFields,
		},
		{
			name: "missing job reference",
			req: func() types.SubmitRequest {
				r := validRequest(jobID)
				r.JobID = ""
				return r
			},
			file: pdfFile(10),
			want: types.RuleMissingFields,
		},
		{
			name: "missing resume wins over size and type",
			req:  func() types.SubmitRequest { return validRequest(jobID) },
			file: types.ResumeFile{Present: false, Size: types.MaxResumeBytes + 1, ContentType: "text/plain"},
			want: types.RuleMissingResume,
		},
		{
			name: "size wins over type",
			req:  func() types.SubmitRequest { return validRequest(jobID) },
			file: types.ResumeFile{Present: true, Size: types.MaxResumeBytes + 1, ContentType: "application/msword"},
			want: types.RuleResumeTooLarge,
		},
		{
			name: "word document",
			req:  func() types.SubmitRequest { return validRequest(jobID) },
			file: types.ResumeFile{Present: true, Size: 1024, ContentType: "application/msword"},
			want: types.RuleInvalidResumeType,
		},
		{
			name: "content type must match exactly",
			req:  func() types.SubmitRequest { return validRequest(jobID) },
			file: types.ResumeFile{Present: true, Size: 1024, ContentType: "application/pdf; charset=binary"},
			want: types.RuleInvalidResumeType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req()
			err := v.Validate(&req, tt.file)
			assert.Equal(t, tt.want, ruleOf(t, err))
		})
	}
}

func TestIntakeValidator_SizeBoundary(t *testing.T) {
	v := NewIntakeValidator(false)
	req := validRequest(uuid.New())

	assert.NoError(t, v.Validate(&req, pdfFile(2_097_152)))

	err := v.Validate(&req, pdfFile(2_097_153))
	assert.Equal(t, types.RuleResumeTooLarge, ruleOf(t, err))
}

func TestIntakeValidator_MissingFieldsAreListedInOrder(t *testing.T) {
	v := NewIntakeValidator(false)
	req := types.SubmitRequest{Name: "Ada", Address: "somewhere"}

	err := v.Validate(&req, pdfFile(10))

	var verr *types.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email", "phone", "cover_letter", "job_id"}, verr.Fields)
	assert.Equal(t, "all fields are required, missing: email, phone, cover_letter, job_id", verr.Error())
}

func TestIntakeValidator_TrimsFields(t *testing.T) {
	v := NewIntakeValidator(false)
	req := validRequest(uuid.New())
	req.Name = "  Ada  "

	require.NoError(t, v.Validate(&req, pdfFile(10)))
	assert.Equal(t, "Ada", req.Name)
}

func TestIntakeValidator_VerifyPDF(t *testing.T) {
	v := NewIntakeValidator(true)
	req := validRequest(uuid.New())

	err := v.Validate(&req, pdfFile(64))
	assert.Equal(t, types.RuleCorruptResume, ruleOf(t, err))

	// Earlier rules still come first.
	err = v.Validate(&req, types.ResumeFile{Present: true, Size: 64, ContentType: "image/png"})
	assert.Equal(t, types.RuleInvalidResumeType, ruleOf(t, err))
}
