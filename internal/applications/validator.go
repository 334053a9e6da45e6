package applications

import (
	"bytes"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/jobportal/internal/types"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// IntakeValidator checks a submission before anything is stored.
// Rules run in a fixed order and the first failure is returned.
type IntakeValidator struct {
	validate  *validator.Validate
	verifyPDF bool
}

// NewIntakeValidator creates a validator. With verifyPDF set, a resume that passes the
// content-type rule must also parse as a PDF.
func NewIntakeValidator(verifyPDF bool) *IntakeValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if verifyPDF {
		// Keep pdfcpu from creating a config directory under $HOME.
		api.DisableConfigDir()
	}
	return &IntakeValidator{validate: v, verifyPDF: verifyPDF}
}

// Validate returns nil or a *types.ErrValidation naming the first failing rule.
// req is normalized in place (surrounding whitespace trimmed).
func (v *IntakeValidator) Validate(req *types.SubmitRequest, file types.ResumeFile) error {
	trimRequest(req)

	if err := v.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		return &types.ErrValidation{Rule: types.RuleMissingFields, Fields: fields}
	}

	if !file.Present {
		return &types.ErrValidation{Rule: types.RuleMissingResume}
	}
	if file.Size > types.MaxResumeBytes {
		return &types.ErrValidation{Rule: types.RuleResumeTooLarge}
	}
	if file.ContentType != types.ResumeContentType {
		return &types.ErrValidation{Rule: types.RuleInvalidResumeType}
	}

	if v.verifyPDF {
		if err := api.Validate(bytes.NewReader(file.Data), model.NewDefaultConfiguration()); err != nil {
			return &types.ErrValidation{Rule: types.RuleCorruptResume}
		}
	}
	return nil
}

func trimRequest(req *types.SubmitRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.CoverLetter = strings.TrimSpace(req.CoverLetter)
	req.JobID = strings.TrimSpace(req.JobID)
}
