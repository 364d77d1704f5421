package models

import (
	"strings"

	"github.com/ganjinghwan/E-Recipe-HubG-sub000/internal/validation"
)

// SupportRequest is the public contact form.
type SupportRequest struct {
	Name           string `json:"name" validate:"required,max=120"`
	Email          string `json:"email" validate:"required,max=254,email"`
	Message        string `json:"message" validate:"required,max=4000"`
	RecaptchaToken string `json:"recaptchaToken" validate:"required"`
}

func (r *SupportRequest) Validate() map[string]string {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.RecaptchaToken = strings.TrimSpace(r.RecaptchaToken)
	return validation.Struct(r)
}
