package handler

import (
	"strings"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// maxImageBytes bounds decoded image payloads (8 MiB).
const maxImageBytes = 8 << 20

// VerifyRequest is the HTTP request body for POST /verifications. Images are
// base64-encoded strings on the wire.
type VerifyRequest struct {
	SubjectID     string `json:"subject_id"`
	DocumentType  string `json:"document_type"`
	Purpose       string `json:"purpose"`
	RiskTolerance string `json:"risk_tolerance"`
	UserAddress   string `json:"user_address,omitempty"`
	DocumentImage []byte `json:"document_image"`
	SelfieImage   []byte `json:"selfie_image,omitempty"`

	// Parsed values (populated by Validate)
	parsed models.VerificationRequest
}

// Validate validates and parses the request into its domain form.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.DocumentImage) > maxImageBytes {
		return dErrors.New(dErrors.CodeInvalidInput, "document_image exceeds the size limit")
	}
	if len(r.SelfieImage) > maxImageBytes {
		return dErrors.New(dErrors.CodeInvalidInput, "selfie_image exceeds the size limit")
	}

	subjectID, err := id.ParseSubjectID(strings.TrimSpace(r.SubjectID))
	if err != nil {
		return err
	}
	docType, err := models.ParseDocumentType(strings.TrimSpace(r.DocumentType))
	if err != nil {
		return err
	}
	purpose, err := models.ParsePurpose(strings.TrimSpace(r.Purpose))
	if err != nil {
		return err
	}
	risk, err := models.ParseRiskTolerance(strings.TrimSpace(r.RiskTolerance))
	if err != nil {
		return err
	}
	if len(r.DocumentImage) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "document_image is required")
	}

	r.parsed = models.VerificationRequest{
		SubjectID:     subjectID,
		DocumentType:  docType,
		Purpose:       purpose,
		RiskTolerance: risk,
		UserAddress:   strings.TrimSpace(r.UserAddress),
		DocumentImage: r.DocumentImage,
		SelfieImage:   r.SelfieImage,
	}
	return nil
}

// Parsed returns the validated domain request.
func (r *VerifyRequest) Parsed() models.VerificationRequest {
	return r.parsed
}

// ReviewRequest is the HTTP request body for POST /verifications/{id}/review.
type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

// Validate bounds the free-text notes field.
func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Notes) > 2000 {
		return dErrors.New(dErrors.CodeInvalidInput, "notes must be at most 2000 characters")
	}
	return nil
}
