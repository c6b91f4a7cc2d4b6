package models

import (
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// DocumentType identifies what kind of identity document was submitted.
type DocumentType string

const (
	DocumentDriversLicense DocumentType = "drivers_license"
	DocumentPassport       DocumentType = "passport"
	DocumentNationalID     DocumentType = "national_id"
)

// ParseDocumentType validates a wire value into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocumentDriversLicense, DocumentPassport, DocumentNationalID:
		return DocumentType(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unrecognized document type")
}

// Purpose is what the verification result will be used for. It shifts the
// component weights (see scoring.WeightsFor).
type Purpose string

const (
	PurposeIdentityVerification Purpose = "identity_verification"
	PurposeAgeVerification      Purpose = "age_verification"
	PurposeAddressVerification  Purpose = "address_verification"
)

// ParsePurpose validates a wire value into a Purpose.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeIdentityVerification, PurposeAgeVerification, PurposeAddressVerification:
		return Purpose(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unrecognized verification purpose")
}

// RiskTolerance is the operator-configured dial shifting both component
// weights and decision thresholds.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ParseRiskTolerance validates a wire value into a RiskTolerance.
func ParseRiskTolerance(s string) (RiskTolerance, error) {
	switch RiskTolerance(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskTolerance(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unrecognized risk tolerance")
}

// VerificationRequest is the immutable input for one verification attempt.
type VerificationRequest struct {
	SubjectID     id.SubjectID
	DocumentType  DocumentType
	Purpose       Purpose
	RiskTolerance RiskTolerance
	UserAddress   string // optional, as entered by the user
	DocumentImage []byte
	SelfieImage   []byte // optional; photo analysis is skipped without it
}

// Validate enforces the required fields before any provider call is attempted.
func (r VerificationRequest) Validate() error {
	if r.SubjectID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if _, err := ParseDocumentType(string(r.DocumentType)); err != nil {
		return err
	}
	if _, err := ParsePurpose(string(r.Purpose)); err != nil {
		return err
	}
	if _, err := ParseRiskTolerance(string(r.RiskTolerance)); err != nil {
		return err
	}
	if len(r.DocumentImage) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "document image is required")
	}
	return nil
}

// AnalyzerKind tags which external analyzer produced a result.
type AnalyzerKind string

const (
	AnalyzerDocument AnalyzerKind = "document"
	AnalyzerAddress  AnalyzerKind = "address"
	AnalyzerPhoto    AnalyzerKind = "photo"
)

// ExtractedField is one key/value pair pulled from the document by the
// document analysis provider, with its own extraction confidence.
type ExtractedField struct {
	Key        string
	Value      string
	Confidence float64
}

// DocumentAnalysis is the document provider's payload. All scores in [0,1].
type DocumentAnalysis struct {
	Confidence      float64
	Authenticity    float64
	Quality         float64
	FraudIndicators []string
	ExtractedFields []ExtractedField
}

// ExtractedAddress returns the provider-extracted address field, if present.
func (d DocumentAnalysis) ExtractedAddress() string {
	for _, f := range d.ExtractedFields {
		if f.Key == "address" {
			return f.Value
		}
	}
	return ""
}

// AddressValidation is the address provider's payload. Scores in [0,1].
// The validity flags are nil when the corresponding address was never
// available for the provider to judge; the normalizer excludes absent
// sub-signals from the weighted mean.
type AddressValidation struct {
	MatchScore            float64
	Confidence            float64
	IsMatch               bool
	UserAddressValid      *bool
	ExtractedAddressValid *bool
	Differences           []string
}

// FaceComparison is the facial comparison provider's payload. Similarity and
// Confidence are on the provider's 0-100 scale; qualities are in [0,1].
type FaceComparison struct {
	Similarity         float64
	Confidence         float64
	SourceFaceCount    int
	TargetFaceCount    int
	SourceQuality      float64
	TargetQuality      float64
	ContentAppropriate bool
	// Strict records whether the upstream comparison ran in strict mode
	// (requested under low risk tolerance); the approval gate keys off it.
	Strict bool
}

// AnalyzerResult is one analyzer's outcome, immutable once created. Exactly
// one payload pointer is set on success; all are nil on failure.
type AnalyzerResult struct {
	Kind      AnalyzerKind
	Succeeded bool
	Error     string // provider-specific message, set on failure

	Document *DocumentAnalysis
	Address  *AddressValidation
	Photo    *FaceComparison
}

// RecordStatus mirrors the decision outcome on the persisted record, plus the
// transient and resubmission states the orchestrator manages.
type RecordStatus string

const (
	StatusPending              RecordStatus = "pending"
	StatusApproved             RecordStatus = "approved"
	StatusRejected             RecordStatus = "rejected"
	StatusManualReview         RecordStatus = "manual_review"
	StatusResubmissionRequired RecordStatus = "resubmission_required"
)

// Terminal reports whether the status ends the record's lifecycle. Manual
// review is terminal-but-revisable: only an explicit reviewer override moves
// a record out of it.
func (s RecordStatus) Terminal() bool {
	return s != StatusPending
}

// VerificationRecord links one request to its analyzer results and at most
// one decision. Created pending, mutated exactly once to a terminal state,
// never deleted; resubmission creates a new record.
type VerificationRecord struct {
	ID        id.VerificationID
	SubjectID id.SubjectID
	Request   VerificationRequest
	Results   []AnalyzerResult
	Decision  *VerificationDecision
	Status    RecordStatus
	// FailureReason is the user-facing explanation on resubmission_required.
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
