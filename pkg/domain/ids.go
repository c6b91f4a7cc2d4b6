package domain

import (
	"github.com/google/uuid"

	dErrors "vouch/pkg/domain-errors"
)

// Typed identifiers keep subject, verification, and reviewer IDs from being
// swapped at call sites. All are UUIDs underneath.
type (
	SubjectID      uuid.UUID
	VerificationID uuid.UUID
	ReviewerID     uuid.UUID
)

func (id SubjectID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id ReviewerID) String() string     { return uuid.UUID(id).String() }

func (id SubjectID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReviewerID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the canonical UUID form in logs and wire payloads.
func (id SubjectID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ReviewerID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *SubjectID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SubjectID(u)
	return nil
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = VerificationID(u)
	return nil
}

func (id *ReviewerID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ReviewerID(u)
	return nil
}

// NewVerificationID mints a fresh verification identifier.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewReviewerID mints a fresh reviewer identifier.
func NewReviewerID() ReviewerID { return ReviewerID(uuid.New()) }

// ParseSubjectID validates and converts a string into a SubjectID.
// IDs must be valid, non-nil UUIDs.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s, "subject id")
	return SubjectID(u), err
}

// ParseVerificationID validates and converts a string into a VerificationID.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification id")
	return VerificationID(u), err
}

// ParseReviewerID validates and converts a string into a ReviewerID.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s, "reviewer id")
	return ReviewerID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return u, nil
}
