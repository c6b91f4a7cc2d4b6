package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "vouch/pkg/domain"
)

// Action identifies what happened to a verification record.
type Action string

const (
	ActionVerificationStarted  Action = "verification_started"
	ActionDecisionMade         Action = "decision_made"
	ActionResubmissionRequired Action = "resubmission_required"
	ActionManualOverride       Action = "manual_override"
	ActionScoringInconsistency Action = "scoring_inconsistency"
)

// Event is one append-only audit log entry. It snapshots the record status
// before and after every mutation, including manual overrides. Never mutated
// after creation.
type Event struct {
	Timestamp      time.Time
	VerificationID id.VerificationID
	// SubjectIDHash is a SHA-256 hash of the subject identifier, kept for
	// compliance traceability without storing raw identifiers in the log.
	SubjectIDHash string
	Action        Action
	StatusBefore  string
	StatusAfter   string
	Outcome       string
	Reason        string
	// Reviewer fields are set only for manual overrides.
	ReviewerID string
	Notes      string
	RequestID  string
	Device     string
}

// HashSubject produces the stable subject hash recorded on events.
func HashSubject(subject id.SubjectID) string {
	sum := sha256.Sum256([]byte(subject.String()))
	return hex.EncodeToString(sum[:])
}
