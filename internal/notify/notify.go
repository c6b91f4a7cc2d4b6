// Package notify delivers decision outcomes to downstream consumers: the
// subject status updater and whatever notification pipeline listens on the
// outcome topic. Fire-and-forget from the engine's perspective; a delivery
// failure must never roll back a persisted decision.
package notify

import (
	"context"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// Notification carries a decision outcome to downstream systems.
type Notification struct {
	SubjectID      id.SubjectID
	VerificationID id.VerificationID
	Outcome        models.Outcome
	Purpose        models.Purpose
	// SubjectVerified is set only on auto-approval; it drives the subject
	// status mutation downstream.
	SubjectVerified bool
}

// Notifier is the downstream delivery port.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
