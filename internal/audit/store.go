package audit

import (
	"context"

	id "vouch/pkg/domain"
)

// Store is the append-only persistence port for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVerification(ctx context.Context, vid id.VerificationID) ([]Event, error)
}
