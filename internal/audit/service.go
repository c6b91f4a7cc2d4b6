package audit

import (
	"context"
	"log/slog"

	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// Publisher fans an event out to an external sink (e.g. the Kafka compliance
// topic). Publish failures never fail the caller; the store is the system of
// record.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Service captures structured audit events. Append-only; persistence comes
// first, fan-out is best effort.
type Service struct {
	store     Store
	publisher Publisher // optional
	logger    *slog.Logger
}

// NewService wires the audit service. publisher may be nil.
func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Emit persists the event, stamping timestamp and request metadata from
// context when unset, then publishes it best-effort.
func (s *Service) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}

	if err := s.store.Append(ctx, event); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "audit publish failed",
				"verification_id", event.VerificationID,
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

// List returns the audit trail for one verification, oldest first.
func (s *Service) List(ctx context.Context, vid id.VerificationID) ([]Event, error) {
	return s.store.ListByVerification(ctx, vid)
}
