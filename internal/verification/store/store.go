// Package store persists verification records. The orchestrator is the single
// writer for any record it created; the store enforces the one-Pending-per-
// subject constraint and keeps terminal writes idempotent so a retried
// persist after a transient failure cannot duplicate state.
package store

import (
	"context"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
)

// RecordStore is the persistence port for verification records.
type RecordStore interface {
	// CreatePending inserts a new record in the pending state. Returns
	// sentinel.ErrConflict when the subject already has a pending record.
	CreatePending(ctx context.Context, rec *models.VerificationRecord) error

	// FindByID returns sentinel.ErrNotFound for unknown IDs.
	FindByID(ctx context.Context, vid id.VerificationID) (*models.VerificationRecord, error)

	// ListByStatus returns records in a given status, oldest first. Feeds the
	// manual review queue.
	ListByStatus(ctx context.Context, status models.RecordStatus, limit int) ([]*models.VerificationRecord, error)

	// AttachResults stores analyzer results on a still-pending record.
	AttachResults(ctx context.Context, vid id.VerificationID, results []models.AnalyzerResult) error

	// Finalize moves a pending record to its terminal state. Idempotent:
	// repeating the same terminal write is a no-op success; any other
	// transition from a terminal state returns sentinel.ErrInvalidState.
	Finalize(ctx context.Context, vid id.VerificationID, status models.RecordStatus, decision *models.VerificationDecision, failureReason string) error

	// ApplyReview transitions a manual_review record to approved or rejected.
	// Returns sentinel.ErrInvalidState when the record is in any other state.
	ApplyReview(ctx context.Context, vid id.VerificationID, to models.RecordStatus) (*models.VerificationRecord, error)
}
