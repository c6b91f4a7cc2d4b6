// Package pendinglock enforces the single-writer discipline: no two
// concurrent orchestrations may hold a pending verification for the same
// subject. The datastore's partial unique index is the backstop; this lock
// fails fast before any provider call is made.
package pendinglock

import (
	"context"

	id "vouch/pkg/domain"
)

// Lock gates concurrent orchestrations per subject.
type Lock interface {
	// Acquire claims the subject. Returns sentinel.ErrConflict when another
	// orchestration already holds it.
	Acquire(ctx context.Context, subject id.SubjectID) error

	// Release frees the subject. Safe to call for a subject not held.
	Release(ctx context.Context, subject id.SubjectID) error
}
