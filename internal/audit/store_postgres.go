package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	id "vouch/pkg/domain"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
    seq             BIGSERIAL PRIMARY KEY,
    ts              TIMESTAMPTZ NOT NULL,
    verification_id UUID NOT NULL,
    subject_hash    TEXT NOT NULL,
    action          TEXT NOT NULL,
    status_before   TEXT NOT NULL DEFAULT '',
    status_after    TEXT NOT NULL DEFAULT '',
    outcome         TEXT NOT NULL DEFAULT '',
    reason          TEXT NOT NULL DEFAULT '',
    reviewer_id     TEXT NOT NULL DEFAULT '',
    notes           TEXT NOT NULL DEFAULT '',
    request_id      TEXT NOT NULL DEFAULT '',
    device          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_verification
    ON audit_events (verification_id, seq);
`

// PostgresStore persists audit events via pgx. Append-only: there is no
// update or delete path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the audit table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO audit_events
            (ts, verification_id, subject_hash, action, status_before, status_after,
             outcome, reason, reviewer_id, notes, request_id, device)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		event.Timestamp, uuid.UUID(event.VerificationID), event.SubjectIDHash, string(event.Action),
		event.StatusBefore, event.StatusAfter, event.Outcome, event.Reason,
		event.ReviewerID, event.Notes, event.RequestID, event.Device,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByVerification(ctx context.Context, vid id.VerificationID) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT ts, verification_id, subject_hash, action, status_before, status_after,
               outcome, reason, reviewer_id, notes, request_id, device
        FROM audit_events WHERE verification_id = $1 ORDER BY seq ASC`, uuid.UUID(vid))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e    Event
			vuid uuid.UUID
			verb string
		)
		if err := rows.Scan(&e.Timestamp, &vuid, &e.SubjectIDHash, &verb, &e.StatusBefore,
			&e.StatusAfter, &e.Outcome, &e.Reason, &e.ReviewerID, &e.Notes, &e.RequestID, &e.Device); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.VerificationID = id.VerificationID(vuid)
		e.Action = Action(verb)
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
