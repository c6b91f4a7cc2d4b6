package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Schema for the verification records table. The partial unique index is the
// datastore half of the single-writer discipline: at most one pending record
// per subject, enforced even across service instances.
const recordsSchema = `
CREATE TABLE IF NOT EXISTS verification_records (
    id             UUID PRIMARY KEY,
    subject_id     UUID NOT NULL,
    document_type  TEXT NOT NULL,
    purpose        TEXT NOT NULL,
    risk_tolerance TEXT NOT NULL,
    user_address   TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL,
    failure_reason TEXT NOT NULL DEFAULT '',
    results        JSONB,
    decision       JSONB,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS verification_records_one_pending
    ON verification_records (subject_id) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS verification_records_status
    ON verification_records (status, created_at);
`

const pqUniqueViolation = "23505"

// Postgres implements RecordStore on database/sql. Document and selfie image
// bytes are not persisted here; they live with the upload collaborator and
// only their analysis results are retained.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the records table and indexes if missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, recordsSchema); err != nil {
		return fmt.Errorf("ensure records schema: %w", err)
	}
	return nil
}

func (s *Postgres) CreatePending(ctx context.Context, rec *models.VerificationRecord) error {
	now := requestcontext.Now(ctx)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO verification_records
            (id, subject_id, document_type, purpose, risk_tolerance, user_address, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		uuid.UUID(rec.ID), uuid.UUID(rec.SubjectID),
		string(rec.Request.DocumentType), string(rec.Request.Purpose), string(rec.Request.RiskTolerance),
		rec.Request.UserAddress, string(models.StatusPending), now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pending record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, vid id.VerificationID) (*models.VerificationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, subject_id, document_type, purpose, risk_tolerance, user_address,
               status, failure_reason, results, decision, created_at, updated_at
        FROM verification_records WHERE id = $1`, uuid.UUID(vid))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.RecordStatus, limit int) ([]*models.VerificationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, subject_id, document_type, purpose, risk_tolerance, user_address,
               status, failure_reason, results, decision, created_at, updated_at
        FROM verification_records WHERE status = $1
        ORDER BY created_at ASC LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Postgres) AttachResults(ctx context.Context, vid id.VerificationID, results []models.AnalyzerResult) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE verification_records SET results = $2, updated_at = $3
        WHERE id = $1 AND status = $4`,
		uuid.UUID(vid), payload, requestcontext.Now(ctx), string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("attach results: %w", err)
	}
	return requireRowOr(ctx, s.db, res, vid, sentinel.ErrInvalidState)
}

func (s *Postgres) Finalize(ctx context.Context, vid id.VerificationID, status models.RecordStatus, decision *models.VerificationDecision, failureReason string) error {
	var payload []byte
	if decision != nil {
		var err error
		payload, err = json.Marshal(decision)
		if err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
	}
	// The status filter makes retries idempotent: a repeat of the same
	// terminal write matches zero rows and the follow-up check sees the
	// target state already applied.
	res, err := s.db.ExecContext(ctx, `
        UPDATE verification_records
        SET status = $2, decision = COALESCE($3, decision), failure_reason = $4, updated_at = $5
        WHERE id = $1 AND status = $6`,
		uuid.UUID(vid), string(status), nullable(payload), failureReason,
		requestcontext.Now(ctx), string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("finalize record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize record: %w", err)
	}
	if affected == 1 {
		return nil
	}

	current, err := s.FindByID(ctx, vid)
	if err != nil {
		return err
	}
	if current.Status == status {
		return nil // idempotent retry
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) ApplyReview(ctx context.Context, vid id.VerificationID, to models.RecordStatus) (*models.VerificationRecord, error) {
	if to != models.StatusApproved && to != models.StatusRejected {
		return nil, sentinel.ErrInvalidState
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE verification_records SET status = $2, updated_at = $3
        WHERE id = $1 AND status = $4`,
		uuid.UUID(vid), string(to), requestcontext.Now(ctx), string(models.StatusManualReview))
	if err != nil {
		return nil, fmt.Errorf("apply review: %w", err)
	}
	if err := requireRowOr(ctx, s.db, res, vid, sentinel.ErrInvalidState); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, vid)
}

// requireRowOr distinguishes "no such record" from "record in the wrong
// state" after a guarded UPDATE matched zero rows.
func requireRowOr(ctx context.Context, db *sql.DB, res sql.Result, vid id.VerificationID, stateErr error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM verification_records WHERE id = $1)`,
		uuid.UUID(vid)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return stateErr
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.VerificationRecord, error) {
	var (
		rec            models.VerificationRecord
		recID, subject uuid.UUID
		docType        string
		purpose        string
		risk           string
		resultsRaw     []byte
		decisionRaw    []byte
	)
	if err := row.Scan(&recID, &subject, &docType, &purpose, &risk, &rec.Request.UserAddress,
		&rec.Status, &rec.FailureReason, &resultsRaw, &decisionRaw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ID = id.VerificationID(recID)
	rec.SubjectID = id.SubjectID(subject)
	rec.Request.SubjectID = rec.SubjectID
	rec.Request.DocumentType = models.DocumentType(docType)
	rec.Request.Purpose = models.Purpose(purpose)
	rec.Request.RiskTolerance = models.RiskTolerance(risk)

	if len(resultsRaw) > 0 {
		if err := json.Unmarshal(resultsRaw, &rec.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}
	if len(decisionRaw) > 0 {
		var d models.VerificationDecision
		if err := json.Unmarshal(decisionRaw, &d); err != nil {
			return nil, fmt.Errorf("unmarshal decision: %w", err)
		}
		rec.Decision = &d
	}
	return &rec, nil
}

func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ RecordStore = (*Postgres)(nil)
