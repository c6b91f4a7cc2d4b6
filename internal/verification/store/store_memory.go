package store

import (
	"context"
	"sort"
	"sync"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// InMemory implements RecordStore with a mutex-guarded map. Used in tests and
// single-node development; production uses Postgres.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.VerificationID]*models.VerificationRecord
	// pending indexes the one allowed pending record per subject.
	pending map[id.SubjectID]id.VerificationID
}

// NewInMemory creates an empty in-memory record store.
func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[id.VerificationID]*models.VerificationRecord),
		pending: make(map[id.SubjectID]id.VerificationID),
	}
}

func (s *InMemory) CreatePending(ctx context.Context, rec *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[rec.SubjectID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}

	cp := copyRecord(rec)
	cp.Status = models.StatusPending
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = requestcontext.Now(ctx)
	}
	cp.UpdatedAt = cp.CreatedAt
	s.records[cp.ID] = cp
	s.pending[cp.SubjectID] = cp.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, vid id.VerificationID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[vid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *InMemory) ListByStatus(ctx context.Context, status models.RecordStatus, limit int) ([]*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.VerificationRecord
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory) AttachResults(ctx context.Context, vid id.VerificationID, results []models.AnalyzerResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[vid]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	rec.Results = append([]models.AnalyzerResult(nil), results...)
	rec.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func (s *InMemory) Finalize(ctx context.Context, vid id.VerificationID, status models.RecordStatus, decision *models.VerificationDecision, failureReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[vid]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Idempotent retry of the same terminal write.
	if rec.Status == status {
		return nil
	}
	if rec.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}

	rec.Status = status
	rec.FailureReason = failureReason
	if decision != nil {
		d := *decision
		rec.Decision = &d
	}
	rec.UpdatedAt = requestcontext.Now(ctx)
	delete(s.pending, rec.SubjectID)
	return nil
}

func (s *InMemory) ApplyReview(ctx context.Context, vid id.VerificationID, to models.RecordStatus) (*models.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[vid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if rec.Status != models.StatusManualReview {
		return nil, sentinel.ErrInvalidState
	}
	if to != models.StatusApproved && to != models.StatusRejected {
		return nil, sentinel.ErrInvalidState
	}

	rec.Status = to
	rec.UpdatedAt = requestcontext.Now(ctx)
	return copyRecord(rec), nil
}

// copyRecord deep-copies the mutable slices so callers cannot alias store
// internals.
func copyRecord(rec *models.VerificationRecord) *models.VerificationRecord {
	cp := *rec
	cp.Results = append([]models.AnalyzerResult(nil), rec.Results...)
	if rec.Decision != nil {
		d := *rec.Decision
		d.Recommendations = append([]string(nil), rec.Decision.Recommendations...)
		d.RiskFactors = append([]string(nil), rec.Decision.RiskFactors...)
		d.NextSteps = append([]string(nil), rec.Decision.NextSteps...)
		cp.Decision = &d
	}
	return &cp
}

var _ RecordStore = (*InMemory)(nil)
