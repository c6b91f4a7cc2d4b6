// Package reviewer manages the human reviewers allowed to override
// manual-review verifications: their credentials and their access tokens.
package reviewer

import (
	"context"
	"sync"
	"time"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// Reviewer is one registered human reviewer. Only the bcrypt hash of the API
// key is stored.
type Reviewer struct {
	ID         id.ReviewerID
	Name       string
	APIKeyHash string
	CreatedAt  time.Time
}

// Store persists reviewers.
type Store interface {
	Create(ctx context.Context, rev *Reviewer) error
	FindByID(ctx context.Context, rid id.ReviewerID) (*Reviewer, error)
}

// InMemoryStore is the development and test store.
type InMemoryStore struct {
	mu        sync.RWMutex
	reviewers map[id.ReviewerID]Reviewer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reviewers: make(map[id.ReviewerID]Reviewer)}
}

func (s *InMemoryStore) Create(_ context.Context, rev *Reviewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviewers[rev.ID]; exists {
		return sentinel.ErrConflict
	}
	s.reviewers[rev.ID] = *rev
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, rid id.ReviewerID) (*Reviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rev, ok := s.reviewers[rid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rev, nil
}
