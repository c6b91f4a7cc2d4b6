package pendinglock

import (
	"context"
	"sync"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// InMemory implements Lock for tests and single-node deployments.
type InMemory struct {
	mu   sync.Mutex
	held map[id.SubjectID]struct{}
}

// NewInMemory creates an empty in-memory lock.
func NewInMemory() *InMemory {
	return &InMemory{held: make(map[id.SubjectID]struct{})}
}

func (l *InMemory) Acquire(ctx context.Context, subject id.SubjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.held[subject]; exists {
		return sentinel.ErrConflict
	}
	l.held[subject] = struct{}{}
	return nil
}

func (l *InMemory) Release(ctx context.Context, subject id.SubjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, subject)
	return nil
}

var _ Lock = (*InMemory)(nil)
