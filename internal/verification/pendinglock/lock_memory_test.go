package pendinglock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

func TestInMemoryAcquireRelease(t *testing.T) {
	lock := NewInMemory()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())

	require.NoError(t, lock.Acquire(ctx, subject))

	// Second acquire for the same subject conflicts.
	err := lock.Acquire(ctx, subject)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	// Other subjects are independent.
	other := id.SubjectID(uuid.New())
	require.NoError(t, lock.Acquire(ctx, other))

	// Release makes the subject acquirable again.
	require.NoError(t, lock.Release(ctx, subject))
	require.NoError(t, lock.Acquire(ctx, subject))
}

func TestInMemoryReleaseIsIdempotent(t *testing.T) {
	lock := NewInMemory()
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())

	require.NoError(t, lock.Release(ctx, subject))
	require.NoError(t, lock.Acquire(ctx, subject))
	require.NoError(t, lock.Release(ctx, subject))
	require.NoError(t, lock.Release(ctx, subject))
}
