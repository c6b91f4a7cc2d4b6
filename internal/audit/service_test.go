package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) Publish(context.Context, Event) error {
	p.calls++
	return errors.New("broker unreachable")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitStampsContextMetadata(t *testing.T) {
	store := NewInMemoryStore()
	service := NewService(store, nil, discardLogger())

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithRequestID(ctx, "req-123")
	ctx = requestcontext.WithDevice(ctx, "Firefox 128 on Linux")

	vid := id.NewVerificationID()
	require.NoError(t, service.Emit(ctx, Event{
		VerificationID: vid,
		Action:         ActionVerificationStarted,
	}))

	events := store.All()
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
	assert.Equal(t, "req-123", events[0].RequestID)
	assert.Equal(t, "Firefox 128 on Linux", events[0].Device)
	assert.Equal(t, vid, events[0].VerificationID)
}

func TestEmitKeepsExplicitMetadata(t *testing.T) {
	store := NewInMemoryStore()
	service := NewService(store, nil, discardLogger())

	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "from-context")

	require.NoError(t, service.Emit(ctx, Event{
		Timestamp:      at,
		RequestID:      "explicit",
		VerificationID: id.NewVerificationID(),
		Action:         ActionDecisionMade,
	}))

	events := store.All()
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
	assert.Equal(t, "explicit", events[0].RequestID)
}

func TestEmitToleratesPublisherFailure(t *testing.T) {
	store := NewInMemoryStore()
	publisher := &failingPublisher{}
	service := NewService(store, publisher, discardLogger())

	err := service.Emit(context.Background(), Event{
		VerificationID: id.NewVerificationID(),
		Action:         ActionDecisionMade,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, publisher.calls)
	assert.Len(t, store.All(), 1)
}

func TestListByVerification(t *testing.T) {
	store := NewInMemoryStore()
	service := NewService(store, nil, discardLogger())
	ctx := context.Background()

	vid := id.NewVerificationID()
	other := id.NewVerificationID()
	require.NoError(t, service.Emit(ctx, Event{VerificationID: vid, Action: ActionVerificationStarted}))
	require.NoError(t, service.Emit(ctx, Event{VerificationID: other, Action: ActionVerificationStarted}))
	require.NoError(t, service.Emit(ctx, Event{VerificationID: vid, Action: ActionDecisionMade}))

	events, err := service.List(ctx, vid)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionVerificationStarted, events[0].Action)
	assert.Equal(t, ActionDecisionMade, events[1].Action)
}

func TestHashSubjectIsStable(t *testing.T) {
	subject := id.SubjectID(uuid.New())

	first := HashSubject(subject)
	second := HashSubject(subject)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, HashSubject(id.SubjectID(uuid.New())))
}
