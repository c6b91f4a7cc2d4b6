package reviewer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/jwttoken"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/testutil"
)

func newTestService() (*Service, *jwttoken.JWTService) {
	tokens := jwttoken.NewJWTService("test-signing-key", "vouch", "vouch-reviewers")
	return NewService(NewInMemoryStore(), tokens), tokens
}

func TestRegister(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	rev, apiKey, err := service.Register(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, "alice", rev.Name)
	assert.NotEmpty(t, apiKey)
	// The plaintext key must never be stored.
	assert.NotEqual(t, apiKey, rev.APIKeyHash)
	assert.NotEmpty(t, rev.APIKeyHash)
}

func TestRegisterRequiresName(t *testing.T) {
	service, _ := newTestService()

	_, _, err := service.Register(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestIssueToken(t *testing.T) {
	service, tokens := newTestService()
	ctx := context.Background()

	rev, apiKey, err := service.Register(ctx, "alice")
	require.NoError(t, err)

	token, ttl, err := service.IssueToken(ctx, rev.ID.String(), apiKey)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, ttl)

	got, err := tokens.ExtractReviewerID(token)
	require.NoError(t, err)
	assert.Equal(t, rev.ID, got)
}

func TestIssueTokenWrongKey(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	rev, _, err := service.Register(ctx, "alice")
	require.NoError(t, err)

	_, _, err = service.IssueToken(ctx, rev.ID.String(), "wrong-key")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestIssueTokenUniformFailures(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	// Unknown reviewer and malformed id both answer with the same message so
	// callers cannot probe which reviewers exist.
	_, _, unknownErr := service.IssueToken(ctx, uuid.NewString(), "key")
	require.Error(t, unknownErr)
	assert.True(t, dErrors.HasCode(unknownErr, dErrors.CodeUnauthorized))

	_, _, malformedErr := service.IssueToken(ctx, "not-a-uuid", "key")
	require.Error(t, malformedErr)
	assert.True(t, dErrors.HasCode(malformedErr, dErrors.CodeUnauthorized))

	assert.Equal(t, dErrors.MessageOf(unknownErr), dErrors.MessageOf(malformedErr))
}

func TestTokenLifecycleScenario(t *testing.T) {
	service, tokens := newTestService()
	ctx := context.Background()

	testutil.Given(t, "a registered reviewer holding an api key", func(t *testing.T) {
		rev, apiKey, err := service.Register(ctx, "bob")
		require.NoError(t, err)

		testutil.When(t, "the reviewer trades the key for a token", func(t *testing.T) {
			token, _, err := service.IssueToken(ctx, rev.ID.String(), apiKey)
			require.NoError(t, err)

			testutil.Then(t, "the token identifies the same reviewer", func(t *testing.T) {
				got, err := tokens.ExtractReviewerID(token)
				require.NoError(t, err)
				assert.Equal(t, rev.ID, got)
			})
		})
	})
}
