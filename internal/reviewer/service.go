package reviewer

import (
	"context"
	"errors"
	"time"

	"vouch/internal/jwttoken"
	"vouch/internal/reviewer/secrets"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// DefaultTokenTTL is how long an issued reviewer token stays valid.
const DefaultTokenTTL = time.Hour

// Service registers reviewers and exchanges their API keys for access tokens.
type Service struct {
	store    Store
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
}

func NewService(store Store, tokens *jwttoken.JWTService) *Service {
	return &Service{store: store, tokens: tokens, tokenTTL: DefaultTokenTTL}
}

// Register creates a reviewer and returns the plaintext API key exactly once.
func (s *Service) Register(ctx context.Context, name string) (*Reviewer, string, error) {
	if name == "" {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "reviewer name is required")
	}

	apiKey, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate api key")
	}
	hash, err := secrets.Hash(apiKey)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash api key")
	}

	rev := &Reviewer{
		ID:         id.NewReviewerID(),
		Name:       name,
		APIKeyHash: hash,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, rev); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not store reviewer")
	}
	return rev, apiKey, nil
}

// IssueToken verifies a reviewer's API key and returns a signed access token
// with its validity window.
func (s *Service) IssueToken(ctx context.Context, reviewerID, apiKey string) (string, time.Duration, error) {
	rid, err := id.ParseReviewerID(reviewerID)
	if err != nil {
		// Do not leak whether the reviewer exists.
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	rev, err := s.store.FindByID(ctx, rid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not load reviewer")
	}

	if err := secrets.Verify(apiKey, rev.APIKeyHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return "", 0, err
		}
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not verify api key")
	}

	token, err := s.tokens.GenerateAccessToken(rev.ID, s.tokenTTL)
	if err != nil {
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return token, s.tokenTTL, nil
}
