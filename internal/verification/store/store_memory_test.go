package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vouch/internal/verification/models"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newTestRecord(subject id.SubjectID) *models.VerificationRecord {
	return &models.VerificationRecord{
		ID:        id.NewVerificationID(),
		SubjectID: subject,
		Request: models.VerificationRequest{
			SubjectID:     subject,
			DocumentType:  models.DocumentPassport,
			Purpose:       models.PurposeIdentityVerification,
			RiskTolerance: models.RiskMedium,
			DocumentImage: []byte("img"),
		},
		Status: models.StatusPending,
	}
}

func newSubject() id.SubjectID { return id.SubjectID(uuid.New()) }

func (s *InMemoryStoreSuite) TestCreatePending() {
	s.Run("creates and indexes the pending record", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))

		got, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, got.Status)
		s.False(got.CreatedAt.IsZero())
	})

	s.Run("second pending for the same subject conflicts", func() {
		subject := newSubject()
		s.Require().NoError(s.store.CreatePending(s.ctx, newTestRecord(subject)))

		err := s.store.CreatePending(s.ctx, newTestRecord(subject))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("terminal record frees the subject for resubmission", func() {
		subject := newSubject()
		first := newTestRecord(subject)
		s.Require().NoError(s.store.CreatePending(s.ctx, first))
		s.Require().NoError(s.store.Finalize(s.ctx, first.ID, models.StatusRejected, nil, ""))

		s.NoError(s.store.CreatePending(s.ctx, newTestRecord(subject)))
	})
}

func (s *InMemoryStoreSuite) TestFindByID() {
	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewVerificationID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record does not alias store internals", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.AttachResults(s.ctx, rec.ID, []models.AnalyzerResult{
			{Kind: models.AnalyzerDocument, Succeeded: true},
		}))

		got, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		got.Results[0].Succeeded = false
		got.Status = models.StatusApproved

		again, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.True(again.Results[0].Succeeded)
		s.Equal(models.StatusPending, again.Status)
	})
}

func (s *InMemoryStoreSuite) TestListByStatus() {
	s.Run("oldest first with limit", func() {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		var ids []id.VerificationID
		for i := 0; i < 3; i++ {
			rec := newTestRecord(newSubject())
			ctx := requestcontext.WithTime(s.ctx, base.Add(time.Duration(i)*time.Minute))
			s.Require().NoError(s.store.CreatePending(ctx, rec))
			s.Require().NoError(s.store.Finalize(ctx, rec.ID, models.StatusManualReview, nil, ""))
			ids = append(ids, rec.ID)
		}

		got, err := s.store.ListByStatus(s.ctx, models.StatusManualReview, 2)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(ids[0], got[0].ID)
		s.Equal(ids[1], got[1].ID)
	})

	s.Run("empty result for unused status", func() {
		got, err := s.store.ListByStatus(s.ctx, models.StatusApproved, 10)
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *InMemoryStoreSuite) TestFinalize() {
	s.Run("moves pending to terminal with decision", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))

		dec := &models.VerificationDecision{Outcome: models.OutcomeApprovedAuto, OverallScore: 0.9}
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusApproved, dec, ""))

		got, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
		s.Require().NotNil(got.Decision)
		s.Equal(models.OutcomeApprovedAuto, got.Decision.Outcome)
	})

	s.Run("repeating the same terminal write is a no-op", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusRejected, nil, ""))

		s.NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusRejected, nil, ""))
	})

	s.Run("conflicting terminal write fails", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusRejected, nil, ""))

		err := s.store.Finalize(s.ctx, rec.ID, models.StatusApproved, nil, "")
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown record", func() {
		err := s.store.Finalize(s.ctx, id.NewVerificationID(), models.StatusApproved, nil, "")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("resubmission keeps the failure reason", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusResubmissionRequired, nil, "document analysis unavailable"))

		got, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Equal("document analysis unavailable", got.FailureReason)
	})
}

func (s *InMemoryStoreSuite) TestAttachResults() {
	s.Run("attaches to a pending record", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))

		s.Require().NoError(s.store.AttachResults(s.ctx, rec.ID, []models.AnalyzerResult{
			{Kind: models.AnalyzerDocument, Succeeded: true},
			{Kind: models.AnalyzerPhoto, Succeeded: false, Error: "timeout"},
		}))

		got, err := s.store.FindByID(s.ctx, rec.ID)
		s.Require().NoError(err)
		s.Len(got.Results, 2)
	})

	s.Run("rejects terminal records", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusApproved, nil, ""))

		err := s.store.AttachResults(s.ctx, rec.ID, nil)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *InMemoryStoreSuite) TestApplyReview() {
	manualReview := func() *models.VerificationRecord {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))
		s.Require().NoError(s.store.Finalize(s.ctx, rec.ID, models.StatusManualReview, nil, ""))
		return rec
	}

	s.Run("approves a manual review record", func() {
		rec := manualReview()
		got, err := s.store.ApplyReview(s.ctx, rec.ID, models.StatusApproved)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, got.Status)
	})

	s.Run("rejects a manual review record", func() {
		rec := manualReview()
		got, err := s.store.ApplyReview(s.ctx, rec.ID, models.StatusRejected)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, got.Status)
	})

	s.Run("only manual review records can be overridden", func() {
		rec := newTestRecord(newSubject())
		s.Require().NoError(s.store.CreatePending(s.ctx, rec))

		_, err := s.store.ApplyReview(s.ctx, rec.ID, models.StatusApproved)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("override target must be terminal approve or reject", func() {
		rec := manualReview()
		_, err := s.store.ApplyReview(s.ctx, rec.ID, models.StatusPending)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("double override fails", func() {
		rec := manualReview()
		_, err := s.store.ApplyReview(s.ctx, rec.ID, models.StatusApproved)
		s.Require().NoError(err)

		_, err = s.store.ApplyReview(s.ctx, rec.ID, models.StatusRejected)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}
