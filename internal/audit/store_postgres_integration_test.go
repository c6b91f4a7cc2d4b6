//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	id "vouch/pkg/domain"
	"vouch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	pool  *pgxpool.Pool
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())

	pool, err := pgxpool.New(s.ctx, s.pg.DSN)
	s.Require().NoError(err)
	s.pool = pool
	s.T().Cleanup(pool.Close)

	s.store = NewPostgresStore(pool)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events"))
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	vid := id.NewVerificationID()
	at := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.Append(s.ctx, Event{
		Timestamp:      at,
		VerificationID: vid,
		SubjectIDHash:  "hash-1",
		Action:         ActionVerificationStarted,
		StatusAfter:    "pending",
		RequestID:      "req-1",
		Device:         "Firefox 128 on Linux",
	}))
	s.Require().NoError(s.store.Append(s.ctx, Event{
		Timestamp:      at.Add(time.Second),
		VerificationID: vid,
		SubjectIDHash:  "hash-1",
		Action:         ActionDecisionMade,
		StatusBefore:   "pending",
		StatusAfter:    "approved",
		Outcome:        "approved_auto",
	}))

	events, err := s.store.ListByVerification(s.ctx, vid)
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(ActionVerificationStarted, events[0].Action)
	s.Equal(at, events[0].Timestamp.UTC())
	s.Equal("req-1", events[0].RequestID)
	s.Equal("Firefox 128 on Linux", events[0].Device)

	s.Equal(ActionDecisionMade, events[1].Action)
	s.Equal("approved", events[1].StatusAfter)
	s.Equal("approved_auto", events[1].Outcome)
}

func (s *PostgresStoreSuite) TestListFiltersByVerification() {
	vid := id.NewVerificationID()
	other := id.NewVerificationID()
	now := time.Now().UTC()

	s.Require().NoError(s.store.Append(s.ctx, Event{Timestamp: now, VerificationID: vid, SubjectIDHash: "h", Action: ActionVerificationStarted}))
	s.Require().NoError(s.store.Append(s.ctx, Event{Timestamp: now, VerificationID: other, SubjectIDHash: "h", Action: ActionVerificationStarted}))

	events, err := s.store.ListByVerification(s.ctx, vid)
	s.Require().NoError(err)
	s.Len(events, 1)

	events, err = s.store.ListByVerification(s.ctx, id.NewVerificationID())
	s.Require().NoError(err)
	s.Empty(events)
}
