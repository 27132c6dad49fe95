package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mock.Mock
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := p.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (p *recordingPublisher) Close() error { return nil }

func TestRecordBuildsEnvelope(t *testing.T) {
	pub := new(recordingPublisher)
	emitter := NewAuditEmitter(pub, "sixdegrees-service", "test")
	emitter.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	userID := int64(42)

	pub.On("Publish", mock.Anything, AuditRoutingKey, mock.MatchedBy(func(e Envelope) bool {
		return e.EventType == "audit_log" &&
			e.SchemaVersion == 2 &&
			e.Service == "sixdegrees-service" &&
			e.Environment == "test" &&
			e.RequestID == "req-1" &&
			e.OccurredAt == "2026-03-01T10:00:00Z" &&
			e.UserID != nil && *e.UserID == 42 &&
			e.Payload.Level == "INFO" &&
			e.Payload.Action == ActionChainJoin &&
			e.Payload.Outcome == OutcomeSucceeded &&
			e.Payload.Subject != nil && *e.Payload.Subject == Subject{Kind: "connection_request", ID: 5} &&
			e.Payload.Text == "depth 2" &&
			e.EventID != ""
	})).Return(nil).Once()

	emitter.Record(context.Background(), AuditEntry{
		Action:     ActionChainJoin,
		Outcome:    OutcomeSucceeded,
		HTTPStatus: 201,
		RequestID:  "req-1",
		ActorID:    &userID,
		Subject:    RequestSubject(5),
		Detail:     "depth 2",
	})
	pub.AssertExpectations(t)
}

func TestRecordDerivesOutcomeFromStatus(t *testing.T) {
	cases := map[int]struct {
		outcome Outcome
		level   string
	}{
		409: {OutcomeRejected, "WARN"},
		401: {OutcomeRejected, "WARN"},
		500: {OutcomeFailed, "ERROR"},
		200: {OutcomeSucceeded, "INFO"},
	}
	for status, want := range cases {
		pub := new(recordingPublisher)
		emitter := NewAuditEmitter(pub, "svc", "test")
		pub.On("Publish", mock.Anything, AuditRoutingKey, mock.MatchedBy(func(e Envelope) bool {
			return e.Payload.Outcome == want.outcome && e.Payload.Level == want.level && e.Payload.HTTPStatus == status
		})).Return(nil).Once()

		emitter.Record(context.Background(), AuditEntry{Action: ActionRequestCancel, HTTPStatus: status, RequestID: "req"})
		pub.AssertExpectations(t)
	}
}

func TestRecordSwallowsPublishErrors(t *testing.T) {
	pub := new(recordingPublisher)
	emitter := NewAuditEmitter(pub, "svc", "test")
	pub.On("Publish", mock.Anything, AuditRoutingKey, mock.Anything).Return(errors.New("closed")).Once()

	assert.NotPanics(t, func() {
		emitter.Record(context.Background(), AuditEntry{Action: ActionCreditPurchase, Outcome: OutcomeFailed, RequestID: "req-2"})
	})
	pub.AssertExpectations(t)
}

func TestRecordNilEmitter(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() {
		emitter.Record(context.Background(), AuditEntry{Action: ActionAccess})
	})
}

func TestPublishEvent(t *testing.T) {
	pub := new(recordingPublisher)
	event := MatchEvent{MatchID: 1, UserAID: 2, UserBID: 3}
	pub.On("Publish", mock.Anything, EventMatchCreated, event).Return(nil).Once()

	Publish(context.Background(), pub, EventMatchCreated, event)
	Publish(context.Background(), nil, EventMatchCreated, event)

	pub.AssertExpectations(t)
	require.Len(t, pub.Calls, 1)
}
