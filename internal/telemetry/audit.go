package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sixdegrees-service/internal/observability"
	"sixdegrees-service/internal/rabbitmq"
)

const AuditRoutingKey = "sixdegrees-service.audit"

const auditSchemaVersion = 2

// Action names the state change an audit entry is about.
type Action string

const (
	ActionAccess           Action = "access"
	ActionUserSync         Action = "user.sync"
	ActionProfileUpdate    Action = "user.profile_update"
	ActionAvatarUpload     Action = "user.avatar_upload"
	ActionInviteSend       Action = "connection.invite"
	ActionInviteAccept     Action = "connection.invite_accept"
	ActionInviteReject     Action = "connection.invite_reject"
	ActionConnectionRemove Action = "connection.remove"
	ActionRequestCreate    Action = "request.create"
	ActionRequestCancel    Action = "request.cancel"
	ActionChainJoin        Action = "chain.join"
	ActionChainFreeze      Action = "chain.freeze"
	ActionChainComplete    Action = "chain.complete"
	ActionSwipe            Action = "swipe.record"
	ActionSwipeUndo        Action = "swipe.undo"
	ActionCreditPurchase   Action = "wallet.purchase"
)

// Outcome classifies how an audited action ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// OutcomeForStatus maps an HTTP status to an outcome: client errors are
// rejections, server errors are failures.
func OutcomeForStatus(status int) Outcome {
	switch {
	case status >= 500:
		return OutcomeFailed
	case status >= 400:
		return OutcomeRejected
	default:
		return OutcomeSucceeded
	}
}

func (o Outcome) level() string {
	switch o {
	case OutcomeFailed:
		return "ERROR"
	case OutcomeRejected:
		return "WARN"
	default:
		return "INFO"
	}
}

// Subject identifies the record an action touched.
type Subject struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

func UserSubject(id int64) *Subject    { return &Subject{Kind: "user", ID: id} }
func RequestSubject(id int64) *Subject { return &Subject{Kind: "connection_request", ID: id} }
func InviteSubject(id int64) *Subject  { return &Subject{Kind: "connection_invite", ID: id} }

// AuditEntry is one handler outcome worth keeping.
type AuditEntry struct {
	Action     Action
	Outcome    Outcome
	HTTPStatus int
	RequestID  string
	ActorID    *int64
	Subject    *Subject
	Detail     string
}

// Envelope matches the log-collector audit_log schema.
type Envelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *int64       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level      string   `json:"level"`
	Action     Action   `json:"action"`
	Outcome    Outcome  `json:"outcome"`
	HTTPStatus int      `json:"http_status,omitempty"`
	Subject    *Subject `json:"subject,omitempty"`
	Text       string   `json:"text,omitempty"`
}

type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher rabbitmq.Publisher, service, environment string) *AuditEmitter {
	return &AuditEmitter{publisher: publisher, service: service, environment: environment, now: time.Now}
}

// Record publishes the entry to the logs exchange. Publish failures are
// logged and dropped.
func (e *AuditEmitter) Record(ctx context.Context, entry AuditEntry) {
	if e == nil || e.publisher == nil {
		return
	}
	if entry.Outcome == "" {
		entry.Outcome = OutcomeForStatus(entry.HTTPStatus)
	}

	envelope := Envelope{
		SchemaVersion: auditSchemaVersion,
		EventID:       uuid.NewString(),
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		UserID:        entry.ActorID,
		Payload: AuditPayload{
			Level:      entry.Outcome.level(),
			Action:     entry.Action,
			Outcome:    entry.Outcome,
			HTTPStatus: entry.HTTPStatus,
			Subject:    entry.Subject,
			Text:       entry.Detail,
		},
	}

	if err := e.publisher.Publish(ctx, AuditRoutingKey, envelope); err != nil {
		slog.Warn("failed to publish audit log", "request_id", entry.RequestID, "action", entry.Action, "error", err)
		return
	}
	observability.IncAuditEventPublished(string(entry.Action), string(entry.Outcome))
}
