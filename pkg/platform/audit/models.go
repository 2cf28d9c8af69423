package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: a client
	// escalated to manual review must be traceable for years.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine evaluations and batch runs. These can
	// be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventClientEvaluated      AuditEvent = "client_evaluated"
	EventManualReviewRequired AuditEvent = "manual_review_required"
	EventDocumentValidated    AuditEvent = "document_validated"
	EventRescoreCompleted     AuditEvent = "rescore_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventManualReviewRequired: CategoryCompliance,

	EventClientEvaluated:   CategoryOperations,
	EventDocumentValidated: CategoryOperations,
	EventRescoreCompleted:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted by the onboarding service to capture evaluations. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// ClientID is the onboarding client the event is about; zero for batch events.
	ClientID int64  `json:"client_id,omitempty"`
	Subject  string `json:"subject"`
	Action   string `json:"action"`
	// Decision carries the risk level for evaluation events.
	Decision     string `json:"decision,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Stage        string `json:"stage,omitempty"`
	Completeness int    `json:"completeness"`
	Confidence   int    `json:"confidence"`
	RequestID    string `json:"request_id,omitempty"`
	ActorIP      string `json:"actor_ip,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader is implemented by stores that can answer queries. Stream sinks
// (Kafka) are write-only.
type Reader interface {
	ListByClient(ctx context.Context, clientID int64) ([]Event, error)
}
