package ports

import (
	"context"

	"onboard/pkg/platform/audit"
)

// AuditPublisher defines the interface for emitting audit events.
// It matches the audit publisher but is defined here to maintain
// hexagonal boundaries.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReader is satisfied by publishers that may be backed by a queryable
// store. Stream-only sinks return an error wrapping sentinel.ErrUnavailable.
type AuditReader interface {
	List(ctx context.Context, clientID int64) ([]audit.Event, error)
}
