// Package storage defines the persistence contracts of the table service.
//
// Live session state is never persisted. The only durable record is the
// append-only audit log of handled events.
package storage

import (
	"context"
	"time"
)

// AuditEvent records one handled transport event.
type AuditEvent struct {
	ID           int64
	Timestamp    time.Time
	EventName    string
	ConnectionID string
	DisplayName  string
	RoomID       string
	// Outcome is "ok" or the domain error code that rejected the event.
	Outcome     string
	TraceID     string
	SpanID      string
	PayloadJSON []byte
}

// AuditEventStore appends audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
}

// AuditEventReader pages through audit events in append order.
type AuditEventReader interface {
	// ListAuditEvents returns up to limit events with an ID greater than afterID.
	ListAuditEvents(ctx context.Context, afterID int64, limit int) ([]AuditEvent, error)
}
