// Package telemetry records the audit trail of handled table events.
package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeOK marks an event that was handled without error.
const OutcomeOK = "ok"

// Emitter records audit events.
type Emitter struct {
	store storage.AuditEventStore
	clock func() time.Time
}

// NewEmitter creates a new audit emitter. A nil store makes every Emit a no-op.
func NewEmitter(store storage.AuditEventStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records an audit event. Missing timestamps are filled from the clock
// and missing trace ids from the span in ctx.
func (e *Emitter) Emit(ctx context.Context, evt storage.AuditEvent) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	if evt.Outcome == "" {
		evt.Outcome = OutcomeOK
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		if evt.TraceID == "" {
			evt.TraceID = spanCtx.TraceID().String()
		}
		if evt.SpanID == "" {
			evt.SpanID = spanCtx.SpanID().String()
		}
	}
	return e.store.AppendAuditEvent(ctx, evt)
}
