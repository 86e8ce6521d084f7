// Package sqlite provides the SQLite-backed table audit log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/duskroll/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/duskroll/internal/services/table/storage"
	"github.com/louisbranch/duskroll/internal/services/table/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists audit events in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ storage.AuditEventStore  = (*Store)(nil)
	_ storage.AuditEventReader = (*Store)(nil)
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite audit store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendAuditEvent inserts one audit event.
func (s *Store) AppendAuditEvent(ctx context.Context, evt storage.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	eventName := strings.TrimSpace(evt.EventName)
	if eventName == "" {
		return fmt.Errorf("event name is required")
	}
	connectionID := strings.TrimSpace(evt.ConnectionID)
	if connectionID == "" {
		return fmt.Errorf("connection id is required")
	}
	outcome := strings.TrimSpace(evt.Outcome)
	if outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if evt.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO audit_events (
	created_at, event_name, connection_id, display_name, room_id, outcome, trace_id, span_id, payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		toMillis(evt.Timestamp),
		eventName,
		connectionID,
		strings.TrimSpace(evt.DisplayName),
		strings.TrimSpace(evt.RoomID),
		outcome,
		evt.TraceID,
		evt.SpanID,
		evt.PayloadJSON,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns events after afterID in append order.
func (s *Store) ListAuditEvents(ctx context.Context, afterID int64, limit int) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, created_at, event_name, connection_id, display_name, room_id, outcome, trace_id, span_id, payload_json
FROM audit_events
WHERE id > ?
ORDER BY id ASC
LIMIT ?
`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	events := make([]storage.AuditEvent, 0, limit)
	for rows.Next() {
		var (
			evt       storage.AuditEvent
			createdAt int64
		)
		if err := rows.Scan(
			&evt.ID,
			&createdAt,
			&evt.EventName,
			&evt.ConnectionID,
			&evt.DisplayName,
			&evt.RoomID,
			&evt.Outcome,
			&evt.TraceID,
			&evt.SpanID,
			&evt.PayloadJSON,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		evt.Timestamp = fromMillis(createdAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
