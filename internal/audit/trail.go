// Package audit records device linking activity for later inspection:
// which peers were merged into the linked set, when joins were confirmed,
// and which devices were removed.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded on the trail.
const (
	ActionLinkMerged    = "link_merged"
	ActionLinkConfirmed = "link_confirmed"
	ActionDeviceDeleted = "device_deleted"
)

// Event is a single entry on the linking audit trail.
type Event struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	DeviceID  string         `json:"device_id,omitempty"`
	PeerID    string         `json:"peer_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter controls which events List returns.
type Filter struct {
	Action   string // optional: filter by action
	DeviceID string // optional: filter by acting device
	Limit    int    // default 50, max 200
	Offset   int    // pagination offset
}

// ListResult contains the paginated trail results.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Trail records and queries linking events.
type Trail interface {
	Record(ctx context.Context, event *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// NopTrail discards every event. Used when no durable store is configured.
type NopTrail struct{}

// Record discards the event.
func (NopTrail) Record(context.Context, *Event) error { return nil }

// List returns an empty result.
func (NopTrail) List(_ context.Context, filter Filter) (*ListResult, error) {
	return &ListResult{Events: []Event{}, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// trailSchema creates the single table the trail uses.
const trailSchema = `
	CREATE TABLE IF NOT EXISTS link_events (
		id         TEXT PRIMARY KEY,
		action     TEXT NOT NULL,
		device_id  TEXT,
		peer_id    TEXT,
		details    TEXT,
		created_at TEXT NOT NULL
	) STRICT;
`

// SQLiteTrail persists linking events in SQLite.
type SQLiteTrail struct {
	db *sql.DB
}

// NewSQLiteTrail wraps an open SQLite connection, creating the events table
// if needed. The caller keeps ownership of the connection.
func NewSQLiteTrail(ctx context.Context, db *sql.DB) (*SQLiteTrail, error) {
	if _, err := db.ExecContext(ctx, trailSchema); err != nil {
		return nil, fmt.Errorf("creating link_events schema: %w", err)
	}
	return &SQLiteTrail{db: db}, nil
}

// Record inserts a new event. The ID and CreatedAt are generated if empty.
func (t *SQLiteTrail) Record(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = "evt-" + uuid.NewString()[:8]
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var detailsJSON any
	if event.Details != nil {
		b, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshalling event details: %w", err)
		}
		detailsJSON = string(b)
	}

	_, err := t.db.ExecContext(ctx,
		`INSERT INTO link_events (id, action, device_id, peer_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.Action,
		nullableString(event.DeviceID), nullableString(event.PeerID),
		detailsJSON,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting link event: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns events matching the filter, most recent first.
func (t *SQLiteTrail) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// WHERE is assembled from fixed parameterised fragments, never from
	// caller-supplied SQL.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM link_events %s", where)
	var total int
	if err := t.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting link events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT id, action, device_id, peer_id, details, created_at FROM link_events %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying link events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var deviceID, peerID, detailsJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&event.ID, &event.Action,
			&deviceID, &peerID, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning link event: %w", err)
		}

		if deviceID.Valid {
			event.DeviceID = deviceID.String
		}
		if peerID.Valid {
			event.PeerID = peerID.String
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				event.Details = details
			}
		}

		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", createdAt, err)
		}
		event.CreatedAt = ts

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating link events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
