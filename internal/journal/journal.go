package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Query limits for Recent.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Kind is the subscription kind a message arrived on.
type Kind string

const (
	KindBroadcast Kind = "broadcast"
	KindPersonal  Kind = "personal"
)

// ErrInvalidEntry is returned when an entry lacks a valid kind or destination.
var ErrInvalidEntry = errors.New("journal: invalid entry")

// Entry is one journalled message.
type Entry struct {
	ID          int64             `json:"id"`
	ReceivedAt  time.Time         `json:"received_at"`
	Kind        Kind              `json:"kind"`
	Topic       string            `json:"topic,omitempty"`
	Destination string            `json:"destination"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        []byte            `json:"body"`
}

// Repository stores and lists journal entries.
type Repository interface {
	// Record inserts an entry.
	Record(ctx context.Context, e Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// SQLiteRepository implements Repository on the message_journal table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts e. A zero ReceivedAt is set to the current time.
func (r *SQLiteRepository) Record(ctx context.Context, e Entry) error {
	if (e.Kind != KindBroadcast && e.Kind != KindPersonal) || e.Destination == "" {
		return fmt.Errorf("%w: kind %q, destination %q", ErrInvalidEntry, e.Kind, e.Destination)
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("marshalling headers: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO message_journal (received_at, kind, topic, destination, headers, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ReceivedAt.UTC().Format(time.RFC3339Nano),
		string(e.Kind),
		e.Topic,
		e.Destination,
		string(headersJSON),
		e.Body,
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
// limit <= 0 means DefaultLimit; values above MaxLimit are clamped.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, received_at, kind, topic, destination, headers, body
		FROM message_journal
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e           Entry
			receivedAt  string
			kind        string
			headersJSON string
		)
		if err := rows.Scan(&e.ID, &receivedAt, &kind, &e.Topic, &e.Destination, &headersJSON, &e.Body); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Kind = Kind(kind)
		if e.ReceivedAt, err = time.Parse(time.RFC3339Nano, receivedAt); err != nil {
			return nil, fmt.Errorf("parsing received_at %q: %w", receivedAt, err)
		}
		if err := json.Unmarshal([]byte(headersJSON), &e.Headers); err != nil {
			return nil, fmt.Errorf("unmarshalling headers: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return entries, nil
}
