package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-sockclient/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-sockclient/internal/sockclient"
	"github.com/nerrad567/gray-logic-sockclient/migrations"
)

// setupRepo opens a migrated journal database in a temp directory.
func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "journal.db"), WALMode: true})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// =============================================================================
// Repository Tests
// =============================================================================

func TestRecordAndRecent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ReceivedAt: base, Kind: KindBroadcast, Topic: "orders", Destination: "/topic/p1/orders", Body: []byte(`{"n":1}`)},
		{ReceivedAt: base.Add(time.Second), Kind: KindPersonal, Destination: "/user/queue/p1/", Headers: map[string]string{"message-id": "m-2"}, Body: []byte(`{"n":2}`)},
	}
	for _, e := range entries {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}

	newest := got[0]
	if newest.Kind != KindPersonal || newest.Destination != "/user/queue/p1/" {
		t.Errorf("newest = %+v, want the personal entry first", newest)
	}
	if newest.Headers["message-id"] != "m-2" {
		t.Errorf("Headers = %v", newest.Headers)
	}
	if !newest.ReceivedAt.Equal(base.Add(time.Second)) {
		t.Errorf("ReceivedAt = %v", newest.ReceivedAt)
	}
	if got[1].Topic != "orders" || string(got[1].Body) != `{"n":1}` {
		t.Errorf("oldest = %+v", got[1])
	}
	if got[0].ID <= got[1].ID {
		t.Errorf("IDs not descending: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestRecent_Limit(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Record(ctx, Entry{Kind: KindBroadcast, Topic: "t", Destination: "/topic/p1/t"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{2, 2},
		{0, 5},
		{-1, 5},
		{MaxLimit + 100, 5},
	}
	for _, tt := range tests {
		got, err := repo.Recent(ctx, tt.limit)
		if err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("Recent(%d) returned %d, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestRecord_Invalid(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing kind", Entry{Destination: "/topic/p1/t"}},
		{"unknown kind", Entry{Kind: "queue", Destination: "/topic/p1/t"}},
		{"missing destination", Entry{Kind: KindBroadcast}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Record(context.Background(), tt.entry); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Record() error = %v, want ErrInvalidEntry", err)
			}
		})
	}
}

// =============================================================================
// Recorder Tests
// =============================================================================

func TestRecorder_HandleMessage(t *testing.T) {
	repo := setupRepo(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	r := NewRecorder(repo, KindBroadcast, "news")
	r.now = func() time.Time { return at }

	err := r.HandleMessage(sockclient.Message{
		Destination: "/topic/p1/news",
		Headers:     map[string]string{"subscription": "sub-0"},
		Body:        []byte("hello"),
	})
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	got, err := repo.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Recent() returned %d entries, want 1", len(got))
	}
	e := got[0]
	if e.Kind != KindBroadcast || e.Topic != "news" || e.Destination != "/topic/p1/news" {
		t.Errorf("entry = %+v", e)
	}
	if !e.ReceivedAt.Equal(at) {
		t.Errorf("ReceivedAt = %v, want %v", e.ReceivedAt, at)
	}
}
