package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/store"
)

func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "katchincms-logging-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		db.Close()
		os.Remove(dbPath)
	}
}

type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestHandleErrorWritesEvent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("database connection failed", "host", "localhost")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e := events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("Level = %q, want error", e.Level)
	}
	if e.Message != "database connection failed" {
		t.Errorf("Message = %q", e.Message)
	}
	if !strings.Contains(e.Metadata, `"host":"localhost"`) {
		t.Errorf("Metadata = %q", e.Metadata)
	}
}

func TestHandleInfoSkipsEventLog(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("server started", "addr", ":8080")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0 for info level", len(events))
	}
}

func TestCategoryExtraction(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	// Explicit attribute wins over inference.
	logger.Warn("something odd", "category", model.EventCategoryMail)
	// Inferred from message text.
	logger.Warn("article slug collision retried")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	got := map[string]bool{}
	for _, e := range events {
		got[e.Category] = true
		if strings.Contains(e.Metadata, "category") {
			t.Errorf("category attr leaked into metadata: %q", e.Metadata)
		}
	}
	if !got[model.EventCategoryMail] || !got[model.EventCategoryArticle] {
		t.Errorf("categories = %v", got)
	}
}

func TestEscapeJSON(t *testing.T) {
	in := "line1\nline2 \"quoted\" \\slash"
	want := `line1\nline2 \"quoted\" \\slash`
	if got := escapeJSON(in); got != want {
		t.Errorf("escapeJSON = %q, want %q", got, want)
	}
}
