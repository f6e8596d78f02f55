package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/karanbisht-123/katchincms-go/internal/cache"
	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/store"
)

func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "katchincms-service-test-*.db")
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

func testArticleService(t *testing.T) (*ArticleService, *sql.DB, func()) {
	t.Helper()
	db, cleanup := testDB(t)
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	svc := NewArticleService(db, c, nil, nil)
	return svc, db, func() {
		c.Close()
		cleanup()
	}
}

func seedAuthor(t *testing.T, db *sql.DB, email string) store.User {
	t.Helper()
	now := time.Now()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:     email,
		Name:      "Test Author",
		Role:      model.RoleAuthor,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// words builds a body with exactly n whitespace-delimited tokens.
func words(n int) string {
	return "<p>" + strings.TrimSpace(strings.Repeat("word ", n)) + "</p>"
}

func validInput() ArticleInput {
	return ArticleInput{
		Title:   "A Perfectly Ordinary Title",
		Content: words(120),
		Tags:    []string{"Go", "testing"},
	}
}
