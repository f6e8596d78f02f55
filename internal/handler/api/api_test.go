package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/karanbisht-123/katchincms-go/internal/asset"
	"github.com/karanbisht-123/katchincms-go/internal/cache"
	"github.com/karanbisht-123/katchincms-go/internal/config"
	"github.com/karanbisht-123/katchincms-go/internal/middleware"
	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/service"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/version"
)

type testServer struct {
	router http.Handler
	db     *sql.DB
	author store.User
	admin  store.User
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "katchincms-api-test-*.db")
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

	uploadsDir := t.TempDir()
	assets, err := asset.NewLocalStore(uploadsDir, "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Env: "test"}

	h := NewHandler(
		cfg,
		db,
		service.NewArticleService(db, c, assets, logger),
		service.NewCategoryService(db, logger),
		service.NewContactService(db, nil, nil, logger),
		assets,
		logger,
		version.Info{},
	)

	r := chi.NewRouter()
	r.Use(middleware.Identity)
	r.Mount("/api/v1", h.Routes())

	srv := &testServer{
		router: r,
		db:     db,
		author: seedUser(t, db, "author@example.com", model.RoleAuthor),
		admin:  seedUser(t, db, "admin@example.com", model.RoleAdmin),
	}
	return srv, func() {
		c.Close()
		db.Close()
		os.Remove(dbPath)
	}
}

func seedUser(t *testing.T, db *sql.DB, email, role string) store.User {
	t.Helper()
	now := time.Now()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:     email,
		Name:      "Test User",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Pagination *service.Pagination `json:"pagination"`
	Message    string              `json:"message"`
	ErrorID    string              `json:"errorId"`
	Details    map[string]string   `json:"details"`
	Stack      string              `json:"stack"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, as *store.User) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set(middleware.HeaderUserID, formatID(as.ID))
		req.Header.Set(middleware.HeaderUserRole, as.Role)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope from %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func validArticleBody() map[string]any {
	return map[string]any{
		"title":   "A Perfectly Ordinary Title",
		"content": "<p>" + strings.TrimSpace(strings.Repeat("word ", 120)) + "</p>",
		"tags":    []string{"Go", "testing"},
	}
}

func TestCreateArticleRequiresAuth(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec, env := s.do(t, http.MethodPost, "/api/v1/articles", validArticleBody(), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.Success {
		t.Error("success = true on error")
	}
	if env.ErrorID == "" {
		t.Error("errorId missing")
	}
}

func TestArticleLifecycle(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec, env := s.do(t, http.MethodPost, "/api/v1/articles", validArticleBody(), &s.author)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var created articleResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding article: %v", err)
	}
	if created.Slug != "a-perfectly-ordinary-title" {
		t.Errorf("Slug = %q", created.Slug)
	}
	if created.Author == nil || created.Author.ID != s.author.ID {
		t.Errorf("Author = %+v", created.Author)
	}
	if created.Status != model.StatusDraft {
		t.Errorf("Status = %q", created.Status)
	}
	if created.PublishedAt != nil {
		t.Error("PublishedAt set on draft")
	}
	if len(created.Tags) != 2 || created.Tags[0] != "go" {
		t.Errorf("Tags = %v", created.Tags)
	}

	// Fetch by slug.
	rec, env = s.do(t, http.MethodGet, "/api/v1/articles/"+created.Slug, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Publish via update.
	body := validArticleBody()
	body["status"] = model.StatusPublished
	rec, env = s.do(t, http.MethodPut, "/api/v1/articles/"+formatID(created.ID), body, &s.author)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var published articleResponse
	if err := json.Unmarshal(env.Data, &published); err != nil {
		t.Fatalf("decoding article: %v", err)
	}
	if published.PublishedAt == nil {
		t.Error("PublishedAt not stamped on publish")
	}

	// Delete.
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/articles/"+formatID(created.ID), nil, &s.author)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/articles/"+created.Slug, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
	if env.Success || env.Message == "" {
		t.Errorf("error envelope = %+v", env)
	}
}

func TestUpdateArticleForbiddenForOtherAuthor(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	_, env := s.do(t, http.MethodPost, "/api/v1/articles", validArticleBody(), &s.author)
	var created articleResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding article: %v", err)
	}

	other := seedUser(t, s.db, "other@example.com", model.RoleAuthor)
	rec, _ := s.do(t, http.MethodPut, "/api/v1/articles/"+formatID(created.ID), validArticleBody(), &other)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	// Admins can edit anyone's article.
	rec, _ = s.do(t, http.MethodPut, "/api/v1/articles/"+formatID(created.ID), validArticleBody(), &s.admin)
	if rec.Code != http.StatusOK {
		t.Errorf("admin update status = %d", rec.Code)
	}
}

func TestArticleValidationEnvelope(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body := validArticleBody()
	body["title"] = "x"
	rec, env := s.do(t, http.MethodPost, "/api/v1/articles", body, &s.author)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Error("success = true on error")
	}
	if env.Details["title"] == "" {
		t.Errorf("Details = %v, want title entry", env.Details)
	}
	if env.Stack != "" {
		t.Error("stack leaked outside development")
	}
}

func TestListArticlesPaginationEnvelope(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		body := validArticleBody()
		body["title"] = "Listing Article " + formatID(int64(i+1))
		body["status"] = model.StatusPublished
		if rec, _ := s.do(t, http.MethodPost, "/api/v1/articles", body, &s.author); rec.Code != http.StatusCreated {
			t.Fatalf("seed create status = %d", rec.Code)
		}
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/articles?limit=2&sortBy=title&sortOrder=asc", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Pagination == nil {
		t.Fatal("pagination missing")
	}
	if env.Pagination.Total != 3 || env.Pagination.Pages != 2 || !env.Pagination.HasNext {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	var items []articleResponse
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decoding items: %v", err)
	}
	if len(items) != 2 || items[0].Title != "Listing Article 1" {
		t.Errorf("items = %d, first = %q", len(items), items[0].Title)
	}

	// Garbage page parameter is rejected before hitting the service.
	rec, _ = s.do(t, http.MethodGet, "/api/v1/articles?page=abc", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("garbage page status = %d", rec.Code)
	}
}

func TestArticleStatsEndpoint(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body := validArticleBody()
	body["status"] = model.StatusPublished
	if rec, _ := s.do(t, http.MethodPost, "/api/v1/articles", body, &s.author); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed")
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/articles/stats", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap service.StatsSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if snap.Total != 1 || snap.Published != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestCategoryAdminOnly(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body := map[string]any{"name": "Tutorials"}

	rec, _ := s.do(t, http.MethodPost, "/api/v1/categories", body, &s.author)
	if rec.Code != http.StatusForbidden {
		t.Errorf("author create status = %d, want 403", rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/categories", body, &s.admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created categoryResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding category: %v", err)
	}
	if created.Slug != "tutorials" {
		t.Errorf("Slug = %q", created.Slug)
	}

	// Duplicate name is a conflict.
	rec, _ = s.do(t, http.MethodPost, "/api/v1/categories", body, &s.admin)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	// Public read.
	rec, _ = s.do(t, http.MethodGet, "/api/v1/categories/tutorials", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("public get status = %d", rec.Code)
	}
}

func TestContactSubmissionFlow(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	body := map[string]any{
		"fullName":     "Jane Doe",
		"email":        "jane@example.com",
		"phoneNo":      "+4915112345678",
		"country":      "Germany",
		"requirements": "We need a content platform for our engineering blog.",
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/contact", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var created contactResponse
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding contact: %v", err)
	}
	if created.Status != model.ContactStatusNew {
		t.Errorf("Status = %q", created.Status)
	}

	// Resubmission inside the window is throttled.
	rec, _ = s.do(t, http.MethodPost, "/api/v1/contact", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("resubmit status = %d, want 429", rec.Code)
	}

	// Listing is admin-only.
	rec, _ = s.do(t, http.MethodGet, "/api/v1/contact", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list status = %d, want 401", rec.Code)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/contact", nil, &s.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list status = %d", rec.Code)
	}
	var items []contactResponse
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decoding items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}

	// Move through the pipeline.
	rec, _ = s.do(t, http.MethodPut, "/api/v1/contact/"+formatID(items[0].ID)+"/status",
		map[string]any{"status": model.ContactStatusContacted}, &s.admin)
	if rec.Code != http.StatusOK {
		t.Errorf("status update = %d", rec.Code)
	}
}

func TestUploadImage(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "cover.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if err := png.Encode(part, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/upload-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderUserID, formatID(s.author.ID))
	req.Header.Set(middleware.HeaderUserRole, s.author.Role)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	var uploaded featuredImage
	if err := json.Unmarshal(env.Data, &uploaded); err != nil {
		t.Fatalf("decoding upload: %v", err)
	}
	if !strings.HasPrefix(uploaded.URL, "http://localhost:8080/uploads/featured/") {
		t.Errorf("URL = %q", uploaded.URL)
	}
	if uploaded.ReferenceID == "" {
		t.Error("ReferenceID missing")
	}
}

func TestStatusAndDocs(t *testing.T) {
	s, cleanup := newTestServer(t)
	defer cleanup()

	rec, env := s.do(t, http.MethodGet, "/api/v1/status", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info map[string]any
	if err := json.Unmarshal(env.Data, &info); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if info["service"] != "katchincms" || info["version"] != "dev" {
		t.Errorf("status body = %v", info)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/docs", nil)
	docsRec := httptest.NewRecorder()
	s.router.ServeHTTP(docsRec, req)
	if docsRec.Code != http.StatusOK {
		t.Fatalf("docs status = %d", docsRec.Code)
	}
	if ct := docsRec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(docsRec.Body.String(), "<h1") {
		t.Error("docs body missing rendered heading")
	}
}
