// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers and response envelopes.
package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
	"github.com/karanbisht-123/katchincms-go/internal/asset"
	"github.com/karanbisht-123/katchincms-go/internal/config"
	"github.com/karanbisht-123/katchincms-go/internal/middleware"
	"github.com/karanbisht-123/katchincms-go/internal/service"
	"github.com/karanbisht-123/katchincms-go/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	cfg        *config.Config
	db         *sql.DB
	articles   *service.ArticleService
	categories *service.CategoryService
	contacts   *service.ContactService
	assets     asset.Store
	logger     *slog.Logger
	verInfo    version.Info
	startTime  time.Time
}

// NewHandler creates the API handler set.
func NewHandler(
	cfg *config.Config,
	db *sql.DB,
	articles *service.ArticleService,
	categories *service.CategoryService,
	contacts *service.ContactService,
	assets asset.Store,
	logger *slog.Logger,
	verInfo version.Info,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:        cfg,
		db:         db,
		articles:   articles,
		categories: categories,
		contacts:   contacts,
		assets:     assets,
		logger:     logger,
		verInfo:    verInfo.Defaults(),
		startTime:  time.Now(),
	}
}

// Routes mounts every API route on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Get("/stats", h.ArticleStats)
		r.Get("/{idOrSlug}", h.GetArticle)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", h.CreateArticle)
			r.Post("/upload-image", h.UploadImage)
			r.Put("/{id}", h.UpdateArticle)
			r.Delete("/{id}", h.DeleteArticle)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{idOrSlug}", h.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})

	r.Route("/contact", func(r chi.Router) {
		r.Post("/", h.SubmitContact)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", h.ListContacts)
			r.Get("/{id}", h.GetContact)
			r.Put("/{id}/status", h.UpdateContactStatus)
		})
	})

	r.Get("/status", h.Status)
	r.Get("/docs", h.Docs)

	return r
}

// successEnvelope is the top-level success response shape.
type successEnvelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
	Filters    any                 `json:"filters,omitempty"`
}

// errorEnvelope is the top-level error response shape.
type errorEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	ErrorID string            `json:"errorId"`
	Details map[string]string `json:"details,omitempty"`
	Stack   string            `json:"stack,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data})
}

func (h *Handler) writePage(w http.ResponseWriter, data any, p service.Pagination, filters any) {
	writeJSON(w, http.StatusOK, successEnvelope{
		Success:    true,
		Data:       data,
		Pagination: &p,
		Filters:    filters,
	})
}

// writeError is the single error boundary: every failure is mapped to
// its transport status here, tagged with a correlation id and logged
// with full detail. Clients get the sanitized message only; the stack
// is attached outside production.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	errorID := uuid.New().String()

	logAttrs := []any{
		"error_id", errorID,
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	}
	if appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindExternal {
		h.logger.Error("request failed", logAttrs...)
	} else {
		h.logger.Warn("request rejected", logAttrs...)
	}

	env := errorEnvelope{
		Message: appErr.Message,
		ErrorID: errorID,
		Details: appErr.Details,
	}
	if h.cfg != nil && h.cfg.IsDevelopment() {
		env.Stack = fmt.Sprintf("%+v\n%s", err, debug.Stack())
	}

	writeJSON(w, appErr.HTTPStatus(), env)
}

// decodeBody decodes a JSON request body, rejecting malformed input.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.ValidationMsg("Invalid JSON request body")
	}
	return nil
}
