// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
	"github.com/karanbisht-123/katchincms-go/internal/middleware"
	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/service"
	"github.com/karanbisht-123/katchincms-go/internal/util"
)

// articleRequest is the write payload for create and update.
type articleRequest struct {
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Excerpt       string         `json:"excerpt"`
	Tags          []string       `json:"tags"`
	Categories    []int64        `json:"categories"`
	Status        string         `json:"status"`
	FeaturedImage *featuredImage `json:"featuredImage"`
	IsFeatured    bool           `json:"isFeatured"`
	Meta          *articleMeta   `json:"meta"`
}

type featuredImage struct {
	URL         string `json:"url"`
	ReferenceID string `json:"referenceId"`
}

type articleMeta struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

func (req articleRequest) toInput() service.ArticleInput {
	in := service.ArticleInput{
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		Tags:        req.Tags,
		CategoryIDs: req.Categories,
		Status:      req.Status,
		IsFeatured:  req.IsFeatured,
	}
	if req.FeaturedImage != nil {
		in.FeaturedImageURL = req.FeaturedImage.URL
		in.FeaturedImageRef = req.FeaturedImage.ReferenceID
	}
	if req.Meta != nil {
		in.MetaTitle = req.Meta.Title
		in.MetaDescription = req.Meta.Description
		in.MetaKeywords = req.Meta.Keywords
	}
	return in
}

// articleResponse is the read shape of an article.
type articleResponse struct {
	ID            int64              `json:"id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Content       string             `json:"content"`
	Excerpt       string             `json:"excerpt,omitempty"`
	Author        *authorResponse    `json:"author,omitempty"`
	Tags          []string           `json:"tags"`
	Categories    []categoryResponse `json:"categories"`
	Status        string             `json:"status"`
	PublishedAt   *time.Time         `json:"publishedAt,omitempty"`
	FeaturedImage *featuredImage     `json:"featuredImage,omitempty"`
	ReadTime      int64              `json:"readTime"`
	IsFeatured    bool               `json:"isFeatured"`
	Meta          articleMeta        `json:"meta"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type authorResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toArticleResponse(d service.ArticleDetail) articleResponse {
	a := d.Article
	resp := articleResponse{
		ID:         a.ID,
		Title:      a.Title,
		Slug:       a.Slug,
		Content:    a.Content,
		Excerpt:    util.StringFromNull(a.Excerpt),
		Tags:       model.DecodeStringList(a.Tags),
		Categories: make([]categoryResponse, 0, len(d.Categories)),
		Status:     a.Status,
		ReadTime:   a.ReadTime,
		IsFeatured: a.IsFeatured,
		Meta: articleMeta{
			Title:       util.StringFromNull(a.MetaTitle),
			Description: util.StringFromNull(a.MetaDescription),
			Keywords:    model.DecodeStringList(a.MetaKeywords),
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	if d.Author != nil {
		resp.Author = &authorResponse{ID: d.Author.ID, Name: d.Author.Name, Email: d.Author.Email}
	}
	for _, c := range d.Categories {
		resp.Categories = append(resp.Categories, toCategoryResponse(c))
	}
	if a.PublishedAt.Valid {
		t := a.PublishedAt.Time
		resp.PublishedAt = &t
	}
	if a.FeaturedImageURL.Valid {
		resp.FeaturedImage = &featuredImage{
			URL:         a.FeaturedImageURL.String,
			ReferenceID: util.StringFromNull(a.FeaturedImageRef),
		}
	}

	return resp
}

// ListArticles handles GET /articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	params := service.ListParams{
		Page:      page,
		Limit:     limit,
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	items, pagination, err := h.articles.List(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]articleResponse, 0, len(items))
	for _, d := range items {
		data = append(data, toArticleResponse(d))
	}

	h.writePage(w, data, pagination, map[string]string{
		"search":    params.Search,
		"status":    params.Status,
		"category":  params.Category,
		"sortBy":    params.SortBy,
		"sortOrder": params.SortOrder,
	})
}

// GetArticle handles GET /articles/{idOrSlug}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	d, err := h.articles.Get(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, toArticleResponse(*d))
}

// CreateArticle handles POST /articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.GetIdentity(r)

	var req articleRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.articles.Create(r.Context(), ident, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusCreated, toArticleResponse(*d))
}

// UpdateArticle handles PUT /articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.GetIdentity(r)

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req articleRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.articles.Update(r.Context(), ident, id, req.toInput())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, toArticleResponse(*d))
}

// DeleteArticle handles DELETE /articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	ident, _ := middleware.GetIdentity(r)

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.articles.Delete(r.Context(), ident, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// ArticleStats handles GET /articles/stats.
func (h *Handler) ArticleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.articles.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, snap)
}

// UploadImage handles POST /articles/upload-image.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		h.writeError(w, r, apperr.External("asset storage", errNoAssetBackend))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, apperr.Validation("image", "An image file upload is required"))
		return
	}
	defer file.Close()

	a, err := h.assets.Upload(r.Context(), file, header.Filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeData(w, http.StatusCreated, featuredImage{URL: a.URL, ReferenceID: a.RefID})
}

var errNoAssetBackend = errors.New("no asset backend configured")
