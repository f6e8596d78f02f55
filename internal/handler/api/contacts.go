// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/karanbisht-123/katchincms-go/internal/middleware"
	"github.com/karanbisht-123/katchincms-go/internal/service"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/util"
)

type contactRequest struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PhoneNo      string `json:"phoneNo"`
	Country      string `json:"country"`
	Requirements string `json:"requirements"`
}

type contactStatusRequest struct {
	Status string `json:"status"`
}

type contactResponse struct {
	ID           int64          `json:"id"`
	FullName     string         `json:"fullName"`
	Email        string         `json:"email"`
	PhoneNo      string         `json:"phoneNo"`
	Country      string         `json:"country"`
	Requirements string         `json:"requirements"`
	Status       string         `json:"status"`
	CountryCode  string         `json:"countryCode,omitempty"`
	Client       *contactClient `json:"client,omitempty"`
	EmailSent    bool           `json:"emailSent"`
	EmailSentAt  *time.Time     `json:"emailSentAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type contactClient struct {
	IP      string `json:"ip,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device,omitempty"`
}

func toContactResponse(c store.Contact) contactResponse {
	resp := contactResponse{
		ID:           c.ID,
		FullName:     c.FullName,
		Email:        c.Email,
		PhoneNo:      c.PhoneNo,
		Country:      c.Country,
		Requirements: c.Requirements,
		Status:       c.Status,
		CountryCode:  util.StringFromNull(c.CountryCode),
		EmailSent:    c.EmailSent,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}

	if c.EmailSentAt.Valid {
		t := c.EmailSentAt.Time
		resp.EmailSentAt = &t
	}
	if c.IPAddress.Valid || c.UABrowser.Valid || c.UAOs.Valid || c.UADevice.Valid {
		resp.Client = &contactClient{
			IP:      util.StringFromNull(c.IPAddress),
			Browser: util.StringFromNull(c.UABrowser),
			OS:      util.StringFromNull(c.UAOs),
			Device:  util.StringFromNull(c.UADevice),
		}
	}

	return resp
}

// SubmitContact handles POST /contact. It is the only unauthenticated
// write endpoint, so the client metadata is captured server-side.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	meta := service.RequestMeta{
		IP:        middleware.GetClientIP(r),
		UserAgent: r.UserAgent(),
	}

	c, err := h.contacts.Submit(r.Context(), service.ContactInput(req), meta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusCreated, toContactResponse(c))
}

// ListContacts handles GET /contact.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
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
	status := r.URL.Query().Get("status")

	items, pagination, err := h.contacts.List(r.Context(), page, limit, status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]contactResponse, 0, len(items))
	for _, c := range items {
		data = append(data, toContactResponse(c))
	}
	h.writePage(w, data, pagination, map[string]string{"status": status})
}

// GetContact handles GET /contact/{id}.
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.contacts.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, toContactResponse(c))
}

// UpdateContactStatus handles PUT /contact/{id}/status.
func (h *Handler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req contactStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	c, err := h.contacts.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeData(w, http.StatusOK, toContactResponse(c))
}
