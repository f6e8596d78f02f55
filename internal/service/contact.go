// Copyright (c) 2026 Karan Bisht
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/karanbisht-123/katchincms-go/internal/apperr"
	"github.com/karanbisht-123/katchincms-go/internal/model"
	"github.com/karanbisht-123/katchincms-go/internal/sanitize"
	"github.com/karanbisht-123/katchincms-go/internal/store"
	"github.com/karanbisht-123/katchincms-go/internal/util"
)

// resubmitWindow is how long an email address must wait between
// contact submissions.
const resubmitWindow = 5 * time.Minute

// Notifier queues the emails for a contact submission.
type Notifier interface {
	EnqueueContact(contactID int64)
}

// CountryResolver maps a client IP to a country code.
type CountryResolver interface {
	LookupCountry(ip string) string
}

// ContactService handles contact form submissions and their workflow.
type ContactService struct {
	queries  *store.Queries
	notifier Notifier
	geo      CountryResolver
	logger   *slog.Logger
}

// NewContactService creates a contact service. notifier and geo may be
// nil when those collaborators are not configured.
func NewContactService(db *sql.DB, notifier Notifier, geo CountryResolver, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{
		queries:  store.New(db),
		notifier: notifier,
		geo:      geo,
		logger:   logger,
	}
}

// ContactInput carries the submitted form fields.
type ContactInput struct {
	FullName     string
	Email        string
	PhoneNo      string
	Country      string
	Requirements string
}

// RequestMeta carries transport-level request context recorded with
// the submission.
type RequestMeta struct {
	IP        string
	UserAgent string
}

func validateContact(in ContactInput) (ContactInput, error) {
	in.FullName = strings.TrimSpace(sanitize.Plain(in.FullName))
	if len(in.FullName) < 2 || len(in.FullName) > 100 {
		return in, apperr.Validation("fullName", "Full name must be between 2 and 100 characters")
	}

	in.Email = strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return in, apperr.Validation("email", "A valid email address is required")
	}

	in.PhoneNo = strings.TrimSpace(sanitize.Plain(in.PhoneNo))
	if len(in.PhoneNo) < 5 || len(in.PhoneNo) > 20 {
		return in, apperr.Validation("phoneNo", "Phone number must be between 5 and 20 characters")
	}

	in.Country = strings.TrimSpace(sanitize.Plain(in.Country))
	if len(in.Country) < 2 || len(in.Country) > 100 {
		return in, apperr.Validation("country", "Country must be between 2 and 100 characters")
	}

	in.Requirements = strings.TrimSpace(sanitize.Plain(in.Requirements))
	if len(in.Requirements) < 10 || len(in.Requirements) > 2000 {
		return in, apperr.Validation("requirements", "Requirements must be between 10 and 2000 characters")
	}

	return in, nil
}

// Submit validates and persists a submission, then hands it to the
// mailer. The email delivery never blocks or fails the submission.
func (s *ContactService) Submit(ctx context.Context, in ContactInput, meta RequestMeta) (store.Contact, error) {
	in, err := validateContact(in)
	if err != nil {
		return store.Contact{}, err
	}

	recent, err := s.queries.CountRecentContactsByEmail(ctx, store.CountRecentContactsByEmailParams{
		Email: in.Email,
		Since: time.Now().Add(-resubmitWindow),
	})
	if err != nil {
		return store.Contact{}, apperr.Internal(err)
	}
	if recent > 0 {
		return store.Contact{}, apperr.RateLimited("You have recently submitted a request. Please wait a few minutes before trying again.")
	}

	var browser, os, device string
	if meta.UserAgent != "" {
		ua := useragent.Parse(meta.UserAgent)
		browser = strings.TrimSpace(ua.Name + " " + ua.Version)
		os = ua.OS
		switch {
		case ua.Mobile:
			device = "mobile"
		case ua.Tablet:
			device = "tablet"
		case ua.Bot:
			device = "bot"
		default:
			device = "desktop"
		}
	}

	var countryCode string
	if s.geo != nil && meta.IP != "" {
		countryCode = s.geo.LookupCountry(meta.IP)
	}

	now := time.Now()
	contact, err := s.queries.CreateContact(ctx, store.CreateContactParams{
		FullName:     in.FullName,
		Email:        in.Email,
		PhoneNo:      in.PhoneNo,
		Country:      in.Country,
		Requirements: in.Requirements,
		IPAddress:    util.NullStringFromValue(meta.IP),
		UserAgent:    util.NullStringFromValue(meta.UserAgent),
		UABrowser:    util.NullStringFromValue(browser),
		UAOs:         util.NullStringFromValue(os),
		UADevice:     util.NullStringFromValue(device),
		CountryCode:  util.NullStringFromValue(countryCode),
		Status:       model.ContactStatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.Contact{}, apperr.Internal(err)
	}

	if s.notifier != nil {
		s.notifier.EnqueueContact(contact.ID)
	}

	s.logger.Info("contact submission received", "id", contact.ID, "country", contact.Country)
	return contact, nil
}

// List returns one page of submissions, newest first, optionally
// filtered by workflow status.
func (s *ContactService) List(ctx context.Context, page, limit int64, status string) ([]store.Contact, Pagination, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	if page < 1 {
		return nil, Pagination{}, apperr.Validation("page", "Page must be at least 1")
	}
	if limit < 1 || limit > 100 {
		return nil, Pagination{}, apperr.Validation("limit", "Limit must be between 1 and 100")
	}
	if status != "" && !model.IsValidContactStatus(status) {
		return nil, Pagination{}, apperr.Validation("status", "Unknown contact status")
	}

	total, err := s.queries.CountContacts(ctx, status)
	if err != nil {
		return nil, Pagination{}, apperr.Internal(err)
	}

	items, err := s.queries.ListContacts(ctx, store.ListContactsParams{
		Status: status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, Pagination{}, apperr.Internal(err)
	}

	return items, newPagination(total, page, limit), nil
}

// Get returns a single submission.
func (s *ContactService) Get(ctx context.Context, id int64) (store.Contact, error) {
	contact, err := s.queries.GetContactByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Contact{}, apperr.NotFound("Contact")
		}
		return store.Contact{}, apperr.Internal(err)
	}
	return contact, nil
}

// UpdateStatus advances a submission through the contact workflow.
func (s *ContactService) UpdateStatus(ctx context.Context, id int64, status string) (store.Contact, error) {
	if !model.IsValidContactStatus(status) {
		return store.Contact{}, apperr.Validation("status", "Unknown contact status")
	}

	if _, err := s.queries.GetContactByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Contact{}, apperr.NotFound("Contact")
		}
		return store.Contact{}, apperr.Internal(err)
	}

	contact, err := s.queries.UpdateContactStatus(ctx, store.UpdateContactStatusParams{
		ID:        id,
		Status:    status,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return store.Contact{}, apperr.Internal(err)
	}

	s.logger.Info("contact status updated", "id", id, "status", status)
	return contact, nil
}
