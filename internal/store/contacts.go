package store

import (
	"context"
	"database/sql"
	"time"
)

// Contact is a row in the contacts table.
type Contact struct {
	ID           int64
	FullName     string
	Email        string
	PhoneNo      string
	Country      string
	Requirements string
	IPAddress    sql.NullString
	UserAgent    sql.NullString
	UABrowser    sql.NullString
	UAOs         sql.NullString
	UADevice     sql.NullString
	CountryCode  sql.NullString
	Status       string
	EmailSent    bool
	EmailSentAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const contactColumns = `id, full_name, email, phone_no, country, requirements,
	ip_address, user_agent, ua_browser, ua_os, ua_device, country_code,
	status, email_sent, email_sent_at, created_at, updated_at`

func scanContact(row rowScanner) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.FullName, &c.Email, &c.PhoneNo, &c.Country, &c.Requirements,
		&c.IPAddress, &c.UserAgent, &c.UABrowser, &c.UAOs, &c.UADevice,
		&c.CountryCode, &c.Status, &c.EmailSent, &c.EmailSentAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// CreateContactParams holds the fields for a new contact submission.
type CreateContactParams struct {
	FullName     string
	Email        string
	PhoneNo      string
	Country      string
	Requirements string
	IPAddress    sql.NullString
	UserAgent    sql.NullString
	UABrowser    sql.NullString
	UAOs         sql.NullString
	UADevice     sql.NullString
	CountryCode  sql.NullString
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateContact inserts a new contact submission and returns the row.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO contacts (
			full_name, email, phone_no, country, requirements, ip_address,
			user_agent, ua_browser, ua_os, ua_device, country_code, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+contactColumns,
		arg.FullName, arg.Email, arg.PhoneNo, arg.Country, arg.Requirements,
		arg.IPAddress, arg.UserAgent, arg.UABrowser, arg.UAOs, arg.UADevice,
		arg.CountryCode, arg.Status, arg.CreatedAt, arg.UpdatedAt)
	return scanContact(row)
}

// GetContactByID retrieves a contact submission by ID.
func (q *Queries) GetContactByID(ctx context.Context, id int64) (Contact, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	return scanContact(row)
}

// ListContactsParams paginates the contact listing, newest first.
type ListContactsParams struct {
	Status string
	Limit  int64
	Offset int64
}

// ListContacts returns one page of contact submissions.
func (q *Queries) ListContacts(ctx context.Context, arg ListContactsParams) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts`
	var args []any
	if arg.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, arg.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CountContacts returns the number of contacts matching the status filter.
func (q *Queries) CountContacts(ctx context.Context, status string) (int64, error) {
	query := `SELECT COUNT(*) FROM contacts`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateContactStatusParams updates the workflow status of a submission.
type UpdateContactStatusParams struct {
	ID        int64
	Status    string
	UpdatedAt time.Time
}

// UpdateContactStatus sets the workflow status and returns the row.
func (q *Queries) UpdateContactStatus(ctx context.Context, arg UpdateContactStatusParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE contacts SET status = ?, updated_at = ? WHERE id = ?
		RETURNING `+contactColumns,
		arg.Status, arg.UpdatedAt, arg.ID)
	return scanContact(row)
}

// CountRecentContactsByEmailParams bounds the resubmission window check.
type CountRecentContactsByEmailParams struct {
	Email string
	Since time.Time
}

// CountRecentContactsByEmail counts submissions from an email address
// since the given time. Matching is case-insensitive.
func (q *Queries) CountRecentContactsByEmail(ctx context.Context, arg CountRecentContactsByEmailParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts WHERE email = ? COLLATE NOCASE AND created_at >= ?`,
		arg.Email, arg.Since).Scan(&count)
	return count, err
}

// MarkContactEmailSentParams records a successful notification delivery.
type MarkContactEmailSentParams struct {
	ID          int64
	EmailSentAt sql.NullTime
}

// MarkContactEmailSent flags a submission as notified.
func (q *Queries) MarkContactEmailSent(ctx context.Context, arg MarkContactEmailSentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE contacts SET email_sent = 1, email_sent_at = ? WHERE id = ?`,
		arg.EmailSentAt, arg.ID)
	return err
}

// ListContactsEmailPending returns the oldest submissions whose
// notification email has not gone out yet.
func (q *Queries) ListContactsEmailPending(ctx context.Context, limit int64) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		WHERE email_sent = 0 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
