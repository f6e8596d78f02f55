// Package mailer sends contact notification emails through a small
// worker pool so HTTP handlers never block on SMTP.
package mailer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/karanbisht-123/katchincms-go/internal/store"
)

// Sender delivers a raw mail message to recipients.
type Sender interface {
	Send(ctx context.Context, to []string, msg []byte) error
}

// SMTPSender sends mail through a plain SMTP relay using net/smtp.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers the message. Authentication is used only when a
// username is configured.
func (s *SMTPSender) Send(_ context.Context, to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	return smtp.SendMail(addr, auth, s.From, to, msg)
}

// Config holds mailer configuration.
type Config struct {
	// Workers is the number of concurrent delivery workers.
	Workers int

	// From is the envelope and header sender address.
	From string

	// NotificationEmail receives new-submission notifications. Empty
	// disables the owner notification but not the confirmation.
	NotificationEmail string

	// SiteName appears in subjects and signatures.
	SiteName string
}

type job struct {
	contactID int64
}

// Mailer queues contact emails and delivers them asynchronously.
type Mailer struct {
	queries *store.Queries
	sender  Sender
	logger  *slog.Logger
	cfg     Config
	queue   chan job
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// New creates a mailer. A nil sender disables delivery entirely, so
// the rest of the app can enqueue unconditionally.
func New(db *sql.DB, sender Sender, logger *slog.Logger, cfg Config) *Mailer {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "KatchinCMS"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Mailer{
		queries: store.New(db),
		sender:  sender,
		logger:  logger,
		cfg:     cfg,
		queue:   make(chan job, 100),
		done:    make(chan struct{}),
	}
}

// Enabled reports whether a sender is configured.
func (m *Mailer) Enabled() bool {
	return m.sender != nil
}

// Start launches the delivery workers.
func (m *Mailer) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	if !m.Enabled() {
		m.logger.Info("mailer disabled, emails will be skipped")
		return
	}

	m.logger.Info("starting mailer", "workers", m.cfg.Workers)
	for i := 0; i < m.cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx)
	}
}

// Stop drains the workers and waits for in-flight deliveries.
func (m *Mailer) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.done)
	m.wg.Wait()
	m.logger.Info("mailer stopped")
}

// EnqueueContact queues notification and confirmation emails for a
// submission. Never blocks: a full queue drops the job and the
// scheduler retry picks the submission up later via the email_sent
// flag.
func (m *Mailer) EnqueueContact(contactID int64) {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()

	if !running || !m.Enabled() {
		return
	}

	select {
	case m.queue <- job{contactID: contactID}:
	default:
		m.logger.Warn("mail queue full, deferring to retry job", "contact_id", contactID)
	}
}

// RetryPending enqueues submissions whose notification never went out.
// Called periodically from the scheduler.
func (m *Mailer) RetryPending(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}

	pending, err := m.queries.ListContactsEmailPending(ctx, 50)
	if err != nil {
		return fmt.Errorf("listing pending contacts: %w", err)
	}

	for _, c := range pending {
		m.EnqueueContact(c.ID)
	}
	return nil
}

func (m *Mailer) worker(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case j := <-m.queue:
			m.deliver(ctx, j.contactID)
		}
	}
}

// deliver sends both emails for a submission. The email_sent flag is
// set only after the notification goes through, so failed sends are
// retried. The submission itself is never failed over mail errors.
func (m *Mailer) deliver(ctx context.Context, contactID int64) {
	contact, err := m.queries.GetContactByID(ctx, contactID)
	if err != nil {
		m.logger.Error("loading contact for mail delivery", "error", err, "contact_id", contactID)
		return
	}
	if contact.EmailSent {
		return
	}

	if m.cfg.NotificationEmail != "" {
		msg := m.buildNotification(contact)
		if err := m.sender.Send(ctx, []string{m.cfg.NotificationEmail}, msg); err != nil {
			m.logger.Error("sending contact notification", "error", err, "contact_id", contactID)
			return
		}
	}

	err = m.queries.MarkContactEmailSent(ctx, store.MarkContactEmailSentParams{
		ID:          contactID,
		EmailSentAt: sql.NullTime{Time: time.Now(), Valid: true},
	})
	if err != nil {
		m.logger.Error("marking contact email sent", "error", err, "contact_id", contactID)
	}

	// Confirmation to the submitter is strictly best-effort.
	msg := m.buildConfirmation(contact)
	if err := m.sender.Send(ctx, []string{contact.Email}, msg); err != nil {
		m.logger.Warn("sending contact confirmation", "error", err, "contact_id", contactID)
	}
}

func (m *Mailer) buildNotification(c store.Contact) []byte {
	var b strings.Builder
	writeHeaders(&b, m.cfg.From, m.cfg.NotificationEmail,
		fmt.Sprintf("[%s] New contact from %s", m.cfg.SiteName, c.FullName))

	fmt.Fprintf(&b, "New contact submission received.\r\n\r\n")
	fmt.Fprintf(&b, "Name:    %s\r\n", c.FullName)
	fmt.Fprintf(&b, "Email:   %s\r\n", c.Email)
	fmt.Fprintf(&b, "Phone:   %s\r\n", c.PhoneNo)
	fmt.Fprintf(&b, "Country: %s\r\n", c.Country)
	if c.CountryCode.Valid && c.CountryCode.String != "" {
		fmt.Fprintf(&b, "GeoIP:   %s\r\n", c.CountryCode.String)
	}
	fmt.Fprintf(&b, "\r\nRequirements:\r\n%s\r\n", c.Requirements)
	fmt.Fprintf(&b, "\r\nSubmitted at %s\r\n", c.CreatedAt.Format(time.RFC1123))

	return []byte(b.String())
}

func (m *Mailer) buildConfirmation(c store.Contact) []byte {
	var b strings.Builder
	writeHeaders(&b, m.cfg.From, c.Email,
		fmt.Sprintf("Thank you for contacting %s", m.cfg.SiteName))

	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", c.FullName)
	fmt.Fprintf(&b, "Thanks for reaching out. We received your message and will get back to you shortly.\r\n\r\n")
	fmt.Fprintf(&b, "Your message:\r\n%s\r\n\r\n", c.Requirements)
	fmt.Fprintf(&b, "Best regards,\r\n%s\r\n", m.cfg.SiteName)

	return []byte(b.String())
}

func writeHeaders(b *strings.Builder, from, to, subject string) {
	fmt.Fprintf(b, "From: %s\r\n", from)
	fmt.Fprintf(b, "To: %s\r\n", to)
	fmt.Fprintf(b, "Subject: %s\r\n", subject)
	fmt.Fprintf(b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(b, "Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(b, "\r\n")
}
