package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"servicepulse/backend/internal/config"
	"servicepulse/backend/internal/models"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer e-mails job notices to the vendor's address.
type Mailer struct {
	from   string
	dialer Dialer
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		from:   cfg.FromAddress,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewMailerWithDialer is used by tests to capture outgoing messages.
func NewMailerWithDialer(from string, d Dialer) *Mailer {
	return &Mailer{from: from, dialer: d}
}

func (m *Mailer) AnnounceAssignment(ctx context.Context, vendor models.Vendor, jobs []models.Complaint) error {
	if vendor.Email == "" || len(jobs) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", vendor.Email)
	msg.SetHeader("Subject", fmt.Sprintf("%d new job(s) assigned", len(jobs)))
	msg.SetBody("text/plain", plainJobs(vendor, jobs))
	msg.AddAlternative("text/html", htmlJobs(vendor, jobs))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func plainJobs(vendor models.Vendor, jobs []models.Complaint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nYou have been assigned:\n", vendor.Name)
	for _, j := range jobs {
		fmt.Fprintf(&b, "- #%s %s (block %s, apt %s, %s)\n", j.ID, j.Title, j.Block, j.Apartment, j.Urgency)
	}
	return b.String()
}

func htmlJobs(vendor models.Vendor, jobs []models.Complaint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hello %s,</p><p>You have been assigned:</p><ul>", html.EscapeString(vendor.Name))
	for _, j := range jobs {
		fmt.Fprintf(&b, "<li>#%s %s (block %s, apt %s, %s)</li>",
			html.EscapeString(j.ID.String()), html.EscapeString(j.Title),
			html.EscapeString(j.Block), html.EscapeString(j.Apartment), html.EscapeString(j.Urgency))
	}
	b.WriteString("</ul>")
	return b.String()
}
