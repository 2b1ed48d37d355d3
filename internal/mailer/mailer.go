// internal/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"omnilertlab-service/internal/model"
)

const defaultBaseURL = "https://api.resend.com"

type sendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer sends the transactional order emails through the Resend API.
type Mailer struct {
	client   *resty.Client
	apiKey   string
	from     string
	operator string
	logger   *slog.Logger
}

// NewMailer creates a Mailer. An empty apiKey leaves it unconfigured:
// SendOrderEmails then logs a skip and reports failure.
func NewMailer(apiKey, from, operator string, logger *slog.Logger) *Mailer {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Mailer{
		client:   client,
		apiKey:   apiKey,
		from:     from,
		operator: operator,
		logger:   logger,
	}
}

// SetBaseURL points the mailer at a different API host. Used by tests.
func (m *Mailer) SetBaseURL(url string) {
	m.client.SetBaseURL(url)
}

// SendOrderEmails sends the operator notification and the visitor
// confirmation for an accepted order. Both sends are attempted; the result
// is false if either failed.
func (m *Mailer) SendOrderEmails(ctx context.Context, o model.Order) bool {
	if m.apiKey == "" {
		m.logger.Warn("Resend not configured, skipping order emails")
		return false
	}

	ok := m.send(ctx, sendEmailRequest{
		From:    m.from,
		To:      []string{m.operator},
		Subject: fmt.Sprintf("🚀 New Commission: %s", o.ProjectName),
		HTML:    operatorEmailHTML(o),
	})

	if !m.send(ctx, sendEmailRequest{
		From:    m.from,
		To:      []string{o.Email},
		Subject: "Your commission has been received — Omnilertlab",
		HTML:    confirmationEmailHTML(o),
	}) {
		ok = false
	}
	return ok
}

func (m *Mailer) send(ctx context.Context, req sendEmailRequest) bool {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/emails")
	if err != nil {
		m.logger.Error("Email send failed", "subject", req.Subject, "error", err)
		return false
	}
	if resp.IsError() {
		m.logger.Error("Email send rejected", "subject", req.Subject, "status", resp.StatusCode())
		return false
	}
	return true
}

func operatorEmailHTML(o model.Order) string {
	linkedin := ""
	if o.LinkedIn != "" {
		linkedin = fmt.Sprintf("<tr><td><strong>LinkedIn:</strong></td><td>%s</td></tr>", o.LinkedIn)
	}
	return fmt.Sprintf(`<h2>New Project Commission</h2>
<table>
<tr><td><strong>Type:</strong></td><td>%s</td></tr>
<tr><td><strong>Project:</strong></td><td>%s</td></tr>
<tr><td><strong>Description:</strong></td><td>%s</td></tr>
<tr><td><strong>Budget:</strong></td><td>%s</td></tr>
<tr><td><strong>Timeline:</strong></td><td>%s</td></tr>
<tr><td><strong>Client:</strong></td><td>%s (%s)</td></tr>
%s
</table>`, o.ProjectType, o.ProjectName, o.Description, o.Budget, o.Timeline, o.Name, o.Email, linkedin)
}

func confirmationEmailHTML(o model.Order) string {
	return fmt.Sprintf(`<h2>Thanks for reaching out, %s! 🎉</h2>
<p>I've received your project commission for <strong>%s</strong>.</p>
<p>I'll review the details and get back to you within <strong>2 hours</strong>.</p>
<br/>
<p>— Mehrshad Hamavandy<br/>Omnilertlab</p>`, o.Name, o.ProjectName)
}
