// Package mailrelay posts e-mail payloads to a webhook (for example an
// automation platform's catch hook) and reports progress with the three
// status strings the dashboard shows to users.
package mailrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

// User-visible status strings.
const (
	StatusSending = "Sending..."
	StatusSent    = "Email sent successfully!"
	StatusFailed  = "Failed to send email. Please try again."
)

var (
	// ErrNoWebhook is returned when the relay has no target URL.
	ErrNoWebhook = errors.New("mail relay: webhook url not configured")
	// ErrInvalidRecipient is returned for an unparsable "to" address.
	ErrInvalidRecipient = errors.New("mail relay: invalid recipient address")
)

// Message is the webhook payload.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks the recipient address.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(m.To)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, m.To)
	}
	return nil
}

// Relay sends Messages to a webhook. The zero value is not usable; see New.
type Relay struct {
	URL  string
	HTTP *http.Client
}

// New returns a Relay posting to url with the given request timeout.
func New(url string, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{URL: strings.TrimSpace(url), HTTP: &http.Client{Timeout: timeout}}
}

// Enabled reports whether a webhook URL is configured.
func (r *Relay) Enabled() bool { return r != nil && r.URL != "" }

// Send posts m as JSON. Any non-2xx response is an error.
func (r *Relay) Send(ctx context.Context, m Message) error {
	if !r.Enabled() {
		return ErrNoWebhook
	}
	if err := m.Validate(); err != nil {
		return err
	}

	ctx, span := otel.Tracer("mailrelay").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("mail.subject", m.Subject))

	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.HTTP.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return fmt.Errorf("mail relay: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("mail relay: webhook returned %s", resp.Status)
	}
	return nil
}

// Deliver sends m and reports each status transition to report (which may
// be nil). It returns the final status string and the underlying error.
func (r *Relay) Deliver(ctx context.Context, m Message, report func(status string)) (string, error) {
	if report == nil {
		report = func(string) {}
	}
	report(StatusSending)
	if err := r.Send(ctx, m); err != nil {
		report(StatusFailed)
		return StatusFailed, err
	}
	report(StatusSent)
	return StatusSent, nil
}
