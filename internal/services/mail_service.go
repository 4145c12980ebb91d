package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tbourn/retail-chat-dashboard/internal/mailrelay"
	"github.com/tbourn/retail-chat-dashboard/internal/observability"
)

// Mail outcomes reported in MailResult.Status.
const (
	MailRelayed = "relayed"
	MailCompose = "compose"
)

// MailSender is satisfied by *mailrelay.Relay.
type MailSender interface {
	Enabled() bool
	Send(ctx context.Context, m mailrelay.Message) error
}

// MailRequest asks the gateway to start a mail.
type MailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailResult tells the client what happened and where to compose the mail.
type MailResult struct {
	Status     string `json:"status"`
	ComposeURL string `json:"compose_url"`
}

// MailService relays mail through a webhook when one is configured and
// always returns a compose link so the user can finish the mail themselves.
type MailService struct {
	Relay MailSender
	// ComposeBase is the compose endpoint (default Gmail's).
	ComposeBase string
}

const defaultComposeBase = "https://mail.google.com/mail/"

// Trigger validates req, relays it if possible and returns the outcome.
func (s *MailService) Trigger(ctx context.Context, req MailRequest) (*MailResult, error) {
	msg := mailrelay.Message{To: strings.TrimSpace(req.To), Subject: req.Subject, Message: req.Body}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, req.To)
	}
	res := &MailResult{Status: MailCompose, ComposeURL: s.composeURL(msg)}

	if s.Relay != nil && s.Relay.Enabled() {
		if err := s.Relay.Send(ctx, msg); err != nil {
			observability.MailRequests.WithLabelValues("failed").Inc()
			return nil, errors.Join(ErrMailDelivery, err)
		}
		res.Status = MailRelayed
	}
	observability.MailRequests.WithLabelValues(res.Status).Inc()
	return res, nil
}

func (s *MailService) composeURL(m mailrelay.Message) string {
	base := s.ComposeBase
	if base == "" {
		base = defaultComposeBase
	}
	q := url.Values{}
	q.Set("view", "cm")
	q.Set("fs", "1")
	q.Set("to", m.To)
	if m.Subject != "" {
		q.Set("su", m.Subject)
	}
	if m.Message != "" {
		q.Set("body", m.Message)
	}
	return base + "?" + q.Encode()
}
