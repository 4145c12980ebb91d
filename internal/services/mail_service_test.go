package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/tbourn/retail-chat-dashboard/internal/mailrelay"
)

type fakeSender struct {
	enabled bool
	err     error
	sent    []mailrelay.Message
}

func (f *fakeSender) Enabled() bool { return f.enabled }
func (f *fakeSender) Send(_ context.Context, m mailrelay.Message) error {
	f.sent = append(f.sent, m)
	return f.err
}

func TestMailService_ComposeOnly(t *testing.T) {
	s := &MailService{}
	res, err := s.Trigger(context.Background(), MailRequest{To: " buyer@example.com ", Subject: "Diwali plan", Body: "See attached"})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if res.Status != MailCompose || !strings.HasPrefix(res.ComposeURL, defaultComposeBase+"?") {
		t.Fatalf("result = %+v", res)
	}
	u, _ := url.Parse(res.ComposeURL)
	q := u.Query()
	if q.Get("to") != "buyer@example.com" || q.Get("su") != "Diwali plan" || q.Get("body") != "See attached" || q.Get("view") != "cm" {
		t.Fatalf("compose query = %v", q)
	}
}

func TestMailService_Relayed(t *testing.T) {
	f := &fakeSender{enabled: true}
	s := &MailService{Relay: f, ComposeBase: "https://mail.example/"}
	res, err := s.Trigger(context.Background(), MailRequest{To: "a@b.co", Body: "x"})
	if err != nil || res.Status != MailRelayed || len(f.sent) != 1 || f.sent[0].Message != "x" {
		t.Fatalf("res=%+v err=%v sent=%+v", res, err, f.sent)
	}
	if !strings.HasPrefix(res.ComposeURL, "https://mail.example/?") {
		t.Fatalf("compose base ignored: %s", res.ComposeURL)
	}
}

func TestMailService_Errors(t *testing.T) {
	s := &MailService{Relay: &fakeSender{enabled: true, err: errors.New("502")}}
	if _, err := s.Trigger(context.Background(), MailRequest{To: "a@b.co"}); !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("delivery err=%v", err)
	}
	if _, err := s.Trigger(context.Background(), MailRequest{To: "nope"}); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("recipient err=%v", err)
	}
	disabled := &fakeSender{enabled: false}
	s = &MailService{Relay: disabled}
	if res, err := s.Trigger(context.Background(), MailRequest{To: "a@b.co"}); err != nil || res.Status != MailCompose || len(disabled.sent) != 0 {
		t.Fatalf("disabled relay: %+v %v", res, err)
	}
}
