package mailrelay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestDeliver_SuccessReportsSendingThenSent(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var statuses []string
	r := New(srv.URL, time.Second)
	final, err := r.Deliver(context.Background(), Message{To: "ops@example.com", Subject: "Report", Message: "hi"}, func(s string) {
		statuses = append(statuses, s)
	})
	if err != nil || final != StatusSent {
		t.Fatalf("Deliver = %q, %v", final, err)
	}
	if !reflect.DeepEqual(statuses, []string{StatusSending, StatusSent}) {
		t.Fatalf("statuses = %v", statuses)
	}
	if got.To != "ops@example.com" || got.Subject != "Report" || got.Message != "hi" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestDeliver_FailureStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var last string
	final, err := New(srv.URL, time.Second).Deliver(context.Background(), Message{To: "a@b.co"}, func(s string) { last = s })
	if err == nil || final != StatusFailed || last != StatusFailed {
		t.Fatalf("Deliver = %q, %v (last=%q)", final, err, last)
	}
}

func TestSend_Validation(t *testing.T) {
	if err := New("", 0).Send(context.Background(), Message{To: "a@b.co"}); !errors.Is(err, ErrNoWebhook) {
		t.Fatalf("err=%v; want ErrNoWebhook", err)
	}
	if err := New("http://127.0.0.1:1", 0).Send(context.Background(), Message{To: "not-an-address"}); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("err=%v; want ErrInvalidRecipient", err)
	}
	var nilRelay *Relay
	if nilRelay.Enabled() {
		t.Fatalf("nil relay must not be enabled")
	}
}

func TestStatusStrings(t *testing.T) {
	if StatusSending != "Sending..." || StatusSent != "Email sent successfully!" || StatusFailed != "Failed to send email. Please try again." {
		t.Fatalf("status strings changed")
	}
}
