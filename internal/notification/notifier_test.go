package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type failingNotifier struct{ err error }

func (f *failingNotifier) Send(ctx context.Context, alert Alert) error { return f.err }

type countingNotifier struct{ sent int }

func (c *countingNotifier) Send(ctx context.Context, alert Alert) error {
	c.sent++
	return nil
}

func TestMulti_DeliversToAllDespiteFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &countingNotifier{}
	b := &failingNotifier{err: boom}
	c := &countingNotifier{}

	m := NewMulti(a, b, c)
	err := m.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m"})

	if !errors.Is(err, boom) {
		t.Errorf("expected first failure returned, got %v", err)
	}
	if a.sent != 1 || c.sent != 1 {
		t.Errorf("later backends skipped: a=%d c=%d", a.sent, c.sent)
	}
}

func TestWebhook_PostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type %q", r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Level: AlertCritical, Title: "SELL BTCUSDT", Message: "profit=1.2"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["level"] != "CRITICAL" || got["title"] != "SELL BTCUSDT" {
		t.Errorf("payload=%v", got)
	}
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a.b-c"); got != `a\.b\-c` {
		t.Errorf("escapeMarkdown: got %q", got)
	}
}
