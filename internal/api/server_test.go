package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"spotbotv1/internal/journal"
	"spotbotv1/internal/model"
	"spotbotv1/internal/trader"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func newTestServer(t *testing.T, totpKey string) (*Server, *trader.Tracker, *journal.Journal, *bool) {
	t.Helper()

	tracker := trader.NewTracker("BTCUSDT", true, 16)
	j, err := journal.New(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("journal.New: %v", err)
	}
	t.Cleanup(func() { j.Close() })

	halted := false
	s := New(":0", tracker, j, func() { halted = true }, totpKey)
	return s, tracker, j, &halted
}

func TestStatusEndpoint(t *testing.T) {
	s, tracker, _, _ := newTestServer(t, "")

	tracker.Record(model.DecisionSnapshot{
		TS: time.Now().UTC(), Action: "HOLD",
		Price: 101.5, MovingAverage: 100.2, RSI: 55.3, Volatility: 0.8,
	}, model.TradingState{TotalBenefit: 3.25, StopLossPct: 0.05})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var got trader.Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Symbol != "BTCUSDT" || !got.TestMode {
		t.Errorf("identity fields: %+v", got)
	}
	if got.Price != 101.5 || got.TotalBenefit != 3.25 || got.LastAction != "HOLD" {
		t.Errorf("recorded fields: %+v", got)
	}
}

func TestTradesEndpoint(t *testing.T) {
	s, _, j, _ := newTestServer(t, "")

	ev := model.TradeEvent{
		Symbol: "BTCUSDT", Side: model.SideSell, OrderID: 7,
		Price: 110, Qty: 0.5, Profit: 4.78, TotalBenefit: 4.78,
		FilledAt: time.Now().UTC(),
	}
	if err := j.RecordTrade(ev); err != nil {
		t.Fatalf("RecordTrade: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/trades?limit=10", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var trades []journal.TradeRecord
	if err := json.NewDecoder(rec.Body).Decode(&trades); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(trades) != 1 || trades[0].OrderID != 7 || trades[0].Side != "SELL" {
		t.Errorf("trades: %+v", trades)
	}
}

func TestTradesEndpoint_BadLimit(t *testing.T) {
	s, _, _, _ := newTestServer(t, "")

	for _, q := range []string{"limit=0", "limit=-3", "limit=9999", "limit=abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/trades?"+q, nil)
		rec := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d, want 400", q, rec.Code)
		}
	}
}

func TestTradesEndpoint_JournalDisabled(t *testing.T) {
	tracker := trader.NewTracker("BTCUSDT", true, 16)
	s := New(":0", tracker, nil, func() {}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/trades", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", rec.Code)
	}
}

func TestHalt_DisabledWithoutSecret(t *testing.T) {
	s, _, _, halted := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/halt", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status=%d, want 403", rec.Code)
	}
	if *halted {
		t.Error("halt invoked despite disabled control endpoint")
	}
}

func TestHalt_RejectsBadCode(t *testing.T) {
	s, _, _, halted := newTestServer(t, testTOTPSecret)

	for _, code := range []string{"", "000000", "not-a-code"} {
		req := httptest.NewRequest(http.MethodPost, "/api/halt", nil)
		if code != "" {
			req.Header.Set("X-Auth-Code", code)
		}
		rec := httptest.NewRecorder()
		s.srv.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code %q: status=%d, want 401", code, rec.Code)
		}
	}
	if *halted {
		t.Error("halt invoked with invalid code")
	}
}

func TestHalt_AcceptsValidCode(t *testing.T) {
	s, _, _, halted := newTestServer(t, testTOTPSecret)

	code, err := totp.GenerateCode(testTOTPSecret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/halt", nil)
	req.Header.Set("X-Auth-Code", code)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !*halted {
		t.Error("halt not invoked")
	}
}

func TestServerStop(t *testing.T) {
	s, _, _, _ := newTestServer(t, "")
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
