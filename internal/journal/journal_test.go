package journal

import (
	"path/filepath"
	"testing"
	"time"

	"spotbotv1/internal/model"
)

func TestJournal_RoundTrip(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer j.Close()

	buy := model.TradeEvent{
		Symbol: "BTCUSDT", Side: model.SideBuy, OrderID: 1,
		Price: 100, Qty: 0.5, TestMode: true,
		FilledAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	sell := model.TradeEvent{
		Symbol: "BTCUSDT", Side: model.SideSell, OrderID: 2,
		Price: 110, Qty: 0.5, Profit: 4.78, TotalBenefit: 4.78,
		FilledAt: time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC),
	}
	if err := j.RecordTrade(buy); err != nil {
		t.Fatalf("RecordTrade(buy): %v", err)
	}
	if err := j.RecordTrade(sell); err != nil {
		t.Fatalf("RecordTrade(sell): %v", err)
	}

	trades, err := j.Trades(10)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	// Newest first
	if trades[0].Side != "SELL" || trades[1].Side != "BUY" {
		t.Errorf("order: %s, %s", trades[0].Side, trades[1].Side)
	}
	if trades[0].Profit != 4.78 || trades[0].TotalBenefit != 4.78 {
		t.Errorf("sell row: %+v", trades[0])
	}
	if !trades[1].TestMode {
		t.Error("test_mode not persisted")
	}
}

func TestJournal_LimitApplies(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer j.Close()

	for i := 0; i < 5; i++ {
		ev := model.TradeEvent{
			Symbol: "ETHUSDT", Side: model.SideBuy, OrderID: int64(i),
			Price: 100, Qty: 1, FilledAt: time.Now().UTC(),
		}
		if err := j.RecordTrade(ev); err != nil {
			t.Fatalf("RecordTrade: %v", err)
		}
	}

	trades, err := j.Trades(3)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 3 {
		t.Errorf("got %d trades, want 3", len(trades))
	}
	if trades[0].OrderID != 4 {
		t.Errorf("newest order id %d, want 4", trades[0].OrderID)
	}
}
