// Package journal persists executed trades to SQLite for analysis and audit.
// It is an append-only record, not restartable trading state: the bot never
// reads it back to rebuild a position.
package journal

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"spotbotv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal writes trade events to a SQLite database.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens (or creates) the journal database.
func New(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Single writer: the executor goroutine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id      INTEGER NOT NULL,
		symbol        TEXT NOT NULL,
		side          TEXT NOT NULL,
		price         REAL NOT NULL,
		qty           REAL NOT NULL,
		profit        REAL NOT NULL DEFAULT 0,
		total_benefit REAL NOT NULL DEFAULT 0,
		test_mode     INTEGER NOT NULL DEFAULT 0,
		filled_at     DATETIME NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_filled_at ON trades(filled_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// RecordTrade persists one executed trade.
func (j *Journal) RecordTrade(ev model.TradeEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	testMode := 0
	if ev.TestMode {
		testMode = 1
	}
	_, err := j.db.Exec(
		`INSERT INTO trades (order_id, symbol, side, price, qty, profit, total_benefit, test_mode, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.OrderID,
		ev.Symbol,
		string(ev.Side),
		ev.Price,
		ev.Qty,
		ev.Profit,
		ev.TotalBenefit,
		testMode,
		ev.FilledAt.Format(time.RFC3339),
	)
	return err
}

// TradeRecord represents a row from the trades table.
type TradeRecord struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Price        float64 `json:"price"`
	Qty          float64 `json:"qty"`
	Profit       float64 `json:"profit"`
	TotalBenefit float64 `json:"total_benefit"`
	TestMode     bool    `json:"test_mode"`
	FilledAt     string  `json:"filled_at"`
}

// Trades returns the last N trades, newest first.
func (j *Journal) Trades(limit int) ([]TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, order_id, symbol, side, price, qty, profit, total_benefit, test_mode, filled_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var testMode int
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Price,
			&t.Qty, &t.Profit, &t.TotalBenefit, &testMode, &t.FilledAt); err != nil {
			continue
		}
		t.TestMode = testMode != 0
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
