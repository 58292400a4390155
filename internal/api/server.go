// Package api provides the HTTP surface of the bot: loop status, the trade
// journal, and a guarded halt endpoint for stopping the loop remotely.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pquerna/otp/totp"

	"spotbotv1/internal/journal"
	"spotbotv1/internal/trader"
)

// Server exposes status and control endpoints.
type Server struct {
	addr    string
	status  *trader.Tracker
	journal *journal.Journal // nil when journaling is disabled
	halt    context.CancelFunc
	totpKey string // empty disables the halt endpoint
	srv     *http.Server
}

// New creates the API server. halt cancels the trade loop's context; the
// halt endpoint refuses all requests unless totpKey is configured.
func New(addr string, status *trader.Tracker, j *journal.Journal, halt context.CancelFunc, totpKey string) *Server {
	s := &Server{
		addr:    addr,
		status:  status,
		journal: j,
		halt:    halt,
		totpKey: totpKey,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/api/halt", s.requireTOTP(s.handleHalt)).Methods(http.MethodPost)

	s.srv = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[api] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[api] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Snapshot())
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be in [1,1000]")
			return
		}
		limit = n
	}

	trades, err := s.journal.Trades(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if trades == nil {
		trades = []journal.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	log.Printf("[api] halt requested from %s", r.RemoteAddr)
	s.halt()
	writeJSON(w, http.StatusOK, map[string]string{"status": "halting"})
}

// requireTOTP validates the X-Auth-Code header against the configured TOTP
// secret. Without a configured secret the control surface stays closed.
func (s *Server) requireTOTP(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.totpKey == "" {
			writeError(w, http.StatusForbidden, "control endpoint disabled")
			return
		}
		code := r.Header.Get("X-Auth-Code")
		if code == "" || !totp.Validate(code, s.totpKey) {
			writeError(w, http.StatusUnauthorized, "invalid auth code")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg, "ts": time.Now().UTC().Format(time.RFC3339)})
}
