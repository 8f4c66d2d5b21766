// Package httpapi exposes the account-management endpoints. It only calls
// into the session manager; all state lives there.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tinyland-inc/botfleet/pkg/accounts"
	"github.com/tinyland-inc/botfleet/pkg/logger"
	"github.com/tinyland-inc/botfleet/pkg/session"
)

// AccountService is the slice of the session manager the API needs.
type AccountService interface {
	AddAccount(ctx context.Context, platform, credential string) error
	ListAccounts() []accounts.Summary
	BotCount() int
}

type Server struct {
	service AccountService
	srv     *http.Server
}

type addAccountRequest struct {
	Platform   string `json:"platform"`
	Credential string `json:"credential"`
}

func NewServer(addr string, service AccountService) *Server {
	s := &Server{service: service}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add-account", s.handleAddAccount)
	mux.HandleFunc("GET /accounts", s.handleListAccounts)
	mux.HandleFunc("GET /bot-count", s.handleBotCount)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.InfoCF("httpapi", "Gateway API listening", map[string]any{
		"addr": s.srv.Addr,
	})
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var req addAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	if err := s.service.AddAccount(r.Context(), req.Platform, req.Credential); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "account added"})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListAccounts())
}

func (s *Server) handleBotCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"count": s.service.BotCount()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("httpapi", "Failed to encode response", map[string]any{
			"error": err.Error(),
		})
	}
}
