// internal/consumer/mockserver.go
package consumer

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/solatis/pactkeeper/internal/core/config"
	"github.com/solatis/pactkeeper/internal/generators"
	"github.com/solatis/pactkeeper/internal/pact"
	"github.com/solatis/pactkeeper/internal/types"
	"github.com/solatis/pactkeeper/internal/verification"
)

/*
 * Capturing mock provider.
 *
 * Every inbound request is recorded in arrival order together with the
 * interaction it matched. Matching only considers interactions that have
 * not been consumed yet, so a second request for the same interaction is
 * reported as unexpected. Full matches are answered with the interaction's
 * response after generators run; anything else gets a 500 describing the
 * mismatch.
 *
 * Lifecycle: new -> listening -> stopped. The captured sequence is frozen
 * once Stop returns.
 */

type serverState int

const (
	stateNew serverState = iota
	stateListening
	stateStopped
)

// MockServer serves the interactions of one pact.
type MockServer struct {
	pact     *pact.Pact
	cfg      config.MockProviderConfig
	registry *generators.Registry

	mu       sync.Mutex
	state    serverState
	outcomes []verification.Outcome
	consumed map[*pact.Interaction]bool
	arrived  chan struct{}

	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// MockServerOption configures a MockServer.
type MockServerOption func(*MockServer)

// WithRegistry sets the content-type handler registry used for body generators.
func WithRegistry(r *generators.Registry) MockServerOption {
	return func(s *MockServer) { s.registry = r }
}

// NewMockServer creates a mock server for p. It does not listen until Start.
func NewMockServer(p *pact.Pact, cfg config.MockProviderConfig, opts ...MockServerOption) *MockServer {
	s := &MockServer{
		pact:     p,
		cfg:      cfg,
		registry: generators.DefaultRegistry(),
		consumed: make(map[*pact.Interaction]bool),
		arrived:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and begins serving. The endpoint accepts
// connections when Start returns.
func (s *MockServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateListening:
		return fmt.Errorf("mock server already listening on %s", s.listener.Addr())
	case stateStopped:
		return types.ErrServerStopped
	}

	listener, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.Address(), err)
	}
	if s.cfg.Scheme == "https" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		listener = tls.NewListener(listener, &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		})
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.done = make(chan struct{})
	s.state = stateListening

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("consumer: mock server stopped unexpectedly", "error", err)
		}
	}()

	slog.Info("consumer: mock server listening",
		"url", s.cfg.URL(listener.Addr()),
		"consumer", s.pact.Consumer.Name,
		"provider", s.pact.Provider.Name,
		"interactions", len(s.pact.Interactions))
	return nil
}

// URL returns the base URL of the listening server.
func (s *MockServer) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.cfg.URL(s.listener.Addr())
}

// Addr returns the bound address, or nil before Start.
func (s *MockServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down gracefully within the configured shutdown timeout.
// After Stop returns no further requests are captured.
func (s *MockServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateNew:
		s.mu.Unlock()
		return types.ErrServerNotStarted
	case stateStopped:
		s.mu.Unlock()
		return types.ErrServerStopped
	}
	srv, done := s.server, s.done
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		srv.Close()
		err = fmt.Errorf("graceful shutdown failed, forced stop: %w", err)
	}
	<-done

	s.mu.Lock()
	s.state = stateStopped
	close(s.arrived)
	s.arrived = make(chan struct{})
	s.mu.Unlock()

	slog.Debug("consumer: mock server stopped", "requests", s.RequestCount())
	return err
}

// RequestCount returns the number of captured requests.
func (s *MockServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Outcomes returns a copy of the captured requests and their matches.
func (s *MockServer) Outcomes() []verification.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]verification.Outcome(nil), s.outcomes...)
}

// Result summarizes the captured requests against the pact's interactions.
func (s *MockServer) Result() verification.Result {
	return verification.Summarize(s.pact.Interactions, s.Outcomes())
}

// WaitForRequests blocks until n requests have been captured, ctx is done, or
// the configured request timeout elapses. A stopped server that has not seen
// n requests returns ErrServerStopped at once.
func (s *MockServer) WaitForRequests(ctx context.Context, n int) error {
	timer := time.NewTimer(s.cfg.RequestTimeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.state == stateNew {
			s.mu.Unlock()
			return types.ErrServerNotStarted
		}
		got, arrived, stopped := len(s.outcomes), s.arrived, s.state == stateStopped
		s.mu.Unlock()

		if got >= n {
			return nil
		}
		// Nothing arrives after Stop.
		if stopped {
			return fmt.Errorf("%w: received %d of %d", types.ErrServerStopped, got, n)
		}

		select {
		case <-arrived:
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w: received %d of %d after %s", types.ErrRequestTimeout, got, n, s.cfg.RequestTimeout)
		}
	}
}

func (s *MockServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/*", http.HandlerFunc(s.handle))
	r.MethodNotAllowed(s.handle)
	return r
}

func (s *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	req, err := captureRequest(w, r)
	if err != nil {
		slog.Warn("consumer: failed to read request body", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	match := s.record(req)

	switch m := match.(type) {
	case verification.FullRequestMatch:
		slog.Debug("consumer: request matched", "method", req.Method, "path", req.Path, "interaction", m.Interaction.Description)
		writeResponse(w, m.Interaction.Response.Generated(s.registry))
	case verification.PartialRequestMatch:
		slog.Warn("consumer: request partially matched", "method", req.Method, "path", req.Path,
			"interaction", m.Interaction.Description, "mismatches", len(m.Mismatches))
		messages := make([]string, 0, len(m.Mismatches))
		for _, mm := range m.Mismatches {
			messages = append(messages, mm.Description())
		}
		writeError(w, "Partial request match", m.Interaction.Description, req, messages)
	default:
		slog.Warn("consumer: unexpected request", "method", req.Method, "path", req.Path)
		writeError(w, "Unexpected request", "", req, nil)
	}
}

// record matches req against the unconsumed interactions and appends the outcome.
func (s *MockServer) record(req pact.Request) verification.RequestMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := make([]*pact.Interaction, 0, len(s.pact.Interactions))
	for _, i := range s.pact.Interactions {
		if !s.consumed[i] {
			candidates = append(candidates, i)
		}
	}

	match := verification.MatchRequest(candidates, &req)
	if full, ok := match.(verification.FullRequestMatch); ok {
		s.consumed[full.Interaction] = true
	}

	s.outcomes = append(s.outcomes, verification.Outcome{Request: req, Match: match})
	close(s.arrived)
	s.arrived = make(chan struct{})
	return match
}

// captureRequest converts r into a pact request. The body is capped at
// types.MaxBodySize; an oversized body is captured as missing.
func captureRequest(w http.ResponseWriter, r *http.Request) (pact.Request, error) {
	req := pact.NewRequest()
	req.Method = strings.ToUpper(r.Method)
	req.Path = r.URL.Path
	for k, v := range r.URL.Query() {
		req.Query[k] = v
	}
	for k, v := range r.Header {
		req.Headers[k] = strings.Join(v, ", ")
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, types.MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit %d bytes", types.ErrBodyTooLarge, tooLarge.Limit)
		}
		return req, err
	}
	if len(data) > 0 {
		req.Body = types.BodyOf(data)
	}
	return req, nil
}

func writeResponse(w http.ResponseWriter, resp pact.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.Body.IsPresent() && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", string(resp.ContentType()))
	}
	w.WriteHeader(resp.Status)
	if resp.Body.IsPresent() {
		if _, err := w.Write(resp.Body.Value); err != nil {
			slog.Debug("consumer: failed to write response body", "error", err)
		}
	}
}

type errorResponse struct {
	Error       string   `json:"error"`
	Interaction string   `json:"interaction,omitempty"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	Mismatches  []string `json:"mismatches,omitempty"`
}

func writeError(w http.ResponseWriter, msg, interaction string, req pact.Request, mismatches []string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Pact-Unexpected-Request", "1")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:       msg,
		Interaction: interaction,
		Method:      req.Method,
		Path:        req.Path,
		Mismatches:  mismatches,
	})
}
