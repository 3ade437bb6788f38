// Package mockserver implements the mock ingest server: the HTTP server
// that impersonates the product's ingest endpoint, records every hit the
// SDK-under-test makes, and replies from a programmable response queue.
//
// A Server can be driven two ways: embedded in-process, where the
// executor addresses srv.Store() directly, or
// standalone behind ListenAndServe, where the executor addresses the
// control plane over HTTP via RemoteController. Both paths share the same
// store.Controller interface.
package mockserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// capturePaths are the ingest path aliases the mock accepts traffic on.
// Different SDK flavours address ingest differently (full batch endpoint,
// PostHog-style /i/v0/e, bare /e, generic /capture or /track); treating
// them as equivalents is what keeps the harness SDK-agnostic.
var capturePaths = []string{"/batch", "/i/v0/e", "/e", "/capture", "/track"}

// ShutdownGracePeriod bounds how long Shutdown waits for in-flight
// requests to finish.
var ShutdownGracePeriod = 250 * time.Millisecond

// Server is the mock ingest server.
type Server struct {
	store  store.Store
	router *mux.Router
	log    zerolog.Logger
	http   *http.Server
}

// New builds a Server around st (typically store.New()) ready to be used
// either as an http.Handler (embedded) or via ListenAndServe (standalone).
func New(st store.Store, log zerolog.Logger) *Server {
	s := &Server{store: st, router: mux.NewRouter(), log: log}
	s.routes()
	return s
}

// Store returns the backing store, for embedded use by a TestContext.
func (s *Server) Store() store.Store {
	return s.store
}

// ServeHTTP implements http.Handler, so a Server can be wrapped directly
// in an httptest.Server for embedded, in-process tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	for _, p := range capturePaths {
		s.router.HandleFunc(p, s.handleCapture).Methods(http.MethodPost, http.MethodGet)
		s.router.HandleFunc(p+"/", s.handleCapture).Methods(http.MethodPost, http.MethodGet)
	}

	s.router.HandleFunc("/_control/requests", s.handleGetRequests).Methods(http.MethodGet)
	s.router.HandleFunc("/_control/requests/clear", s.handleClearRequests).Methods(http.MethodPost)
	s.router.HandleFunc("/_control/reset", s.handleReset).Methods(http.MethodPost)
	s.router.HandleFunc("/_control/configure", s.handleConfigure).Methods(http.MethodPost)

	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/_health", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec := s.store.Record(r.Method, r.URL.Path, r.Header, firstValues(r.URL.Query()), body)

	s.log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("recorded_response_status", rec.ResponseStatus).
		Msg("mock ingest hit")

	if rec.ResponseStatus != http.StatusOK {
		writeProgrammed(w, rec)
		return
	}

	if r.URL.Query().Get("beacon") == "1" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status": 1}`)
}

// writeProgrammed relays a non-200 programmed response verbatim, falling
// back to a generic JSON error body when none was configured.
func writeProgrammed(w http.ResponseWriter, rec harness.RecordedRequest) {
	for k, v := range rec.ResponseHeaders {
		w.Header().Set(k, v)
	}
	body := rec.ResponseBody
	if body == "" {
		w.Header().Set("Content-Type", "application/json")
		body = `{"error": "mock configured error response"}`
	}
	w.WriteHeader(rec.ResponseStatus)
	io.WriteString(w, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func firstValues(q map[string][]string) map[string]string {
	out := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// ListenAndServe runs the mock ingest server standalone on addr, blocking
// until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mockserver: listening on %s: %w", addr, err)
	}
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("mock ingest server listening")
	err = s.http.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// ListenEphemeral starts the server on an OS-assigned loopback port in the
// background and returns its base URL. Used by the suite runner, which
// wants one freshly isolated mock per suite without a fixed address.
func (s *Server) ListenEphemeral() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("mockserver: listening on ephemeral port: %w", err)
	}
	s.http = &http.Server{Handler: s.router}
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("mock ingest server stopped")
		}
	}()
	return "http://" + ln.Addr().String(), nil
}

// Shutdown gracefully stops a standalone server started via ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, ShutdownGracePeriod)
	defer cancel()
	return s.http.Shutdown(ctx)
}
