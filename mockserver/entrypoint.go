package mockserver

import (
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// StartMockServer starts the mock ingest server standalone on addr and
// returns once it is listening. It is one of the harness's two external
// entry points; cmd/harness's "serve" subcommand is a thin wrapper over
// this function.
func StartMockServer(addr string, logger zerolog.Logger) (*Server, error) {
	srv := New(store.New(), logger)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("mockserver: listening on %s: %w", addr, err)
	}
	srv.http = &http.Server{Addr: addr, Handler: srv.router}

	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("mock ingest server listening")
		if err := srv.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("mock ingest server stopped")
		}
	}()

	return srv, nil
}
