package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

func newTestServer() (*Server, *httptest.Server) {
	srv := New(store.New(), zerolog.Nop())
	return srv, httptest.NewServer(srv)
}

func TestCaptureAliasesAllRecordAndReply200(t *testing.T) {
	srv, ts := newTestServer()
	defer ts.Close()

	for _, p := range capturePaths {
		resp, err := http.Post(ts.URL+p, "application/json", strings.NewReader(`{"event":"x"}`))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status": 1}`, string(body))
	}

	assert.Len(t, srv.Store().GetAll(), len(capturePaths))
}

func TestBeaconRequestsGetEmpty204(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/e?beacon=1", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestNon200ProgrammedResponseIsRelayedVerbatim(t *testing.T) {
	srv, ts := newTestServer()
	defer ts.Close()

	srv.Store().Program([]harness.MockResponse{
		{StatusCode: 503, Body: `{"error":"down"}`, Headers: map[string]string{"Retry-After": "1"}},
	})

	resp, err := http.Post(ts.URL+"/batch", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.JSONEq(t, `{"error":"down"}`, string(body))
}

func TestBeaconIsIgnoredWhenProgrammedResponseIsNon200(t *testing.T) {
	srv, ts := newTestServer()
	defer ts.Close()

	srv.Store().Program([]harness.MockResponse{{StatusCode: 500}})

	resp, err := http.Post(ts.URL+"/e?beacon=1", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()

	for _, p := range []string{"/", "/_health"} {
		resp, err := http.Get(ts.URL + p)
		require.NoError(t, err)
		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()
		assert.Equal(t, "ok", out["status"])
	}
}

func TestControlPlaneRoundTrip(t *testing.T) {
	_, ts := newTestServer()
	defer ts.Close()
	remote := NewRemoteController(ts.URL)

	remote.Program([]harness.MockResponse{{StatusCode: 429}})
	resp, err := http.Post(ts.URL+"/capture", "application/json", strings.NewReader(`{"event":"a"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 429, resp.StatusCode)

	all := remote.GetAll()
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ParsedEvents[0]["event"])

	remote.Clear()
	assert.Empty(t, remote.GetAll())

	remote.Reset()
	resp2, err := http.Post(ts.URL+"/capture", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
