package executor

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PostHog/posthog-sdk-test-harness/adapter"
	"github.com/PostHog/posthog-sdk-test-harness/contract"
	"github.com/PostHog/posthog-sdk-test-harness/mockserver"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// harnessFixture wires up one fake adapter and one embedded mock server
// per test, mirroring how RunSuites wires a fresh mock per suite.
type harnessFixture struct {
	tc *TestContext
}

func newHarnessFixture(t *testing.T) *harnessFixture {
	t.Helper()
	st := store.New()
	mock := mockserver.New(st, zerolog.Nop())
	mockBaseURL, err := mock.ListenEphemeral()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Shutdown(context.Background()) })

	adapterSrv := newFakeAdapterServer()
	t.Cleanup(adapterSrv.Close)

	tc := NewTestContext(adapter.New(adapterSrv.URL), st, mockBaseURL)
	return &harnessFixture{tc: tc}
}

func step(action string, params map[string]any) contract.Step {
	return contract.Step{Action: action, Params: params}
}

func TestSeedScenario1SingleCaptureSingleBatch(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "single capture, single batch",
		Steps: []contract.Step{
			step("init", map[string]any{"flush_at": 1}),
			step("capture", map[string]any{"distinct_id": "u1", "event": "login"}),
			step("wait", map[string]any{"duration_ms": 200}),
			step("assert_request_count", map[string]any{"expected": 1}),
			step("assert_event_field", map[string]any{"field": "event", "expected": "login"}),
			step("assert_event_field", map[string]any{"field": "distinct_id", "expected": "u1"}),
			step("assert_uuid_format", map[string]any{"field": "uuid"}),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

func TestSeedScenario2BatchingThreshold(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "batching threshold",
		Steps: []contract.Step{
			step("init", map[string]any{"flush_at": 5}),
			step("capture_multiple", map[string]any{"count": 5, "params": map[string]any{"distinct_id": "u{index}", "event": "e"}}),
			step("wait", map[string]any{"duration_ms": 200}),
			step("assert_request_count", map[string]any{"expected": 1}),
			step("assert_all_uuids_unique", nil),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

func TestSeedScenario3RetryOn500(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "retry on 500",
		Steps: []contract.Step{
			step("init", map[string]any{"max_retries": 2}),
			step("configure_mock_responses", map[string]any{"responses": []any{
				map[string]any{"status_code": 500},
				map[string]any{"status_code": 200},
			}}),
			step("capture", map[string]any{"distinct_id": "u1", "event": "login"}),
			step("wait", map[string]any{"duration_ms": 2000}),
			step("assert_request_count", map[string]any{"expected": 2}),
			step("assert_uuid_preserved_on_retry", nil),
			step("assert_timestamp_preserved_on_retry", nil),
			step("assert_retry_delay", map[string]any{"min_delay_ms": 40}),
			step("assert_final_success", nil),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

func TestSeedScenario5BatchSchema(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "batch schema",
		Steps: []contract.Step{
			step("init", nil),
			step("capture", map[string]any{"distinct_id": "u1", "event": "login"}),
			step("wait", map[string]any{"duration_ms": 200}),
			step("assert_batch_format", map[string]any{"has_api_key_field": true, "has_batch_array": true}),
			step("assert_token_present", map[string]any{"expected": "phc_test_key"}),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

func TestSeedScenario4ExponentialBackoff(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "exponential backoff",
		Steps: []contract.Step{
			step("init", map[string]any{"max_retries": 2}),
			step("configure_mock_responses", map[string]any{"responses": []any{
				map[string]any{"status_code": 500},
				map[string]any{"status_code": 500},
				map[string]any{"status_code": 200},
			}}),
			step("capture", map[string]any{"distinct_id": "u1", "event": "login"}),
			step("wait", map[string]any{"duration_ms": 5000}),
			step("assert_request_count", map[string]any{"expected": 3}),
			step("assert_backoff_implemented", map[string]any{"min_first_delay_ms": 40}),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

// TestSeedScenario6BeaconPathRecordsAndReturns204 drives a literal
// /batch?beacon=1 request at the ephemeral mock server a harnessFixture
// wires up via ListenEphemeral (the same startup path RunSuites uses),
// confirming beacon handling holds over a real TCP listener and not
// just over mockserver's own httptest.NewServer-wrapped handler.
func TestSeedScenario6BeaconPathRecordsAndReturns204(t *testing.T) {
	fx := newHarnessFixture(t)
	require.NoError(t, fx.tc.Reset(context.Background()))

	body := []byte(`{"api_key":"phc_test_key","batch":[{"event":"beacon_event","distinct_id":"u1"}]}`)
	resp, err := http.Post(fx.tc.MockBaseURL()+"/batch?beacon=1", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	recorded := fx.tc.Store().GetAll()
	require.Len(t, recorded, 1)
	assert.Equal(t, "/batch", recorded[0].Path)
	assert.Equal(t, "1", recorded[0].QueryParams["beacon"])
}

func TestUnknownActionFailsTestWithDescriptiveMessage(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name:  "bad step",
		Steps: []contract.Step{step("nonexistent_action", nil)},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	require.False(t, result.Passed)
	assert.Contains(t, result.Message, "nonexistent_action")
}

func TestAssertCaptureFailsSwallowsPrecedingFailure(t *testing.T) {
	fx := newHarnessFixture(t)
	test := contract.Test{
		Name: "expected failure is swallowed",
		Steps: []contract.Step{
			step("assert_request_count", map[string]any{"expected": 99}),
			step("assert_capture_fails", nil),
		},
	}

	result := RunTest(context.Background(), test, contract.NewCatalogue(), fx.tc)
	assert.True(t, result.Passed, "expected pass, got message: %s", result.Message)
}

func TestSDKTypesFilterSkipsNonMatchingTests(t *testing.T) {
	fx := newHarnessFixture(t)
	suite := contract.NewSuite("core", contract.Category{Name: "cat", Tests: []contract.Test{
		{Name: "server only", SDKTypes: []string{"server"}, Steps: []contract.Step{step("init", nil)}},
		{Name: "client only", SDKTypes: []string{"client"}, Steps: []contract.Step{step("init", nil)}},
	}})

	result := RunSuite(context.Background(), suite, contract.NewCatalogue(), "server", fx.tc, zerolog.Nop())
	require.Len(t, result.Results, 1)
	assert.Equal(t, "server only", result.Results[0].Name)
}
