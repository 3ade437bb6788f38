// Package executor runs contract tests: per-test reset, sequential step
// execution against the action registry, and suite/summary aggregation.
package executor

import (
	"context"

	"github.com/PostHog/posthog-sdk-test-harness/adapter"
	"github.com/PostHog/posthog-sdk-test-harness/harness"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// defaultInt and defaultBool build the *int/*bool pointers init_sdk needs
// to express "this knob was set" versus "left at zero".
func defaultInt(v int) *int    { return &v }
func defaultBool(v bool) *bool { return &v }

// TestContext holds everything one running test needs: the adapter
// client, the mock's store handle, the mock's base URL, and the default
// api_key new SDKs are initialised with. It implements actions.Context
// structurally — this package imports actions, not the other way round,
// so there is no cycle.
type TestContext struct {
	adapterClient *adapter.Client
	store         store.Controller
	mockBaseURL   string
	defaultAPIKey string
}

// NewTestContext builds a TestContext wired to adapterClient and store,
// addressing the mock at mockBaseURL.
func NewTestContext(adapterClient *adapter.Client, st store.Controller, mockBaseURL string) *TestContext {
	return &TestContext{
		adapterClient: adapterClient,
		store:         st,
		mockBaseURL:   mockBaseURL,
		defaultAPIKey: "phc_test_key",
	}
}

func (tc *TestContext) Adapter() *adapter.Client { return tc.adapterClient }
func (tc *TestContext) Store() store.Controller  { return tc.store }
func (tc *TestContext) MockBaseURL() string      { return tc.mockBaseURL }
func (tc *TestContext) DefaultAPIKey() string    { return tc.defaultAPIKey }

// Reset clears the mock's recorded traffic and response programme, then
// asks the adapter to discard its own state.
func (tc *TestContext) Reset(ctx context.Context) error {
	tc.store.Reset()
	return tc.adapterClient.Reset(ctx)
}

// InitSDK calls the adapter's init with cfg, filling in the tight-timing
// defaults (flush_at=1, flush_interval_ms=100, max_retries=3, compression
// off) for any knob cfg leaves nil.
func (tc *TestContext) InitSDK(ctx context.Context, cfg harness.InitConfig) error {
	if cfg.APIKey == "" {
		cfg.APIKey = tc.defaultAPIKey
	}
	if cfg.Host == "" {
		cfg.Host = tc.mockBaseURL
	}
	if cfg.FlushAt == nil {
		cfg.FlushAt = defaultInt(1)
	}
	if cfg.FlushIntervalMS == nil {
		cfg.FlushIntervalMS = defaultInt(100)
	}
	if cfg.MaxRetries == nil {
		cfg.MaxRetries = defaultInt(3)
	}
	if cfg.EnableCompression == nil {
		cfg.EnableCompression = defaultBool(false)
	}
	return tc.adapterClient.Init(ctx, cfg)
}
