// Package actions is the test DSL: the compile-time registry of named
// steps a contract can invoke, grouped by purpose (adapter driving, mock
// programming, timing, and the several families of assertions).
//
// Discovery is a closed, compile-time registry keyed by an explicit
// string name rather than reflected from a Go type: each action
// registers itself by name in an init() call, so the catalogue is
// inspectable at build time instead of enumerated at runtime.
package actions

import (
	"context"
	"fmt"

	"github.com/PostHog/posthog-sdk-test-harness/adapter"
	"github.com/PostHog/posthog-sdk-test-harness/harness"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// Context is what an Action needs from the running test: the adapter
// handle, the mock's recorded-traffic view, and the defaults init_sdk
// falls back to. Implemented by executor.TestContext; kept as an
// interface here so this package never imports executor.
type Context interface {
	Adapter() *adapter.Client
	Store() store.Controller
	MockBaseURL() string
	DefaultAPIKey() string
	Reset(ctx context.Context) error
	InitSDK(ctx context.Context, cfg harness.InitConfig) error
}

// Action is a single named step the registry can dispatch to.
type Action interface {
	Name() string
	Execute(ctx context.Context, params harness.Params, tc Context) error
}

var registry = make(map[string]Action)

// Register adds a to the registry. It panics on a duplicate name, which
// can only happen from a programming error in this package's own init()
// calls, never from contract content.
func Register(a Action) {
	name := a.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("actions: %q already registered", name))
	}
	registry[name] = a
}

// Get looks up a registered action by name.
func Get(name string) (Action, bool) {
	a, ok := registry[name]
	return a, ok
}

// Names returns every registered action name, for diagnostics.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}

// funcAction adapts a bare function to the Action interface, the way most
// of this package's entries are defined.
type funcAction struct {
	name string
	fn   func(ctx context.Context, params harness.Params, tc Context) error
}

func (f funcAction) Name() string { return f.name }

func (f funcAction) Execute(ctx context.Context, params harness.Params, tc Context) error {
	return f.fn(ctx, params, tc)
}

func register(name string, fn func(ctx context.Context, params harness.Params, tc Context) error) {
	Register(funcAction{name: name, fn: fn})
}
