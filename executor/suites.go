package executor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/PostHog/posthog-sdk-test-harness/adapter"
	"github.com/PostHog/posthog-sdk-test-harness/contract"
	"github.com/PostHog/posthog-sdk-test-harness/errorlist"
	"github.com/PostHog/posthog-sdk-test-harness/harness"
	"github.com/PostHog/posthog-sdk-test-harness/mockserver"
	"github.com/PostHog/posthog-sdk-test-harness/store"
)

// ContractsDir is the directory RunSuites loads every top-level *.yaml
// contract document from. Each file is loaded independently (its own
// !include resolution scope); suites are merged by name, with a
// later-loaded file's suite replacing an earlier one of the same name.
var ContractsDir = "contracts"

// LoadAllContracts loads and merges every *.yaml file directly under dir. A
// broken file doesn't stop the scan: every file is attempted, and any
// failures are reported together as one errorlist.List rather than only the
// first one encountered.
func LoadAllContracts(dir string) (*contract.Catalogue, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &harness.BadContractError{Path: dir, Message: err.Error()}
	}

	var errs errorlist.List
	merged := contract.NewCatalogue()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		cat, err := contract.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = errs.Append(e.Name(), err)
			continue
		}
		merged.Merge(cat)
	}
	if err := errs.AsError(); err != nil {
		return nil, err
	}
	return merged, nil
}

// RunSuites runs the named suites (all loaded suites, if names is empty)
// against the adapter at adapterURL, using an embedded mock server per
// suite (reset before every test), and returns the aggregate TestSummary. It is one of the harness's
// two external entry points; cmd/harness's "run" subcommand is a thin
// wrapper over this function.
func RunSuites(ctx context.Context, adapterURL string, names []string, sdkType string, logger zerolog.Logger) (harness.TestSummary, error) {
	start := time.Now()
	var summary harness.TestSummary

	if sdkType == "" {
		sdkType = harness.DefaultSDKType
	}

	cat, err := LoadAllContracts(ContractsDir)
	if err != nil {
		return summary, err
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	adapterClient := adapter.New(adapterURL)
	if err := adapterClient.WaitForHealth(ctx); err != nil {
		return summary, err
	}

	for _, suiteName := range cat.SuiteNames() {
		if len(want) > 0 && !want[suiteName] {
			continue
		}
		suite := cat.Suites()[suiteName]

		st := store.New()
		mock := mockserver.New(st, logger)
		baseURL, err := mock.ListenEphemeral()
		if err != nil {
			return summary, err
		}

		tc := NewTestContext(adapterClient, st, baseURL)
		suiteResult := RunSuite(ctx, suite, cat, sdkType, tc, logger)
		summary.AddSuite(suiteResult)

		if err := mock.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Str("suite", suiteName).Msg("mock server shutdown failed")
		}
	}

	summary.DurationMS = time.Since(start).Milliseconds()
	return summary, nil
}
