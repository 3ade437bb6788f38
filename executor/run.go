package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/PostHog/posthog-sdk-test-harness/actions"
	"github.com/PostHog/posthog-sdk-test-harness/contract"
	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// resolveStep expands step against the contract's action-alias catalogue:
// if step.Action names an alias rather than a built-in action, the
// alias's own action name is used and its default params are merged
// underneath the step's own params (step params win on collision).
func resolveStep(step contract.Step, cat *contract.Catalogue) contract.Step {
	alias, ok := cat.Resolve(step.Action)
	if !ok {
		return step
	}
	merged := make(map[string]any, len(alias.Params)+len(step.Params))
	for k, v := range alias.Params {
		merged[k] = v
	}
	for k, v := range step.Params {
		merged[k] = v
	}
	return contract.Step{Action: alias.Action, Params: merged}
}

// RunTest executes one test's steps in order against tc, after a full
// reset. It implements the assert_capture_fails swallow rule: if a step
// raises and the next step is that marker, the raise is discarded and
// iteration continues.
func RunTest(ctx context.Context, test contract.Test, cat *contract.Catalogue, tc *TestContext) harness.TestResult {
	start := time.Now()
	result := harness.TestResult{Name: test.Name, Passed: true}

	if err := tc.Reset(ctx); err != nil {
		result.Passed = false
		result.Message = err.Error()
		result.DurationMS = time.Since(start).Milliseconds()
		return result
	}

	for i, rawStep := range test.Steps {
		step := resolveStep(rawStep, cat)

		action, ok := actions.Get(step.Action)
		if !ok {
			result.Passed = false
			result.Message = (&harness.UnknownActionError{Action: step.Action}).Error()
			break
		}

		params := harness.Params(step.Params)
		if params == nil {
			params = harness.Params{}
		}

		err := action.Execute(ctx, params, tc)
		if err == nil {
			continue
		}

		nextIsCaptureFails := i+1 < len(test.Steps) && resolveStep(test.Steps[i+1], cat).Action == "assert_capture_fails"
		if nextIsCaptureFails {
			continue
		}

		result.Passed = false
		result.Message = err.Error()
		break
	}

	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

// RunSuite runs every applicable test in suite in category/document order,
// skipping (counting neither passed nor failed) tests whose sdk_types
// excludes sdkType.
func RunSuite(ctx context.Context, suite contract.Suite, cat *contract.Catalogue, sdkType string, tc *TestContext, log zerolog.Logger) harness.TestSuiteResult {
	out := harness.TestSuiteResult{Name: suite.Name}
	for _, catName := range suite.CategoryNames() {
		category := suite.Categories[catName]
		for _, test := range category.Tests {
			if !test.AppliesTo(sdkType) {
				log.Debug().Str("suite", suite.Name).Str("test", test.Name).Str("sdk_type", sdkType).Msg("skipping test: sdk_types excludes this flavour")
				continue
			}
			result := RunTest(ctx, test, cat, tc)
			log.Info().Str("suite", suite.Name).Str("test", test.Name).Bool("passed", result.Passed).Int64("duration_ms", result.DurationMS).Msg("test finished")
			out.Results = append(out.Results, result)
		}
	}
	return out
}
