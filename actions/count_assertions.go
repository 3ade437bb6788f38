package actions

import (
	"context"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_request_count", assertRequestCountAction)
	register("assert_request_count_gte", assertRequestCountGTEAction)
}

func assertRequestCountAction(_ context.Context, params harness.Params, tc Context) error {
	expected, err := params.GetInt("assert_request_count", "expected")
	if err != nil {
		return err
	}
	got := len(tc.Store().GetAll())
	if got != expected {
		return harness.NewAssertionFailure("assert_request_count", "expected %d requests, got %d", expected, got)
	}
	return nil
}

func assertRequestCountGTEAction(_ context.Context, params harness.Params, tc Context) error {
	expected, err := params.GetInt("assert_request_count_gte", "expected")
	if err != nil {
		return err
	}
	got := len(tc.Store().GetAll())
	if got < expected {
		return harness.NewAssertionFailure("assert_request_count_gte", "expected at least %d requests, got %d", expected, got)
	}
	return nil
}
