package actions

import (
	"context"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_capture_fails", assertCaptureFailsAction)
}

// assertCaptureFailsAction is a no-op; its presence tells the executor
// that the preceding step was expected to raise, so a raise there should
// be swallowed rather than failing the test.
func assertCaptureFailsAction(_ context.Context, _ harness.Params, _ Context) error {
	return nil
}
