package actions

import (
	"context"
	"time"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("wait", waitAction)
}

func waitAction(ctx context.Context, params harness.Params, _ Context) error {
	ms, err := params.GetInt("wait", "duration_ms")
	if err != nil {
		return err
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
