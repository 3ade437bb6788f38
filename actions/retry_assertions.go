package actions

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_final_success", assertFinalSuccessAction)
	register("assert_retry_delay", assertRetryDelayAction)
	register("assert_backoff_implemented", assertBackoffImplementedAction)
	register("assert_response_status", assertResponseStatusAction)
}

func assertFinalSuccessAction(_ context.Context, _ harness.Params, tc Context) error {
	for _, req := range tc.Store().GetAll() {
		if req.ResponseStatus == http.StatusOK {
			return nil
		}
	}
	return harness.NewAssertionFailure("assert_final_success", "no recorded request got a 200 response")
}

func assertRetryDelayAction(_ context.Context, params harness.Params, tc Context) error {
	minDelay, err := params.GetInt("assert_retry_delay", "min_delay_ms")
	if err != nil {
		return err
	}
	return checkDelayFloor("assert_retry_delay", tc, minDelay)
}

func assertBackoffImplementedAction(_ context.Context, params harness.Params, tc Context) error {
	minDelay, err := params.GetInt("assert_backoff_implemented", "min_first_delay_ms")
	if err != nil {
		return err
	}
	return checkDelayFloor("assert_backoff_implemented", tc, minDelay)
}

func checkDelayFloor(action string, tc Context, minDelayMS int) error {
	all := tc.Store().GetAll()
	if len(all) < 2 {
		return harness.NewAssertionFailure(action, "expected at least 2 recorded requests, got %d", len(all))
	}
	delta := all[1].TimestampMS - all[0].TimestampMS
	if delta < int64(minDelayMS) {
		return harness.NewAssertionFailure(action, "expected delay >= %dms between first two requests, got %dms", minDelayMS, delta)
	}
	return nil
}

// assertResponseStatusAction relies on a substring match over the
// adapter's free-form last_error string. Fragile by nature, but there is
// no structured status field to check instead.
func assertResponseStatusAction(ctx context.Context, params harness.Params, tc Context) error {
	expected, err := params.GetInt("assert_response_status", "expected")
	if err != nil {
		return err
	}
	state, err := tc.Adapter().GetState(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(state.LastError, strconv.Itoa(expected)) {
		return harness.NewAssertionFailure("assert_response_status", "last_error %q does not mention status %d", state.LastError, expected)
	}
	return nil
}
