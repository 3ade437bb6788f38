package actions

import (
	"context"
	"encoding/json"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_token_present", assertTokenPresentAction)
	register("assert_token_present_client", assertTokenPresentClientAction)
}

// assertTokenPresentAction checks expected against the first event's
// token, or the first recorded request's batch-level api_key/token field.
func assertTokenPresentAction(_ context.Context, params harness.Params, tc Context) error {
	expected, err := params.GetString("assert_token_present", "expected")
	if err != nil {
		return err
	}

	req, err := firstRequest("assert_token_present", tc)
	if err != nil {
		return err
	}

	if len(req.ParsedEvents) > 0 {
		if tok, ok := asString(req.ParsedEvents[0]["token"]); ok && tok == expected {
			return nil
		}
	}

	// ParsedEvents already unwraps a top-level "batch"/"data" array (see
	// store.parseEvents), so it no longer carries the wrapper object's own
	// fields once a batch is present. Decode the raw body directly to reach
	// the wrapper's api_key/token regardless of whether it wraps a batch.
	var wrapper map[string]any
	if json.Unmarshal([]byte(req.BodyDecompressed), &wrapper) == nil {
		if tok, ok := asString(wrapper["api_key"]); ok && tok == expected {
			return nil
		}
		if tok, ok := asString(wrapper["token"]); ok && tok == expected {
			return nil
		}
	}

	return harness.NewAssertionFailure("assert_token_present", "token %q not found in event or batch-level api_key/token", expected)
}

// assertTokenPresentClientAction scans every event in the first recorded
// request for expected, matching event root or properties["token"]/["api_key"].
func assertTokenPresentClientAction(_ context.Context, params harness.Params, tc Context) error {
	expected, err := params.GetString("assert_token_present_client", "expected")
	if err != nil {
		return err
	}

	req, err := firstRequest("assert_token_present_client", tc)
	if err != nil {
		return err
	}

	for _, event := range req.ParsedEvents {
		if tok, ok := asString(event["token"]); ok && tok == expected {
			return nil
		}
		props, _ := event["properties"].(map[string]any)
		if tok, ok := asString(props["token"]); ok && tok == expected {
			return nil
		}
		if tok, ok := asString(props["api_key"]); ok && tok == expected {
			return nil
		}
	}

	return harness.NewAssertionFailure("assert_token_present_client", "token %q not found in any event's root or properties", expected)
}
