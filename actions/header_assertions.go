package actions

import (
	"context"
	"encoding/json"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_request_has_header", assertRequestHasHeaderAction)
	register("assert_batch_format", assertBatchFormatAction)
}

// assertRequestHasHeaderAction matches case-insensitively across any
// recorded request, not just the first — http.Header itself is already
// case-insensitive via Get.
func assertRequestHasHeaderAction(_ context.Context, params harness.Params, tc Context) error {
	header, err := params.GetString("assert_request_has_header", "header")
	if err != nil {
		return err
	}
	expected, hasExpected := params["expected"]

	for _, req := range tc.Store().GetAll() {
		v := req.Headers.Get(header)
		if v == "" {
			continue
		}
		if !hasExpected {
			return nil
		}
		if v == asStringOr(expected) {
			return nil
		}
	}
	if hasExpected {
		return harness.NewAssertionFailure("assert_request_has_header", "no recorded request has header %q = %v", header, expected)
	}
	return harness.NewAssertionFailure("assert_request_has_header", "no recorded request has header %q", header)
}

func asStringOr(v any) string {
	s, _ := asString(v)
	return s
}

// assertBatchFormatAction requires the first recorded body to parse as a
// JSON object and checks the requested shape features.
func assertBatchFormatAction(_ context.Context, params harness.Params, tc Context) error {
	req, err := firstRequest("assert_batch_format", tc)
	if err != nil {
		return err
	}

	var obj map[string]any
	if jsonErr := json.Unmarshal([]byte(req.BodyDecompressed), &obj); jsonErr != nil {
		return harness.NewAssertionFailure("assert_batch_format", "first recorded body is not a JSON object: %s", jsonErr)
	}

	if params.GetBoolDefault("has_api_key_field", false) {
		if _, ok := obj["api_key"]; !ok {
			return harness.NewAssertionFailure("assert_batch_format", "body has no api_key field, available: %v", availableKeys(obj))
		}
	}
	if params.GetBoolDefault("has_batch_array", false) {
		if _, ok := obj["batch"].([]any); !ok {
			return harness.NewAssertionFailure("assert_batch_format", "body has no batch array, available: %v", availableKeys(obj))
		}
	}
	return nil
}
