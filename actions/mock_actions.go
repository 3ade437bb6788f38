package actions

import (
	"context"
	"fmt"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("configure_mock_responses", configureMockResponsesAction)
}

func configureMockResponsesAction(_ context.Context, params harness.Params, tc Context) error {
	raw := params.GetSlice("responses")
	if raw == nil {
		return &harness.MissingParamError{Action: "configure_mock_responses", Field: "responses"}
	}

	responses := make([]harness.MockResponse, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return harness.NewAssertionFailure("configure_mock_responses", "responses[%d] is not an object", i)
		}
		p := harness.Params(m)
		resp := harness.MockResponse{
			StatusCode: p.GetIntDefault("status_code", 200),
			Body:       p.GetStringDefault("body", ""),
		}
		if headers := p.GetMap("headers"); headers != nil {
			resp.Headers = make(map[string]string, len(headers))
			for k, v := range headers {
				resp.Headers[k] = fmt.Sprintf("%v", v)
			}
		}
		responses = append(responses, resp)
	}

	tc.Store().Program(responses)
	return nil
}
