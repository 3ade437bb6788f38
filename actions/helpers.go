package actions

import (
	"strconv"
	"strings"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// formatIndex replaces the literal placeholder "{index}" with i, the only
// templating capture_multiple performs (top-level strings only).
func formatIndex(s string, i int) string {
	return strings.ReplaceAll(s, "{index}", strconv.Itoa(i))
}

// firstRequest returns the first recorded request, or an AssertionFailure
// naming action if the store is empty.
func firstRequest(action string, tc Context) (harness.RecordedRequest, error) {
	all := tc.Store().GetAll()
	if len(all) == 0 {
		return harness.RecordedRequest{}, harness.NewAssertionFailure(action, "no requests recorded")
	}
	return all[0], nil
}

// firstEvent returns parsed_events[0] of the first recorded request.
func firstEvent(action string, tc Context) (map[string]any, error) {
	req, err := firstRequest(action, tc)
	if err != nil {
		return nil, err
	}
	if len(req.ParsedEvents) == 0 {
		return nil, harness.NewAssertionFailure(action, "first recorded request has no parsed events")
	}
	return req.ParsedEvents[0], nil
}

// allEvents flattens parsed_events across every recorded request, in
// recorded order.
func allEvents(tc Context) []map[string]any {
	var out []map[string]any
	for _, req := range tc.Store().GetAll() {
		out = append(out, req.ParsedEvents...)
	}
	return out
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func availableKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
