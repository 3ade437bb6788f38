package actions

import (
	"context"
	"strings"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_uuid_format", assertUUIDFormatAction)
	register("assert_all_uuids_unique", assertAllUUIDsUniqueAction)
	register("assert_different_uuids", assertDifferentUUIDsAction)
	register("assert_no_duplicate_events_in_batch", assertNoDuplicateEventsInBatchAction)
	register("assert_uuid_preserved_on_retry", assertUUIDPreservedOnRetryAction)
	register("assert_timestamp_preserved_on_retry", assertTimestampPreservedOnRetryAction)
}

// looksLikeUUID is a shape check only: length 36 and four dashes, not
// full RFC-4122 validation.
func looksLikeUUID(s string) bool {
	return len(s) == 36 && strings.Count(s, "-") == 4
}

func assertUUIDFormatAction(_ context.Context, params harness.Params, tc Context) error {
	field, err := params.GetString("assert_uuid_format", "field")
	if err != nil {
		return err
	}
	event, err := firstEvent("assert_uuid_format", tc)
	if err != nil {
		return err
	}
	v, present := event[field]
	if !present {
		return harness.NewAssertionFailure("assert_uuid_format", "field %q absent", field)
	}
	s, ok := asString(v)
	if !ok || !looksLikeUUID(s) {
		return harness.NewAssertionFailure("assert_uuid_format", "field %q = %v does not look like a UUID", field, v)
	}
	return nil
}

func assertAllUUIDsUniqueAction(_ context.Context, _ harness.Params, tc Context) error {
	seen := make(map[string]bool)
	for _, event := range allEvents(tc) {
		id, _ := asString(event["uuid"])
		if id == "" {
			continue
		}
		if seen[id] {
			return harness.NewAssertionFailure("assert_all_uuids_unique", "duplicate uuid %q", id)
		}
		seen[id] = true
	}
	return nil
}

func assertDifferentUUIDsAction(_ context.Context, _ harness.Params, tc Context) error {
	events := allEvents(tc)
	if len(events) < 2 {
		return harness.NewAssertionFailure("assert_different_uuids", "expected at least 2 events, got %d", len(events))
	}
	a, _ := asString(events[0]["uuid"])
	b, _ := asString(events[1]["uuid"])
	if a == b {
		return harness.NewAssertionFailure("assert_different_uuids", "first two events share uuid %q", a)
	}
	return nil
}

func assertNoDuplicateEventsInBatchAction(_ context.Context, _ harness.Params, tc Context) error {
	for _, req := range tc.Store().GetAll() {
		seen := make(map[string]bool)
		for _, event := range req.ParsedEvents {
			id, _ := asString(event["uuid"])
			if id == "" {
				continue
			}
			if seen[id] {
				return harness.NewAssertionFailure("assert_no_duplicate_events_in_batch", "duplicate uuid %q within one request", id)
			}
			seen[id] = true
		}
	}
	return nil
}

func assertUUIDPreservedOnRetryAction(_ context.Context, _ harness.Params, tc Context) error {
	all := tc.Store().GetAll()
	if len(all) < 2 {
		return harness.NewAssertionFailure("assert_uuid_preserved_on_retry", "expected at least 2 recorded requests, got %d", len(all))
	}
	got0 := uuidsOf(all[0])
	got1 := uuidsOf(all[1])
	if !equalStrings(got0, got1) {
		return harness.NewAssertionFailure("assert_uuid_preserved_on_retry", "uuids differ between request 0 %v and request 1 %v", got0, got1)
	}
	return nil
}

func assertTimestampPreservedOnRetryAction(_ context.Context, _ harness.Params, tc Context) error {
	all := tc.Store().GetAll()
	if len(all) < 2 {
		return harness.NewAssertionFailure("assert_timestamp_preserved_on_retry", "expected at least 2 recorded requests, got %d", len(all))
	}
	got0 := fieldsOf(all[0], "timestamp")
	got1 := fieldsOf(all[1], "timestamp")
	if !equalStrings(got0, got1) {
		return harness.NewAssertionFailure("assert_timestamp_preserved_on_retry", "timestamps differ between request 0 %v and request 1 %v", got0, got1)
	}
	return nil
}

func uuidsOf(req harness.RecordedRequest) []string {
	return fieldsOf(req, "uuid")
}

func fieldsOf(req harness.RecordedRequest, field string) []string {
	out := make([]string, 0, len(req.ParsedEvents))
	for _, e := range req.ParsedEvents {
		s, _ := asString(e[field])
		out = append(out, s)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
