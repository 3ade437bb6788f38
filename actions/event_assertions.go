package actions

import (
	"context"
	"fmt"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("assert_event_field", assertEventFieldAction)
	register("assert_event_has_field", assertEventHasFieldAction)
	register("assert_event_property", assertEventPropertyAction)
	register("assert_event_field_client", assertEventFieldClientAction)
}

func assertEventFieldAction(_ context.Context, params harness.Params, tc Context) error {
	field, err := params.GetString("assert_event_field", "field")
	if err != nil {
		return err
	}
	expected, ok := params["expected"]
	if !ok {
		return &harness.MissingParamError{Action: "assert_event_field", Field: "expected"}
	}

	event, err := firstEvent("assert_event_field", tc)
	if err != nil {
		return err
	}
	got, present := event[field]
	if !present {
		return harness.NewAssertionFailure("assert_event_field", "field %q absent, available: %v", field, availableKeys(event))
	}
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", expected) {
		return harness.NewAssertionFailure("assert_event_field", "field %q: expected %v, got %v", field, expected, got)
	}
	return nil
}

func assertEventHasFieldAction(_ context.Context, params harness.Params, tc Context) error {
	field, err := params.GetString("assert_event_has_field", "field")
	if err != nil {
		return err
	}
	event, err := firstEvent("assert_event_has_field", tc)
	if err != nil {
		return err
	}
	if _, present := event[field]; !present {
		return harness.NewAssertionFailure("assert_event_has_field", "field %q absent, available: %v", field, availableKeys(event))
	}
	return nil
}

func assertEventPropertyAction(_ context.Context, params harness.Params, tc Context) error {
	property, err := params.GetString("assert_event_property", "property")
	if err != nil {
		return err
	}
	event, err := firstEvent("assert_event_property", tc)
	if err != nil {
		return err
	}
	props, _ := event["properties"].(map[string]any)

	if params.GetBoolDefault("exists", false) {
		if _, present := props[property]; !present {
			return harness.NewAssertionFailure("assert_event_property", "property %q absent, available: %v", property, availableKeys(props))
		}
	}
	if expected, ok := params["expected"]; ok {
		got, present := props[property]
		if !present {
			return harness.NewAssertionFailure("assert_event_property", "property %q absent, available: %v", property, availableKeys(props))
		}
		if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", expected) {
			return harness.NewAssertionFailure("assert_event_property", "property %q: expected %v, got %v", property, expected, got)
		}
	}
	return nil
}

// assertEventFieldClientAction is the client-SDK variant of
// assert_event_field: distinct_id is looked up under
// properties["$distinct_id"] then properties["distinct_id"]; other fields
// try top level, then properties["$<field>"], then properties[<field>].
func assertEventFieldClientAction(_ context.Context, params harness.Params, tc Context) error {
	field, err := params.GetString("assert_event_field_client", "field")
	if err != nil {
		return err
	}
	expected, ok := params["expected"]
	if !ok {
		return &harness.MissingParamError{Action: "assert_event_field_client", Field: "expected"}
	}

	event, err := firstEvent("assert_event_field_client", tc)
	if err != nil {
		return err
	}
	props, _ := event["properties"].(map[string]any)

	got, present := lookupClientField(event, props, field)
	if !present {
		return harness.NewAssertionFailure("assert_event_field_client", "field %q not found at top level, $%s, or %s under properties", field, field, field)
	}
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", expected) {
		return harness.NewAssertionFailure("assert_event_field_client", "field %q: expected %v, got %v", field, expected, got)
	}
	return nil
}

func lookupClientField(event, props map[string]any, field string) (any, bool) {
	if field == "distinct_id" {
		if v, ok := props["$distinct_id"]; ok {
			return v, true
		}
		if v, ok := props["distinct_id"]; ok {
			return v, true
		}
		return nil, false
	}
	if v, ok := event[field]; ok {
		return v, true
	}
	if v, ok := props["$"+field]; ok {
		return v, true
	}
	if v, ok := props[field]; ok {
		return v, true
	}
	return nil, false
}
