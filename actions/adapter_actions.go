package actions

import (
	"context"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

func init() {
	register("init", initAction)
	register("capture", captureAction)
	register("capture_multiple", captureMultipleAction)
	register("flush", flushAction)
	register("reset", resetAction)
}

func initAction(ctx context.Context, params harness.Params, tc Context) error {
	cfg := harness.InitConfig{
		APIKey: params.GetStringDefault("api_key", tc.DefaultAPIKey()),
		Host:   params.GetStringDefault("host", tc.MockBaseURL()),
	}
	if v := params.GetIntPtr("flush_at"); v != nil {
		cfg.FlushAt = v
	}
	if v := params.GetIntPtr("flush_interval_ms"); v != nil {
		cfg.FlushIntervalMS = v
	}
	if v := params.GetIntPtr("max_retries"); v != nil {
		cfg.MaxRetries = v
	}
	if v := params.GetBoolPtr("enable_compression"); v != nil {
		cfg.EnableCompression = v
	}
	return tc.InitSDK(ctx, cfg)
}

func captureAction(ctx context.Context, params harness.Params, tc Context) error {
	distinctID, err := params.GetString("capture", "distinct_id")
	if err != nil {
		return err
	}
	event, err := params.GetString("capture", "event")
	if err != nil {
		return err
	}
	req := harness.CaptureRequest{DistinctID: distinctID, Event: event}
	if props := params.GetMap("properties"); props != nil {
		req.Properties = map[string]any(props)
	}
	if ts := params.GetStringDefault("timestamp", ""); ts != "" {
		req.Timestamp = ts
	}
	_, err = tc.Adapter().Capture(ctx, req)
	return err
}

// captureMultipleAction performs count captures from one params template.
// Only top-level string values of the template are formatted with the
// zero-based iteration index (placeholder "{index}"); nested maps/slices
// are passed through unchanged.
func captureMultipleAction(ctx context.Context, params harness.Params, tc Context) error {
	count, err := params.GetInt("capture_multiple", "count")
	if err != nil {
		return err
	}
	template := params.GetMap("params")
	if template == nil {
		return &harness.MissingParamError{Action: "capture_multiple", Field: "params"}
	}

	for i := 0; i < count; i++ {
		instance := templateFor(template, i)
		distinctID, err := instance.GetString("capture_multiple", "distinct_id")
		if err != nil {
			return err
		}
		event, err := instance.GetString("capture_multiple", "event")
		if err != nil {
			return err
		}
		req := harness.CaptureRequest{DistinctID: distinctID, Event: event}
		if props := instance.GetMap("properties"); props != nil {
			req.Properties = map[string]any(props)
		}
		if _, err := tc.Adapter().Capture(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func templateFor(template harness.Params, index int) harness.Params {
	out := make(harness.Params, len(template))
	for k, v := range template {
		if s, ok := asString(v); ok {
			out[k] = formatIndex(s, index)
			continue
		}
		out[k] = v
	}
	return out
}

func flushAction(ctx context.Context, _ harness.Params, tc Context) error {
	return tc.Adapter().Flush(ctx)
}

func resetAction(ctx context.Context, _ harness.Params, tc Context) error {
	return tc.Reset(ctx)
}
