package executor

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// fakeAdapter is a test-only stand-in for a real vendor SDK's adapter: it
// speaks the same control protocol and performs its own batching and
// retry-with-backoff against the mock ingest server, so the full action
// pipeline can be exercised end to end without a real SDK.
type fakeAdapter struct {
	mu sync.Mutex

	host              string
	apiKey            string
	flushAt           int
	flushIntervalMS   int
	maxRetries        int
	enableCompression bool

	pending             []map[string]any
	totalCaptured       int
	totalSent           int
	totalRetries        int
	lastError           string
	requestsMade        []harness.AdapterRequestRecord
}

func newFakeAdapterServer() *httptest.Server {
	fa := &fakeAdapter{flushAt: 20, flushIntervalMS: 1000, maxRetries: 0}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", fa.handleHealth)
	mux.HandleFunc("/init", fa.handleInit)
	mux.HandleFunc("/capture", fa.handleCapture)
	mux.HandleFunc("/flush", fa.handleFlush)
	mux.HandleFunc("/state", fa.handleState)
	mux.HandleFunc("/reset", fa.handleReset)
	return httptest.NewServer(mux)
}

func (fa *fakeAdapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(harness.HealthResponse{SDKName: "fake-sdk", SDKVersion: "0.0.1", AdapterVersion: "0.0.1"})
}

func (fa *fakeAdapter) handleInit(w http.ResponseWriter, r *http.Request) {
	var cfg harness.InitConfig
	json.NewDecoder(r.Body).Decode(&cfg)

	fa.mu.Lock()
	fa.host = cfg.Host
	fa.apiKey = cfg.APIKey
	fa.flushAt = 20
	if cfg.FlushAt != nil {
		fa.flushAt = *cfg.FlushAt
	}
	fa.flushIntervalMS = 1000
	if cfg.FlushIntervalMS != nil {
		fa.flushIntervalMS = *cfg.FlushIntervalMS
	}
	fa.maxRetries = 0
	if cfg.MaxRetries != nil {
		fa.maxRetries = *cfg.MaxRetries
	}
	if cfg.EnableCompression != nil {
		fa.enableCompression = *cfg.EnableCompression
	}
	fa.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (fa *fakeAdapter) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req harness.CaptureRequest
	json.NewDecoder(r.Body).Decode(&req)

	id := uuid.New().String()
	event := map[string]any{
		"event":       req.Event,
		"distinct_id": req.DistinctID,
		"uuid":        id,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"properties":  req.Properties,
	}

	fa.mu.Lock()
	fa.pending = append(fa.pending, event)
	fa.totalCaptured++
	shouldFlush := len(fa.pending) >= fa.flushAt
	fa.mu.Unlock()

	if shouldFlush {
		fa.flushSync()
	}

	json.NewEncoder(w).Encode(map[string]any{"success": true, "uuid": id})
}

func (fa *fakeAdapter) handleFlush(w http.ResponseWriter, r *http.Request) {
	n := fa.flushSync()
	json.NewEncoder(w).Encode(map[string]any{"success": true, "events_flushed": n})
}

func (fa *fakeAdapter) handleState(w http.ResponseWriter, r *http.Request) {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	json.NewEncoder(w).Encode(harness.StateResponse{
		PendingEvents:       len(fa.pending),
		TotalEventsCaptured: fa.totalCaptured,
		TotalEventsSent:     fa.totalSent,
		TotalRetries:        fa.totalRetries,
		LastError:           fa.lastError,
		RequestsMade:        append([]harness.AdapterRequestRecord(nil), fa.requestsMade...),
	})
}

func (fa *fakeAdapter) handleReset(w http.ResponseWriter, r *http.Request) {
	fa.mu.Lock()
	fa.pending = nil
	fa.totalCaptured, fa.totalSent, fa.totalRetries = 0, 0, 0
	fa.lastError = ""
	fa.requestsMade = nil
	fa.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// flushSync drains pending into a single batch request against the mock,
// retrying with exponential backoff on non-200 up to maxRetries times.
// It is synchronous from the caller's perspective.
func (fa *fakeAdapter) flushSync() int {
	fa.mu.Lock()
	batch := fa.pending
	fa.pending = nil
	host, apiKey, maxRetries := fa.host, fa.apiKey, fa.maxRetries
	fa.mu.Unlock()

	if len(batch) == 0 || host == "" {
		return 0
	}

	body, _ := json.Marshal(map[string]any{"api_key": apiKey, "batch": batch})

	delay := 50 * time.Millisecond
	var status int
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
			fa.mu.Lock()
			fa.totalRetries++
			fa.mu.Unlock()
		}

		resp, err := http.Post(host+"/batch", "application/json", bytes.NewReader(body))
		if err != nil {
			fa.mu.Lock()
			fa.lastError = err.Error()
			fa.mu.Unlock()
			status = 0
			continue
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		status = resp.StatusCode

		fa.mu.Lock()
		fa.requestsMade = append(fa.requestsMade, harness.AdapterRequestRecord{Method: "POST", URL: host + "/batch", Status: status})
		fa.mu.Unlock()

		if status == http.StatusOK {
			fa.mu.Lock()
			fa.totalSent += len(batch)
			fa.lastError = ""
			fa.mu.Unlock()
			_ = data
			return len(batch)
		}
		fa.mu.Lock()
		fa.lastError = httpStatusError(status)
		fa.mu.Unlock()
	}

	return 0
}

func httpStatusError(status int) string {
	return "adapter received non-200 status " + http.StatusText(status) + " (" + strconv.Itoa(status) + ")"
}
