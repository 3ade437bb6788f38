// Package harness holds the value types and error kinds shared by every
// part of the conformance harness: the mock ingest server, the adapter
// client, the action registry, the contract loader and its executor.
//
// Keeping these in one leaf package (it imports no other package of this
// module) avoids import cycles between, say, actions and executor, both
// of which need to talk about a RecordedRequest.
package harness

import "net/http"

// SDKType tags which flavour of adapter a test run is exercising (server,
// client, mobile, ...), used to filter tests whose sdk_types list doesn't
// include the active tag.
type SDKType = string

// DefaultSDKType is used when a test runner does not specify one, matching
// the original source's contract_suite.py default.
const DefaultSDKType SDKType = "server"

// InitConfig is the payload sent to an adapter's POST /init.
//
// A knob left at its zero value is still sent: omission is expressed by
// the pointer fields being nil, not by the value being zero. The absent
// fields are exactly the ones left nil.
type InitConfig struct {
	APIKey            string `json:"api_key"`
	Host              string `json:"host"`
	FlushAt           *int   `json:"flush_at,omitempty"`
	FlushIntervalMS   *int   `json:"flush_interval_ms,omitempty"`
	MaxRetries        *int   `json:"max_retries,omitempty"`
	EnableCompression *bool  `json:"enable_compression,omitempty"`
}

// CaptureRequest is the payload sent to an adapter's POST /capture.
type CaptureRequest struct {
	DistinctID string         `json:"distinct_id"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// CaptureResponse is returned by an adapter's POST /capture: acknowledgement
// plus the event UUID the SDK itself minted for the captured event.
type CaptureResponse struct {
	Success bool   `json:"success"`
	UUID    string `json:"uuid"`
}

// HealthResponse is returned by an adapter's GET /health.
type HealthResponse struct {
	SDKName        string `json:"sdk_name"`
	SDKVersion     string `json:"sdk_version"`
	AdapterVersion string `json:"adapter_version"`
}

// AdapterRequestRecord is one HTTP request the adapter itself believes it
// made, as reported in StateResponse.RequestsMade. It is the adapter's own
// view of its outbound traffic. It is decoded and exposed on StateResponse;
// no action in this module reads it.
type AdapterRequestRecord struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
}

// StateResponse is returned by an adapter's GET /state.
type StateResponse struct {
	PendingEvents       int                    `json:"pending_events"`
	TotalEventsCaptured int                    `json:"total_events_captured"`
	TotalEventsSent     int                    `json:"total_events_sent"`
	TotalRetries        int                    `json:"total_retries"`
	LastError           string                 `json:"last_error,omitempty"`
	RequestsMade        []AdapterRequestRecord `json:"requests_made,omitempty"`
}

// MockResponse describes a response the mock ingest server should hand
// back for one dequeued slot of its response programme (see Store).
type MockResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"`
}

// DefaultMockResponse is what a Store hands out once its programme has
// drained, and what a freshly reset Store starts with.
func DefaultMockResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusOK}
}

// RecordedRequest is one HTTP hit received by the mock ingest server,
// preserved verbatim together with the response that was sent back for it.
//
// RecordedRequest values are never mutated after Store.Record returns them;
// Store.GetAll hands out independent copies of the backing slice, not of
// the Header/QueryParams maps, so callers must treat them as read-only.
type RecordedRequest struct {
	TimestampMS       int64             `json:"timestamp_ms"`
	Method            string            `json:"method"`
	Path              string            `json:"path"`
	Headers           http.Header       `json:"headers"`
	QueryParams       map[string]string `json:"query_params"`
	BodyRaw           []byte            `json:"-"`
	BodyDecompressed  string            `json:"body_decompressed,omitempty"`
	HasBody           bool              `json:"-"`
	ParsedEvents      []map[string]any  `json:"parsed_events,omitempty"`
	ResponseStatus    int               `json:"response_status"`
	ResponseHeaders   map[string]string `json:"response_headers,omitempty"`
	ResponseBody      string            `json:"response_body,omitempty"`
}

// TestResult is the outcome of running a single contract test.
type TestResult struct {
	Name       string         `json:"name"`
	Passed     bool           `json:"passed"`
	DurationMS int64          `json:"duration_ms"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// TestSuiteResult tallies the TestResults of one suite.
type TestSuiteResult struct {
	Name    string       `json:"name"`
	Results []TestResult `json:"results"`
}

// Total is the number of tests run in the suite.
func (s TestSuiteResult) Total() int { return len(s.Results) }

// Passed is the number of tests in the suite that passed.
func (s TestSuiteResult) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed is the number of tests in the suite that failed.
func (s TestSuiteResult) Failed() int {
	return s.Total() - s.Passed()
}

// TestSummary aggregates every suite run in one invocation.
type TestSummary struct {
	Suites     []TestSuiteResult `json:"suites"`
	DurationMS int64             `json:"duration_ms"`
}

// AddSuite appends r to the summary.
func (s *TestSummary) AddSuite(r TestSuiteResult) {
	s.Suites = append(s.Suites, r)
}

// Total sums Total over every suite.
func (s TestSummary) Total() int {
	n := 0
	for _, suite := range s.Suites {
		n += suite.Total()
	}
	return n
}

// Passed sums Passed over every suite.
func (s TestSummary) Passed() int {
	n := 0
	for _, suite := range s.Suites {
		n += suite.Passed()
	}
	return n
}

// Failed sums Failed over every suite.
func (s TestSummary) Failed() int {
	return s.Total() - s.Passed()
}
