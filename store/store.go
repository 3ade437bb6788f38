// Package store implements the recorded-request store: the mutex-guarded,
// append-only log of HTTP hits the mock ingest server has received, plus
// the FIFO of pre-programmed responses it hands out.
//
// The store is the only piece of mutable state the harness shares between
// goroutines: every field access goes through the single mutex in
// MemStore, and GetAll hands back an independent copy so callers can
// inspect a consistent snapshot without holding the lock.
package store

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// Controller is the subset of Store the test context and the executor's
// actions program against: inspecting recorded traffic and arranging the
// response programme. It is satisfied both by a MemStore addressed
// in-process and by a control-plane HTTP client talking to a standalone
// mock server (see mockserver.RemoteController) — the executor never needs
// to know which.
type Controller interface {
	GetAll() []harness.RecordedRequest
	Clear()
	Program(responses []harness.MockResponse)
	SetDefault(resp harness.MockResponse)
	Reset()
}

// Store extends Controller with Record, the operation only the mock
// server's own HTTP handlers perform.
type Store interface {
	Controller
	Record(method, path string, headers http.Header, query map[string]string, body []byte) harness.RecordedRequest
}

// MemStore is the in-memory implementation of Store.
type MemStore struct {
	mu       sync.Mutex
	requests []harness.RecordedRequest
	queue    []harness.MockResponse
	def      harness.MockResponse
}

// New returns an empty MemStore with the default response {200, {}, ""}.
func New() *MemStore {
	return &MemStore{def: harness.DefaultMockResponse()}
}

// Record normalises and appends one incoming HTTP hit, dequeues (or
// clones the default) response for it, and returns the fully populated
// RecordedRequest — including the response that was chosen, so the HTTP
// handler can relay it verbatim.
func (s *MemStore) Record(method, path string, headers http.Header, query map[string]string, body []byte) harness.RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	rr := harness.RecordedRequest{
		TimestampMS: time.Now().UnixMilli(),
		Method:      method,
		Path:        path,
		Headers:     headers.Clone(),
		QueryParams: query,
		BodyRaw:     append([]byte(nil), body...),
	}

	decoded, ok := decompressBody(headers, body)
	if ok {
		rr.BodyDecompressed = decoded
		rr.HasBody = true
		rr.ParsedEvents = parseEvents(decoded)
	}

	var resp harness.MockResponse
	if len(s.queue) > 0 {
		resp, s.queue = s.queue[0], s.queue[1:]
	} else {
		resp = s.def
	}
	rr.ResponseStatus = resp.StatusCode
	rr.ResponseHeaders = cloneHeaderMap(resp.Headers)
	rr.ResponseBody = resp.Body

	s.requests = append(s.requests, rr)
	return rr
}

// GetAll returns an ordered snapshot of every request recorded so far.
func (s *MemStore) GetAll() []harness.RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]harness.RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Clear empties the request log, leaving the response programme untouched.
func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// Program replaces the response programme wholesale.
func (s *MemStore) Program(responses []harness.MockResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append([]harness.MockResponse(nil), responses...)
}

// SetDefault replaces the response handed out once the programme drains.
func (s *MemStore) SetDefault(resp harness.MockResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = resp
}

// Reset empties the log and the programme and restores the default
// response, atomically with respect to any in-flight Record.
func (s *MemStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.queue = nil
	s.def = harness.DefaultMockResponse()
}

func cloneHeaderMap(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// decompressBody normalises an incoming body: gzip-then-utf8 if
// Content-Encoding says so, plain utf8 otherwise. Any failure along the
// way yields (_, false): the hit is still recorded, just without a
// decoded body.
func decompressBody(headers http.Header, body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	if isGzip(headers) {
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return "", false
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return "", false
		}
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	}
	if !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}

func isGzip(headers http.Header) bool {
	return headers.Get("Content-Encoding") == "gzip"
}

// parseEvents derives the parsed_events list from a decoded JSON body,
// trying each shape in this order:
//  1. a JSON array of objects: those objects verbatim;
//  2. a JSON object with a "batch" array: that array;
//  3. a JSON object with a "data" array: that array;
//  4. any other JSON object: a singleton list containing it;
//  5. anything else: absent.
func parseEvents(decoded string) []map[string]any {
	var soup any
	if err := json.Unmarshal([]byte(decoded), &soup); err != nil {
		return nil
	}
	switch v := soup.(type) {
	case []any:
		return objectsOf(v)
	case map[string]any:
		if arr, ok := v["batch"].([]any); ok {
			return objectsOf(arr)
		}
		if arr, ok := v["data"].([]any); ok {
			return objectsOf(arr)
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

func objectsOf(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
