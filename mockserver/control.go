package mockserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/PostHog/posthog-sdk-test-harness/harness"
)

// defaultControlTimeout bounds a single control-plane round trip made by
// RemoteController.
const defaultControlTimeout = 10 * time.Second

// wireRequest is the JSON representation of a harness.RecordedRequest sent
// across the control plane. Headers travel as a plain map (one value per
// key) since contract assertions only ever check a single header value.
type wireRequest struct {
	TimestampMS     int64             `json:"timestamp_ms"`
	Method          string            `json:"method"`
	Path            string            `json:"path"`
	Headers         map[string]string `json:"headers"`
	QueryParams     map[string]string `json:"query_params"`
	BodyDecompressed string           `json:"body_decompressed,omitempty"`
	HasBody         bool              `json:"has_body"`
	ParsedEvents    []map[string]any  `json:"parsed_events,omitempty"`
	ResponseStatus  int               `json:"response_status"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ResponseBody    string            `json:"response_body,omitempty"`
}

func toWire(r harness.RecordedRequest) wireRequest {
	headers := make(map[string]string, len(r.Headers))
	for k := range r.Headers {
		headers[k] = r.Headers.Get(k)
	}
	return wireRequest{
		TimestampMS:      r.TimestampMS,
		Method:           r.Method,
		Path:             r.Path,
		Headers:          headers,
		QueryParams:      r.QueryParams,
		BodyDecompressed: r.BodyDecompressed,
		HasBody:          r.HasBody,
		ParsedEvents:     r.ParsedEvents,
		ResponseStatus:   r.ResponseStatus,
		ResponseHeaders:  r.ResponseHeaders,
		ResponseBody:     r.ResponseBody,
	}
}

func fromWire(w wireRequest) harness.RecordedRequest {
	headers := make(http.Header, len(w.Headers))
	for k, v := range w.Headers {
		headers.Set(k, v)
	}
	return harness.RecordedRequest{
		TimestampMS:      w.TimestampMS,
		Method:           w.Method,
		Path:             w.Path,
		Headers:          headers,
		QueryParams:      w.QueryParams,
		BodyDecompressed: w.BodyDecompressed,
		HasBody:          w.HasBody,
		ParsedEvents:     w.ParsedEvents,
		ResponseStatus:   w.ResponseStatus,
		ResponseHeaders:  w.ResponseHeaders,
		ResponseBody:     w.ResponseBody,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGetRequests(w http.ResponseWriter, r *http.Request) {
	all := s.store.GetAll()
	wire := make([]wireRequest, len(all))
	for i, rr := range all {
		wire[i] = toWire(rr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": wire})
}

func (s *Server) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset()
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type configureBody struct {
	Responses []harness.MockResponse `json:"responses"`
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var body configureBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	s.store.Program(body.Responses)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// RemoteController is a store.Controller that talks to a standalone mock
// server's control plane over HTTP, for the out-of-process deployment
// mode.
type RemoteController struct {
	BaseURL string
	Client  *http.Client
}

// NewRemoteController returns a RemoteController addressing the control
// plane at baseURL (the mock server's own base URL).
func NewRemoteController(baseURL string) *RemoteController {
	return &RemoteController{BaseURL: baseURL, Client: &http.Client{Timeout: defaultControlTimeout}}
}

func (c *RemoteController) GetAll() []harness.RecordedRequest {
	resp, err := c.Client.Get(c.BaseURL + "/_control/requests")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	var out struct {
		Requests []wireRequest `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil
	}
	result := make([]harness.RecordedRequest, len(out.Requests))
	for i, w := range out.Requests {
		result[i] = fromWire(w)
	}
	return result
}

func (c *RemoteController) Clear() {
	c.post("/_control/requests/clear", nil)
}

func (c *RemoteController) Reset() {
	c.post("/_control/reset", nil)
}

func (c *RemoteController) Program(responses []harness.MockResponse) {
	data, _ := json.Marshal(configureBody{Responses: responses})
	c.post("/_control/configure", data)
}

// SetDefault has no direct control-plane endpoint; it replaces the
// response programme with resp as its single entry. That entry is
// consumed by the next recorded request; the remote store's default
// response itself is not changed.
func (c *RemoteController) SetDefault(resp harness.MockResponse) {
	c.Program([]harness.MockResponse{resp})
}

func (c *RemoteController) post(path string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
}
