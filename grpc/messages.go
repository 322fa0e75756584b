package grpc

import (
	"bytes"
	"io"

	"secwaf/anomaly"
	"secwaf/waf"
)

// HeaderPair is a single request header line.
type HeaderPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// InspectRequest is an HTTP request sent by a host server for inspection.
type InspectRequest struct {
	Method        string       `json:"method"`
	URI           string       `json:"uri"`
	QueryString   string       `json:"queryString,omitempty"`
	RemoteAddr    string       `json:"remoteAddr,omitempty"`
	Headers       []HeaderPair `json:"headers,omitempty"`
	Body          []byte       `json:"body,omitempty"`
	TransactionID string       `json:"transactionId,omitempty"`
}

// InspectResponse is the verdict for an InspectRequest.
type InspectResponse struct {
	Decision        string `json:"decision"`
	Matched         bool   `json:"matched"`
	RuleID          int    `json:"ruleId,omitempty"`
	Anomaly         string `json:"anomaly,omitempty"`
	Target          string `json:"target,omitempty"`
	Message         string `json:"message,omitempty"`
	MatchedString   string `json:"matchedString,omitempty"`
	GroupIDs        []int  `json:"groupIds,omitempty"`
	ProcessingError string `json:"processingError,omitempty"`
}

// Allowed is true unless the decision is to block the request.
func (r *InspectResponse) Allowed() bool {
	return r.Decision != waf.Block.String()
}

// NewInspectResponse converts a verdict to its wire form.
func NewInspectResponse(v waf.Verdict) *InspectResponse {
	r := &InspectResponse{Decision: v.Decision.String()}
	if v.ProcessingError != nil {
		r.ProcessingError = v.ProcessingError.Error()
	}

	m := v.Match
	if m == nil || !m.Matched {
		return r
	}

	r.Matched = true
	r.RuleID = m.RuleID
	r.Target = m.Target.String()
	r.Message = m.Action.Message
	r.MatchedString = string(m.MatchedString)
	r.GroupIDs = m.Action.GroupIDs
	if m.Builtin {
		r.Anomaly = anomaly.ID(m.RuleID).String()
	}
	return r
}

// AsWafRequest exposes r to the WAF. The body is treated as fully in memory.
func (r *InspectRequest) AsWafRequest() waf.HTTPRequest {
	return &wafHTTPRequestWrapper{r: r}
}

type wafHTTPRequestWrapper struct{ r *InspectRequest }

func (w *wafHTTPRequestWrapper) Method() string        { return w.r.Method }
func (w *wafHTTPRequestWrapper) URI() string           { return w.r.URI }
func (w *wafHTTPRequestWrapper) QueryString() string   { return w.r.QueryString }
func (w *wafHTTPRequestWrapper) RemoteAddr() string    { return w.r.RemoteAddr }
func (w *wafHTTPRequestWrapper) BodyReader() io.Reader { return bytes.NewReader(w.r.Body) }
func (w *wafHTTPRequestWrapper) BodyInMemory() bool    { return true }
func (w *wafHTTPRequestWrapper) TransactionID() string { return w.r.TransactionID }
func (w *wafHTTPRequestWrapper) Headers() []waf.HeaderPair {
	hh := make([]waf.HeaderPair, 0, len(w.r.Headers))
	for i := range w.r.Headers {
		hh = append(hh, &headerPairWrapper{h: &w.r.Headers[i]})
	}
	return hh
}

type headerPairWrapper struct{ h *HeaderPair }

func (w *headerPairWrapper) Key() string   { return w.h.Key }
func (w *headerPairWrapper) Value() string { return w.h.Value }
