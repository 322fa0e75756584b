package bodyparsing

import (
	"bytes"
	"io"
	"testing"
	"time"

	"secwaf/anomaly"
	"secwaf/rules"
	"secwaf/waf"

	"github.com/stretchr/testify/require"
)

type mockHeaderPair struct {
	k string
	v string
}

func (h *mockHeaderPair) Key() string   { return h.k }
func (h *mockHeaderPair) Value() string { return h.v }

type mockRequest struct {
	method      string
	headers     []waf.HeaderPair
	body        io.Reader
	notInMemory bool
}

func (r *mockRequest) Method() string            { return r.method }
func (r *mockRequest) Headers() []waf.HeaderPair { return r.headers }
func (r *mockRequest) BodyReader() io.Reader     { return r.body }
func (r *mockRequest) BodyInMemory() bool        { return !r.notInMemory }

func newMockRequest(method string, contentType string, body string) *mockRequest {
	r := &mockRequest{method: method, body: bytes.NewBufferString(body)}
	if contentType != "" {
		r.headers = append(r.headers, &mockHeaderPair{k: "Content-Type", v: contentType})
	}
	return r
}

type mockMetrics struct {
	irregularities []string
}

func (m *mockMetrics) RequestEvaluated(decision waf.Decision, duration time.Duration) {}
func (m *mockMetrics) RuleMatched(ruleID int, builtin bool)                          {}
func (m *mockMetrics) ProcessingError(stage waf.Stage)                               {}
func (m *mockMetrics) MultipartIrregularity(kind string) {
	m.irregularities = append(m.irregularities, kind)
}

type bodyFieldCall struct {
	contentType waf.ContentType
	fieldName   string
	data        string
}

type mockFieldCb struct {
	calls []bodyFieldCall
	err   error
}

func (m *mockFieldCb) cb(contentType waf.ContentType, fieldName string, data []byte) error {
	m.calls = append(m.calls, bodyFieldCall{contentType, fieldName, string(data)})
	return m.err
}

func defaultCatalogue(t *testing.T) *anomaly.Catalogue {
	c, err := anomaly.NewCatalogue(anomaly.DefaultDefinitions()...)
	require.NoError(t, err)
	return c
}

// catalogueWithout returns the default catalogue, with the given anomalies inactive.
func catalogueWithout(t *testing.T, ids ...anomaly.ID) *anomaly.Catalogue {
	defs := anomaly.DefaultDefinitions()
	for i := range defs {
		for _, id := range ids {
			if defs[i].ID == id {
				defs[i].Active = false
			}
		}
	}

	c, err := anomaly.NewCatalogue(defs...)
	require.NoError(t, err)
	return c
}

func literalRuleSet(t *testing.T, target rules.Target, id int, literal string) *rules.RuleSet {
	rs, err := rules.NewRuleSet(target, []rules.Rule{rules.NewLiteralRule(id, literal, rules.Action{Block: true, Log: true})})
	require.NoError(t, err)
	return rs
}
