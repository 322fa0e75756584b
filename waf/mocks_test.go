package waf

import (
	"bytes"
	"io"
	"time"

	"secwaf/rules"

	"github.com/rs/zerolog"
)

type mockHeaderPair struct {
	k string
	v string
}

func (h *mockHeaderPair) Key() string   { return h.k }
func (h *mockHeaderPair) Value() string { return h.v }

type mockWafHTTPRequest struct {
	method      string
	uri         string
	queryString string
	headers     []HeaderPair
	body        string
}

func (r *mockWafHTTPRequest) Method() string        { return r.method }
func (r *mockWafHTTPRequest) URI() string           { return r.uri }
func (r *mockWafHTTPRequest) QueryString() string   { return r.queryString }
func (r *mockWafHTTPRequest) RemoteAddr() string    { return "10.0.0.1" }
func (r *mockWafHTTPRequest) Headers() []HeaderPair { return r.headers }
func (r *mockWafHTTPRequest) BodyReader() io.Reader { return bytes.NewBufferString(r.body) }
func (r *mockWafHTTPRequest) BodyInMemory() bool    { return true }
func (r *mockWafHTTPRequest) TransactionID() string { return "abc" }

type mockRequestBodyParser struct {
	parseCalled int
	fields      [][]byte
	err         error
}

func (m *mockRequestBodyParser) Parse(logger zerolog.Logger, req RequestBodyParserHTTPRequest, argsRules *rules.RuleSet, ctx *rules.MatchContext, cb ParsedBodyFieldCb) (err error) {
	m.parseCalled++
	for _, f := range m.fields {
		if err = cb(URLEncodedContent, "", f); err != nil || ctx.Matched {
			return
		}
	}
	return m.err
}

func (m *mockRequestBodyParser) LengthLimits() LengthLimits {
	return LengthLimits{MaxLengthTotal: 1234, MaxPostArgsLength: 100}
}

// mockArgsScanner scans the whole args as one field.
type mockArgsScanner struct {
	scanArgsCalled     int
	err                error
	setProcessingError string
}

func (m *mockArgsScanner) ScanArgs(logger zerolog.Logger, method string, args []byte, argsRules *rules.RuleSet, ctx *rules.MatchContext) (fieldCount int, err error) {
	m.scanArgsCalled++
	if m.setProcessingError != "" {
		ctx.SetProcessingError(m.setProcessingError)
	}
	if m.err != nil {
		return 0, m.err
	}
	return 1, rules.Evaluate(args, argsRules, ctx)
}

type mockResultsLogger struct {
	ruleMatched             []int
	decisions               []Decision
	totalBytesLimitExceeded []int
	processingErrors        []Stage
}

func (l *mockResultsLogger) RuleMatched(request ResultsLoggerHTTPRequest, match *rules.MatchContext, decision Decision) {
	l.ruleMatched = append(l.ruleMatched, match.RuleID)
	l.decisions = append(l.decisions, decision)
}

func (l *mockResultsLogger) TotalBytesLimitExceeded(request ResultsLoggerHTTPRequest, limit int) {
	l.totalBytesLimitExceeded = append(l.totalBytesLimitExceeded, limit)
}

func (l *mockResultsLogger) ProcessingError(request ResultsLoggerHTTPRequest, stage Stage, err error) {
	l.processingErrors = append(l.processingErrors, stage)
}

type mockMetrics struct {
	evaluated        []Decision
	ruleMatched      []int
	processingErrors []Stage
}

func (m *mockMetrics) RequestEvaluated(decision Decision, duration time.Duration) {
	m.evaluated = append(m.evaluated, decision)
}

func (m *mockMetrics) RuleMatched(ruleID int, builtin bool) {
	m.ruleMatched = append(m.ruleMatched, ruleID)
}

func (m *mockMetrics) ProcessingError(stage Stage) {
	m.processingErrors = append(m.processingErrors, stage)
}

func (m *mockMetrics) MultipartIrregularity(kind string) {}
