package grpc

import (
	"context"

	"secwaf/waf"
)

type mockWafServer struct {
	evalRequestCalled int
	lastRequest       waf.HTTPRequest
	lastBody          []byte
	verdict           waf.Verdict
	err               error
}

func (m *mockWafServer) EvalRequest(ctx context.Context, req waf.HTTPRequest) (waf.Verdict, error) {
	m.evalRequestCalled++
	m.lastRequest = req
	buf := make([]byte, 1024)
	n, _ := req.BodyReader().Read(buf)
	m.lastBody = buf[:n]
	return m.verdict, m.err
}
