package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"

	"secwaf/waf"

	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server accepts gRPC connections and sends requests to a WAF.
type Server interface {
	Serve(lis net.Listener) error
	GracefulStop()
}

type serverImpl struct {
	logger     zerolog.Logger
	ws         waf.Server
	maxConns   int
	grpcServer *grpc.Server
}

// NewServer creates a new gRPC server. If maxConns is positive, at most maxConns connections are accepted at once.
func NewServer(logger zerolog.Logger, ws waf.Server, maxConns int, opts ...grpc.ServerOption) Server {
	s := &serverImpl{
		logger:     logger,
		ws:         ws,
		maxConns:   maxConns,
		grpcServer: grpc.NewServer(append([]grpc.ServerOption{grpc.ForceServerCodec(codec{})}, opts...)...),
	}
	RegisterInspectorServer(s.grpcServer, s)
	return s
}

func (s *serverImpl) Serve(lis net.Listener) error {
	if s.maxConns > 0 {
		lis = netutil.LimitListener(lis, s.maxConns)
	}

	s.logger.Info().Str("address", lis.Addr().String()).Int("maxConns", s.maxConns).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

func (s *serverImpl) GracefulStop() {
	s.grpcServer.GracefulStop()
}

func (s *serverImpl) Inspect(ctx context.Context, req *InspectRequest) (*InspectResponse, error) {
	if req.Method == "" || req.URI == "" {
		return nil, status.Error(codes.InvalidArgument, "method and uri are required")
	}

	if req.TransactionID == "" {
		req.TransactionID = fmt.Sprintf("%016x", rand.Uint64())
	}

	v, err := s.ws.EvalRequest(ctx, req.AsWafRequest())
	if err != nil {
		s.logger.Warn().Err(err).Str("txid", req.TransactionID).Msg("Request evaluation failed")
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, status.Error(codes.DeadlineExceeded, err.Error())
		case errors.Is(err, context.Canceled):
			return nil, status.Error(codes.Canceled, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}

	return NewInspectResponse(v), nil
}
