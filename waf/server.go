package waf

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"secwaf/rules"

	"github.com/rs/zerolog"
)

// Server is the top level interface to the WAF.
type Server interface {
	EvalRequest(ctx context.Context, req HTTPRequest) (v Verdict, err error)
}

type serverImpl struct {
	logger                 zerolog.Logger
	ruleSets               RuleSets
	requestBodyParser      RequestBodyParser
	argsScanner            ArgsScanner
	resultsLogger          ResultsLogger
	metrics                Metrics
	blockOnProcessingError bool
}

// ServerOption configures NewServer.
type ServerOption func(*serverImpl)

// WithMetrics makes the server report to m.
func WithMetrics(m Metrics) ServerOption {
	return func(s *serverImpl) {
		s.metrics = m
	}
}

// WithBlockOnProcessingError sets whether a request that could not be fully inspected, and did not match any rule, is blocked. Default is true.
func WithBlockOnProcessingError(block bool) ServerOption {
	return func(s *serverImpl) {
		s.blockOnProcessingError = block
	}
}

// NewServer creates a new top level WAF.
func NewServer(logger zerolog.Logger, rs RuleSets, rbp RequestBodyParser, as ArgsScanner, rl ResultsLogger, opts ...ServerOption) Server {
	s := &serverImpl{
		logger:                 logger,
		ruleSets:               rs,
		requestBodyParser:      rbp,
		argsScanner:            as,
		resultsLogger:          rl,
		metrics:                nopMetrics{},
		blockOnProcessingError: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *serverImpl) EvalRequest(ctx context.Context, req HTTPRequest) (v Verdict, err error) {
	// Create a sub-logger with a transaction ID
	logger := s.logger.With().Str("txid", req.TransactionID()).Logger()
	logger.Info().Str("method", req.Method()).Str("uri", req.URI()).Msg("WAF got request")

	startTime := time.Now()
	m := rules.NewMatchContext()
	v.Match = m

	defer func() {
		if err != nil {
			return
		}

		v.Decision = decisionFromMatch(m)
		if v.Decision == Pass && v.ProcessingError != nil && s.blockOnProcessingError {
			v.Decision = Block
		}

		if m.Matched {
			s.metrics.RuleMatched(m.RuleID, m.Builtin)
			if m.Action.Log {
				s.resultsLogger.RuleMatched(req, m, v.Decision)
			}
		}

		timeTaken := time.Since(startTime)
		s.metrics.RequestEvaluated(v.Decision, timeTaken)
		logger.Info().Dur("timeTaken", timeTaken).Str("uri", req.URI()).Str("decision", v.Decision.String()).Msg("WAF completed request")
	}()

	stages := []struct {
		stage Stage
		run   func() error
	}{
		{HeaderStage, func() error { return s.scanHeaders(req, m) }},
		{URIStage, func() error { return rules.Evaluate([]byte(req.URI()), s.ruleSets.URI, m) }},
		{ArgsStage, func() error { return s.scanArgs(logger, req, m) }},
		{BodyStage, func() error { return s.scanBody(logger, req, m) }},
	}

	for _, st := range stages {
		if err = ctx.Err(); err != nil {
			err = fmt.Errorf("evaluation cancelled before %v stage: %w", st.stage, err)
			return
		}

		hadProcessingError := m.ProcessingError
		stageErr := st.run()
		if stageErr == nil && m.ProcessingError && !hadProcessingError {
			stageErr = errors.New(m.ProcessingErrorMsg)
		}

		if stageErr != nil {
			s.processingError(logger, req, st.stage, stageErr)
			if v.ProcessingError == nil {
				v.ProcessingError = fmt.Errorf("%v stage: %w", st.stage, stageErr)
			}
		}

		if m.Matched {
			logger.Debug().Str("stage", st.stage.String()).Int("ruleID", m.RuleID).Msg("Rule matched")
			break
		}
	}

	return
}

func (s *serverImpl) scanHeaders(req HTTPRequest, m *rules.MatchContext) (err error) {
	if s.ruleSets.Header.Len() == 0 {
		return
	}

	for _, h := range req.Headers() {
		err = rules.Evaluate([]byte(h.Value()), s.ruleSets.Header, m)
		if err != nil || m.Matched {
			return
		}
	}

	return
}

func (s *serverImpl) scanArgs(logger zerolog.Logger, req HTTPRequest, m *rules.MatchContext) (err error) {
	if s.ruleSets.Args.Len() == 0 {
		return
	}

	_, err = s.argsScanner.ScanArgs(logger, req.Method(), []byte(req.QueryString()), s.ruleSets.Args, m)
	return
}

func (s *serverImpl) scanBody(logger zerolog.Logger, req HTTPRequest, m *rules.MatchContext) (err error) {
	if req.Method() != http.MethodPost && req.Method() != http.MethodPut {
		return
	}

	err = s.requestBodyParser.Parse(logger, req, s.ruleSets.Args, m, func(contentType ContentType, fieldName string, data []byte) error {
		logger.Debug().Str("contentType", contentType.String()).Str("field", fieldName).Msg("Scanning body field")

		field := append([]byte{}, data...)
		rules.ReplaceCRLF(field)
		return rules.Evaluate(field, s.ruleSets.Body, m)
	})

	if errors.Is(err, ErrNoContentType) {
		logger.Debug().Err(err).Msg("Body not scanned")
		err = nil
	}

	return
}

func (s *serverImpl) processingError(logger zerolog.Logger, req HTTPRequest, stage Stage, err error) {
	logger.Warn().Err(err).Str("stage", stage.String()).Msg("Processing error")
	s.metrics.ProcessingError(stage)

	if errors.Is(err, ErrTotalBytesLimitExceeded) {
		s.resultsLogger.TotalBytesLimitExceeded(req, s.requestBodyParser.LengthLimits().MaxLengthTotal)
		return
	}

	s.resultsLogger.ProcessingError(req, stage, err)
}
