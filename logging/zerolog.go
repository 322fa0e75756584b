package logging

import (
	"secwaf/rules"
	"secwaf/waf"

	"github.com/rs/zerolog"
)

// NewZerologResultsLogger creates a results logger that creates log messages like the ones written to the results file, but just outputs them to Zerolog.
func NewZerologResultsLogger(logger zerolog.Logger) waf.ResultsLogger {
	return &zerologResultsLogger{logger: logger}
}

type zerologResultsLogger struct {
	logger zerolog.Logger
}

func (l *zerologResultsLogger) RuleMatched(request waf.ResultsLoggerHTTPRequest, match *rules.MatchContext, decision waf.Decision) {
	lg := newEntry(request, "")
	lg.setMatch(match, decision)
	p := lg.Properties

	ev := l.logger.Info().
		Str("txid", p.TransactionID).
		Str("uri", p.RequestURI).
		Str("ruleId", p.RuleID).
		Ints("ruleGroups", p.RuleGroups).
		Str("target", p.Details.Target).
		Str("data", p.Details.Data).
		Str("action", p.Action)
	if p.Anomaly != "" {
		ev = ev.Str("anomaly", p.Anomaly)
	}
	ev.Msg(p.Message)
}

func (l *zerologResultsLogger) TotalBytesLimitExceeded(request waf.ResultsLoggerHTTPRequest, limit int) {
	l.logger.Info().
		Str("txid", request.TransactionID()).
		Str("uri", request.URI()).
		Int("limit", limit).
		Msg("Request body length exceeded the limit")
}

func (l *zerologResultsLogger) ProcessingError(request waf.ResultsLoggerHTTPRequest, stage waf.Stage, err error) {
	l.logger.Warn().
		Err(err).
		Str("txid", request.TransactionID()).
		Str("uri", request.URI()).
		Str("stage", stage.String()).
		Msg("Request scanning error")
}
