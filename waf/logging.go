package waf

import "secwaf/rules"

// ResultsLogger is where the WAF writes high level customer facing results.
type ResultsLogger interface {
	RuleMatched(request ResultsLoggerHTTPRequest, match *rules.MatchContext, decision Decision)
	TotalBytesLimitExceeded(request ResultsLoggerHTTPRequest, limit int)
	ProcessingError(request ResultsLoggerHTTPRequest, stage Stage, err error)
}

// ResultsLoggerHTTPRequest represents an HTTP request to be logged by ResultsLogger.
type ResultsLoggerHTTPRequest interface {
	Method() string
	URI() string
	RemoteAddr() string
	TransactionID() string
}
