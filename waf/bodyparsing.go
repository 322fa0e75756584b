package waf

import (
	"errors"
	"io"

	"secwaf/rules"

	"github.com/rs/zerolog"
)

// ParsedBodyFieldCb is called for each parsed body field that is ready to be scanned by the body rules.
type ParsedBodyFieldCb = func(contentType ContentType, fieldName string, data []byte) error

// RequestBodyParser parses HTTP request bodies.
// Structural anomalies found while parsing are raised into ctx. Urlencoded bodies are scanned with argsRules.
type RequestBodyParser interface {
	Parse(logger zerolog.Logger, req RequestBodyParserHTTPRequest, argsRules *rules.RuleSet, ctx *rules.MatchContext, cb ParsedBodyFieldCb) error
	LengthLimits() LengthLimits
}

// ArgsScanner splits urlencoded arguments, such as the query string, and scans them.
type ArgsScanner interface {
	ScanArgs(logger zerolog.Logger, method string, args []byte, argsRules *rules.RuleSet, ctx *rules.MatchContext) (fieldCount int, err error)
}

// RequestBodyParserHTTPRequest represents an HTTP request to be evaluated by RequestBodyParser.
type RequestBodyParserHTTPRequest interface {
	Method() string
	Headers() []HeaderPair
	BodyReader() io.Reader
	BodyInMemory() bool
}

// ContentType of the body field being parsed.
type ContentType int

// ContentTypes available.
const (
	_ ContentType = iota
	MultipartFormDataContent
	URLEncodedContent
)

func (c ContentType) String() string {
	switch c {
	case MultipartFormDataContent:
		return "multipart/form-data"
	case URLEncodedContent:
		return "application/x-www-form-urlencoded"
	}
	return "unknown"
}

// LengthLimits states limitations we will enforce regarding the lengths of different parts of the request.
type LengthLimits struct {
	MaxLengthTotal    int // Max number of body bytes read.
	MaxPostArgsLength int // Max length of an application/x-www-form-urlencoded body.
}

// DefaultLengthLimits are used when nothing else is configured.
var DefaultLengthLimits = LengthLimits{
	MaxLengthTotal:    1024 * 1024 * 8, // 8 MiB
	MaxPostArgsLength: 1024 * 1024,     // 1 MiB
}

// ErrTotalBytesLimitExceeded is returned when the total request body length limit was exceeded.
var ErrTotalBytesLimitExceeded = errors.New("total request length limit exceeded")

// ErrPostArgsTooLong is returned when an urlencoded body is longer than LengthLimits.MaxPostArgsLength.
var ErrPostArgsTooLong = errors.New("urlencoded request body too long")

// ErrBodyNotInMemory is returned when the request body cannot be inspected as a whole.
var ErrBodyNotInMemory = errors.New("request body is not in memory")

// ErrNoContentType is returned when a request body has no content type or no content, and this was not raised as an anomaly.
var ErrNoContentType = errors.New("request body has no content type or is empty")
