package waf

import (
	"io"
)

// HeaderPair represents a header line in an HTTP request.
type HeaderPair interface {
	Key() string
	Value() string
}

// HTTPRequest represents an HTTP request to be evaluated by the WAF.
type HTTPRequest interface {
	Method() string
	URI() string
	QueryString() string
	RemoteAddr() string
	Headers() []HeaderPair
	BodyReader() io.Reader

	// BodyInMemory is false if the host spooled the body somewhere it cannot be read back from in full.
	BodyInMemory() bool
	TransactionID() string
}
