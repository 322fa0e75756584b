package rules

import (
	"bytes"
	"fmt"
	"regexp"

	"rsc.io/binaryregexp"
)

// Regexp is a compiled rule pattern.
// Patterns that need to match raw non-UTF-8 bytes are compiled with binaryregexp, all others with the Go regexp package.
type Regexp struct {
	expr string
	std  *regexp.Regexp
	bin  *binaryregexp.Regexp
}

// CompileRegexp compiles a rule pattern. PCRE possessive quantifiers are accepted and treated as their greedy equivalent.
func CompileRegexp(expr string) (rx *Regexp, err error) {
	clean := removePcrePossessiveQuantifier(expr)
	binary := containsHexEscapedBytes(clean)

	var b bytes.Buffer
	for i := 0; i < len(clean); i++ {
		// Printable ASCII is written as is, anything else as \xNN.
		if ' ' <= clean[i] && clean[i] <= '~' {
			b.WriteByte(clean[i])
		} else {
			fmt.Fprintf(&b, "\\x%02X", clean[i])
			binary = true
		}
	}
	clean = b.String()

	rx = &Regexp{expr: expr}
	if !binary {
		rx.std, err = regexp.Compile(clean)
		if err != nil {
			err = fmt.Errorf("failed to compile regexp %q: %w", expr, err)
			return nil, err
		}
		return
	}

	rx.bin, err = binaryregexp.Compile(clean)
	if err != nil {
		err = fmt.Errorf("failed to compile binary regexp %q: %w", expr, err)
		return nil, err
	}

	return
}

// Match reports whether b contains any match of the pattern.
func (r *Regexp) Match(b []byte) bool {
	if r.std != nil {
		return r.std.Match(b)
	}
	return r.bin.Match(b)
}

// String returns the pattern as it was given to CompileRegexp.
func (r *Regexp) String() string {
	return r.expr
}

var hexEscapeRegexp = regexp.MustCompile(`((^|[^\\])(\\\\)*)\\x([0-9a-fA-F]{2})`)

func containsHexEscapedBytes(s string) bool {
	return hexEscapeRegexp.MatchString(s)
}
