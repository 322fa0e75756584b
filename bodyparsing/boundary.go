package bodyparsing

import (
	"bytes"
	"strings"
)

// MaxBoundaryLength is the longest multipart boundary accepted, as per RFC 2046.
const MaxBoundaryLength = 70

const multipartFormData = "multipart/form-data"

// ParseBoundary extracts the boundary parameter from a multipart/form-data Content-Type header value.
// The boundary parameter must come first. Surrounding quotes are removed.
func ParseBoundary(contentType string) (boundary string, err error) {
	if len(contentType) < len(multipartFormData) || !strings.EqualFold(contentType[:len(multipartFormData)], multipartFormData) {
		err = ErrBoundary
		return
	}

	s := contentType[len(multipartFormData):]
	if !strings.HasPrefix(s, ";") {
		err = ErrBoundary
		return
	}

	s = strings.TrimLeft(s[1:], " \t")
	const param = "boundary="
	if len(s) < len(param) || !strings.EqualFold(s[:len(param)], param) {
		err = ErrBoundary
		return
	}

	s = s[len(param):]
	if i := strings.IndexByte(s, ';'); i != -1 {
		s = s[:i]
	}
	s = strings.TrimRight(s, " \t")

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if len(s) == 0 || len(s) > MaxBoundaryLength {
		err = ErrBoundary
		return
	}

	boundary = s
	return
}

// indexFold returns the index of the first ASCII case-insensitive occurrence of sep in s, or -1.
func indexFold(s, sep []byte) int {
	if len(sep) == 0 {
		return 0
	}

	for i := 0; i+len(sep) <= len(s); i++ {
		if lower(s[i]) == lower(sep[0]) && bytes.EqualFold(s[i:i+len(sep)], sep) {
			return i
		}
	}

	return -1
}

func hasPrefixFold(s []byte, prefix string) bool {
	return len(s) >= len(prefix) && bytes.EqualFold(s[:len(prefix)], []byte(prefix))
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
