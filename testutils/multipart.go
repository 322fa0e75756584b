package testutils

import "strings"

// CRLF converts all line endings in s to CRLF. Handy for writing multipart bodies as raw string literals.
func CRLF(s string) string {
	return strings.Replace(strings.Replace(s, "\r", "", -1), "\n", "\r\n", -1)
}
