package encoding

// Unescape decodes the percent-escapes of b in place.
// It returns the length of the decoded content, which is always <= len(b), and how many NUL bytes the decoding produced.
// Escapes that are not followed by two hex digits are left as is.
func Unescape(b []byte) (n int, nullBytes int) {
	// States for the state machine below
	type urlUnescapeState int
	const (
		_ urlUnescapeState = iota
		notInEscape
		char1InEscape // This means we've have so far seen something like %
		char2InEscape // This means we've have so far seen something like %2
	)
	state := notInEscape

	for i := 0; i < len(b); i++ {
		c := b[i]
		switch state {
		case notInEscape:
			if c == '%' {
				state = char1InEscape
			} else {
				b[n] = c
				n++
			}
		case char1InEscape:
			if isHexChar(c) {
				state = char2InEscape
			} else {
				// This was not valid URL encoding, so we will just leave the bytes as is.
				b[n] = b[i-1]
				b[n+1] = c
				n += 2
				state = notInEscape
			}
		case char2InEscape:
			if isHexChar(c) {
				d := unhex(b[i-1])<<4 | unhex(c)
				if d == 0 {
					nullBytes++
				}
				b[n] = d
				n++
			} else {
				b[n] = b[i-2]
				b[n+1] = b[i-1]
				b[n+2] = c
				n += 3
			}
			state = notInEscape
		}
	}

	// Did the span end with an unfinished escape sequence?
	if state == char1InEscape {
		b[n] = b[len(b)-1]
		n++
	} else if state == char2InEscape {
		b[n] = b[len(b)-2]
		b[n+1] = b[len(b)-1]
		n += 2
	}

	return
}

func isHexChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Copied from Go's standard library net/url/url.go.
func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
