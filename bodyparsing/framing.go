package bodyparsing

import "github.com/rs/zerolog"

// Framing records deviations from the strict multipart layout which are not anomalies by themselves, but are useful when debugging evasion attempts.
type Framing struct {
	Completed            bool // The terminating boundary and its CRLF were seen.
	DataBefore           bool
	DataAfter            bool
	HeaderFolding        bool
	InvalidHeaderFolding bool
	LfLine               bool // A line ended with a bare LF.
	UnmatchedBoundary    bool // Something started like a boundary, but was not one.
	Boundaries           int
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (f Framing) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("completed", f.Completed).
		Int("boundaries", f.Boundaries).
		Bool("dataBefore", f.DataBefore).
		Bool("dataAfter", f.DataAfter).
		Bool("headerFolding", f.HeaderFolding).
		Bool("invalidHeaderFolding", f.InvalidHeaderFolding).
		Bool("lfLine", f.LfLine).
		Bool("unmatchedBoundary", f.UnmatchedBoundary)
}

// Irregularities names each deviation found, in a fixed order. A body that follows the layout has none.
func (f Framing) Irregularities() (kinds []string) {
	if !f.Completed {
		kinds = append(kinds, "incomplete")
	}
	if f.DataBefore {
		kinds = append(kinds, "data_before")
	}
	if f.DataAfter {
		kinds = append(kinds, "data_after")
	}
	if f.HeaderFolding {
		kinds = append(kinds, "header_folding")
	}
	if f.InvalidHeaderFolding {
		kinds = append(kinds, "invalid_header_folding")
	}
	if f.LfLine {
		kinds = append(kinds, "lf_line")
	}
	if f.UnmatchedBoundary {
		kinds = append(kinds, "unmatched_boundary")
	}
	return
}

type framingState int

// States for the state machine in auditFraming.
const (
	inContent framingState = iota
	afterDash1
	inBoundary
	afterBoundaryCr
	headerLineStart
	inHeaderLine
	afterHeaderCr
	afterEmptyLineCr
	afterFinalDash1
	afterFinalDash2
	afterFinalCr
	afterFinal
)

// auditFraming runs a byte level state machine over a multipart body.
func auditFraming(body []byte, boundary string) (f Framing) {
	state := inContent
	boundaryPos := 0

	// notBoundary is called when bytes that looked like the start of a boundary turned out to be content.
	notBoundary := func(partial bool) {
		if partial {
			f.UnmatchedBoundary = true
		}
		if f.Boundaries == 0 {
			f.DataBefore = true
		}
		state = inContent
	}

	for _, c := range body {
		switch state {

		case inContent:
			if c == '-' {
				state = afterDash1
				continue
			}
			if f.Boundaries == 0 {
				f.DataBefore = true
			}

		case afterDash1:
			if c == '-' {
				state = inBoundary
				boundaryPos = 0
				continue
			}
			notBoundary(false)

		case inBoundary:
			if boundaryPos < len(boundary) {
				if c != boundary[boundaryPos] {
					notBoundary(true)
					continue
				}
				boundaryPos++
				continue
			}

			switch c {
			case '\r':
				state = afterBoundaryCr
			case '\n':
				f.Boundaries++
				f.LfLine = true
				state = headerLineStart
			case '-':
				state = afterFinalDash1
			default:
				notBoundary(true)
			}

		case afterBoundaryCr:
			if c == '\n' {
				f.Boundaries++
				state = headerLineStart
				continue
			}
			notBoundary(true)

		case headerLineStart:
			switch c {
			case '\r':
				state = afterEmptyLineCr
			case '\n':
				f.LfLine = true
				state = inContent
			case ' ', '\t':
				f.HeaderFolding = true
				state = inHeaderLine
			case '\v', '\f':
				f.HeaderFolding = true
				f.InvalidHeaderFolding = true
				state = inHeaderLine
			default:
				state = inHeaderLine
			}

		case inHeaderLine:
			if c == '\r' {
				state = afterHeaderCr
			} else if c == '\n' {
				f.LfLine = true
				state = headerLineStart
			}

		case afterHeaderCr:
			if c == '\n' {
				state = headerLineStart
				continue
			}
			f.LfLine = true
			state = inHeaderLine

		case afterEmptyLineCr:
			if c == '\n' {
				// End of part headers.
				state = inContent
				continue
			}
			f.LfLine = true
			state = inHeaderLine

		case afterFinalDash1:
			if c == '-' {
				state = afterFinalDash2
				continue
			}
			notBoundary(true)

		case afterFinalDash2:
			switch c {
			case '\r':
				state = afterFinalCr
			case '\n':
				f.LfLine = true
				state = afterFinal
			default:
				notBoundary(true)
			}

		case afterFinalCr:
			if c == '\n' {
				state = afterFinal
				continue
			}
			notBoundary(true)

		case afterFinal:
			f.DataAfter = true
		}
	}

	// A body ending right after "--boundary--" is complete as well.
	f.Completed = state == afterFinal || state == afterFinalDash2
	return
}
