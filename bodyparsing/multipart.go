package bodyparsing

import (
	"bytes"
	"fmt"
	"strings"

	"secwaf/anomaly"
	"secwaf/encoding"
	"secwaf/rules"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog"
)

// Part is one part of a multipart/form-data body. All fields are sub-slices of the scanned body.
type Part struct {
	Name        []byte
	Filename    []byte
	ContentType []byte
	Body        []byte

	// IsFile is true if the part had a filename attribute, even an empty one.
	IsFile bool
}

const (
	dispositionPrefix = "content-disposition: form-data;"
	contentTypePrefix = "content-type:"
)

// ScanMultipart walks a multipart/form-data body and raises the structural anomalies it finds into ctx.
// The walk stops at the first anomaly that matched, in which case the returned error is nil, or that is disabled, in which case the error wraps anomaly.ErrDisabled.
// The parts seen before the walk stopped are returned in res.Parts.
func ScanMultipart(logger zerolog.Logger, contentType string, body []byte, cat *anomaly.Catalogue, ctx *rules.MatchContext) (res ScanResult, err error) {
	boundary, err := ParseBoundary(contentType)
	if err != nil {
		logger.Debug().Str("contentType", contentType).Msg("Invalid multipart boundary")
		_, cerr := cat.Check(nil, anomaly.UncommonPostBoundary, ctx)
		err = nil
		if cerr != nil {
			err = fmt.Errorf("%w: %w", ErrBoundary, cerr)
		}
		return
	}

	logger.Debug().Str("boundary", boundary).Msg("Multipart boundary")

	start := indexFold(body, []byte("--"+boundary))
	if start == -1 {
		err = ErrBoundaryNotFound
		return
	}

	data := body[start:]
	res.Framing = auditFraming(body, boundary)
	logger.Debug().Object("framing", res.Framing).Msg("Multipart framing")

	w := multipartWalker{
		logger:   logger,
		data:     data,
		boundary: []byte(boundary),
		cat:      cat,
		ctx:      ctx,
	}
	err = w.walk(&res)
	return
}

type multipartWalker struct {
	logger   zerolog.Logger
	data     []byte
	boundary []byte
	cat      *anomaly.Catalogue
	ctx      *rules.MatchContext
}

// walk returns when the terminating boundary was reached, an anomaly stopped the walk, or the body is malformed beyond recovery.
func (w *multipartWalker) walk(res *ScanResult) (err error) {
	data := w.data
	bl := len(w.boundary)
	delimiter := append([]byte("--"), w.boundary...)
	partEnd := append([]byte("\r\n"), delimiter...)

	idx := 0
	for idx < len(data) {
		rest := data[idx:]

		// Terminating boundary, optionally followed by CRLF.
		if len(rest) == bl+4 || len(rest) == bl+6 {
			terminal := bytes.HasPrefix(rest, delimiter) && bytes.HasPrefix(rest[bl+2:], []byte("--"))
			if terminal && len(rest) == bl+6 {
				terminal = bytes.HasSuffix(rest, []byte("\r\n"))
			}
			if terminal {
				return
			}

			return w.escalate(anomaly.UncommonPostBoundary)
		}

		if len(rest) <= bl+4 || !bytes.HasPrefix(rest, delimiter) || rest[bl+2] != '\r' || rest[bl+3] != '\n' {
			return w.escalate(anomaly.UncommonPostBoundary)
		}
		idx += bl + 4

		if !hasPrefixFold(data[idx:], dispositionPrefix) {
			return w.escalate(anomaly.UncommonPostFormat)
		}
		idx += len(dispositionPrefix)

		lineEnd := bytes.IndexByte(data[idx:], '\n')
		if lineEnd == -1 {
			return ErrTerminatorNotFound
		}
		lineEnd += idx

		var p Part
		if derr := parseDisposition(data[idx:lineEnd], &p); derr != nil {
			w.logger.Debug().Err(derr).Msg("Content-Disposition parse error")
			return w.escalate(anomaly.UncommonPostFormat)
		}

		if p.IsFile {
			lineStart := lineEnd + 1
			next := bytes.IndexByte(data[lineStart:], '\n')
			if next == -1 {
				return w.escalate(anomaly.UncommonPostFormat)
			}
			lineEnd = lineStart + next
			p.ContentType = parseContentTypeLine(data[lineStart:lineEnd])
		}

		idx = lineEnd + 1
		if idx+2 > len(data) || data[idx] != '\r' || data[idx+1] != '\n' {
			return w.escalate(anomaly.UncommonPostFormat)
		}
		idx += 2

		bodyEnd := bytes.Index(data[idx:], partEnd)
		if bodyEnd == -1 {
			return ErrTerminatorNotFound
		}
		p.Body = data[idx : idx+bodyEnd]
		res.Parts = append(res.Parts, p)

		w.logger.Debug().Bytes("name", p.Name).Bool("file", p.IsFile).Int("len", len(p.Body)).Msg("Multipart part")

		if p.IsFile {
			name, nullBytes := filename(p.Filename)
			if stop, cerr := w.checkFile(name, nullBytes, &p); stop {
				return cerr
			}
		}

		// Skip the CRLF, leaving idx at the next delimiter.
		idx += bodyEnd + 2
	}

	return ErrTerminatorNotFound
}

// escalate raises an anomaly that has no target. Such an anomaly either matches or is disabled, and both end the walk.
// The returned error is nil if it matched.
func (w *multipartWalker) escalate(id anomaly.ID) (err error) {
	w.logger.Debug().Str("anomaly", id.String()).Msg("Multipart anomaly")
	_, err = w.cat.Check(nil, id, w.ctx)
	return
}

// filename returns a decoded copy of a raw filename attribute, and the number of NUL bytes it decoded to.
func filename(raw []byte) (decoded []byte, nullBytes int) {
	decoded = append([]byte{}, raw...)
	n, nullBytes := encoding.Unescape(decoded)
	decoded = decoded[:n]
	return
}

func (w *multipartWalker) checkFile(name []byte, nullBytes int, p *Part) (stop bool, err error) {
	if nullBytes > 0 {
		return true, w.escalate(anomaly.UncommonHexEncoding)
	}

	w.logger.Debug().Bytes("filename", name).Bytes("contentType", p.ContentType).Msg("Checking filename")

	if isUncommonFilename(name, p.ContentType) || isDisguisedUpload(p.ContentType, p.Body) {
		return true, w.escalate(anomaly.UncommonFilename)
	}

	for _, id := range []anomaly.ID{anomaly.SpecialFileCharacter, anomaly.UncommonFilenamePostfix} {
		if stop, err = w.cat.Check(name, id, w.ctx); stop {
			return
		}
	}

	return
}

// parseDisposition parses the attributes following "form-data;" in a Content-Disposition line. line does not include the LF.
func parseDisposition(line []byte, p *Part) (err error) {
	i := 0
	for i < len(line) {
		i = skipBlanks(line, i)
		if i < len(line) && line[i] == ';' {
			i++
		}
		i = skipBlanks(line, i)

		if i >= len(line) || line[i] == 0 {
			break
		}

		switch {
		case bytes.HasPrefix(line[i:], []byte(`name="`)):
			start := i + len(`name="`)
			end := closingQuote(line, start)
			if end == -1 {
				return ErrDisposition
			}
			p.Name = line[start:end]
			i = end + 1

		case bytes.HasPrefix(line[i:], []byte(`filename="`)):
			start := i + len(`filename="`)
			end := closingQuote(line, start)
			if end == -1 {
				return ErrDisposition
			}
			p.Filename = line[start:end]
			p.IsFile = true
			i = end + 1

		case i == len(line)-1:
			// The CR before LF.
			return

		default:
			return ErrDisposition
		}
	}

	return
}

func skipBlanks(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

// closingQuote returns the index of the first '"' at or after from which is not preceded by a backslash, or -1.
func closingQuote(b []byte, from int) int {
	for j := from; j < len(b); j++ {
		if b[j] == '"' && b[j-1] != '\\' {
			return j
		}
	}
	return -1
}

func parseContentTypeLine(line []byte) []byte {
	line = bytes.TrimRight(line, "\r")
	if !hasPrefixFold(line, contentTypePrefix) {
		return nil
	}
	return bytes.TrimSpace(line[len(contentTypePrefix):])
}

// mediaType returns the lower case media type of a Content-Type value, without parameters.
func mediaType(contentType []byte) string {
	if i := bytes.IndexByte(contentType, ';'); i != -1 {
		contentType = contentType[:i]
	}
	return strings.ToLower(string(bytes.TrimSpace(contentType)))
}

// isUncommonFilename reports whether a script or HTML upload is declared with a content type that lets it slip past extension based filters.
func isUncommonFilename(filename, contentType []byte) bool {
	if len(contentType) == 0 {
		return false
	}

	lowerName := bytes.ToLower(filename)
	switch mediaType(contentType) {
	case "text/html":
		return bytes.Contains(lowerName, []byte(".html"))
	case "application/octet-stream":
		return bytes.Contains(lowerName, []byte(".php")) || bytes.Contains(lowerName, []byte(".jsp"))
	}

	return false
}

// isDisguisedUpload reports whether a part declared as an image has the magic bytes of some other known file type.
func isDisguisedUpload(contentType, body []byte) bool {
	if !strings.HasPrefix(mediaType(contentType), "image/") {
		return false
	}

	kind, err := filetype.Match(body)
	if err != nil || kind == filetype.Unknown {
		return false
	}

	return kind.MIME.Type != "image"
}
