package bodyparsing

import (
	"bytes"
	"io"

	"secwaf/waf"
)

// maxLengthReaderDecorator is an io.Reader decorator, which enforces a max number of bytes to be read.
type maxLengthReaderDecorator struct {
	Limit     int
	ReadCount int
	reader    io.Reader
}

func newMaxLengthReaderDecorator(reader io.Reader, limits waf.LengthLimits) *maxLengthReaderDecorator {
	return &maxLengthReaderDecorator{reader: reader, Limit: limits.MaxLengthTotal}
}

// Read behaves like io.Reader.Read, but returns waf.ErrTotalBytesLimitExceeded once more than Limit bytes were read.
func (m *maxLengthReaderDecorator) Read(p []byte) (n int, err error) {
	if m.ReadCount > m.Limit {
		err = waf.ErrTotalBytesLimitExceeded
		return
	}

	// Read at most one byte past the limit, so exceeding it is detected without reading the whole body.
	if room := m.Limit + 1 - m.ReadCount; len(p) > room {
		p = p[:room]
	}

	n, err = m.reader.Read(p)
	m.ReadCount += n
	if m.ReadCount > m.Limit {
		err = waf.ErrTotalBytesLimitExceeded
	}

	return
}

// readAllLimited reads r until EOF, failing with waf.ErrTotalBytesLimitExceeded if that is more than limits.MaxLengthTotal bytes.
func readAllLimited(r io.Reader, limits waf.LengthLimits) (body []byte, err error) {
	if r == nil {
		return
	}

	var buf bytes.Buffer
	_, err = buf.ReadFrom(newMaxLengthReaderDecorator(r, limits))
	if err != nil {
		return
	}

	body = buf.Bytes()
	return
}
