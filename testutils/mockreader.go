package testutils

import (
	"io"
)

// MockReader is an io.Reader that produces Length bytes, made of repeated copies of Content, without holding them in memory.
type MockReader struct {
	Pos     int
	Length  int
	Content []byte
}

// Read fills p with the next bytes of the repeated Content until Length is reached.
func (m *MockReader) Read(p []byte) (n int, err error) {
	if len(m.Content) == 0 {
		m.Content = []byte("a")
	}

	for n < len(p) && m.Pos < m.Length {
		p[n] = m.Content[m.Pos%len(m.Content)]
		n++
		m.Pos++
	}

	if m.Pos >= m.Length {
		err = io.EOF
	}

	return
}
