package testutils

import (
	"bytes"
	"testing"
)

// Tests that the MockReader works, which itself is just used for other tests.
func TestMockReader(t *testing.T) {
	// Arrange
	content := []byte("hello,")
	targetLen := 1024*1024*2 + 3
	m := &MockReader{Length: targetLen, Content: content}
	b := &bytes.Buffer{}

	// Act
	_, err := b.ReadFrom(m)

	// Assert
	if err != nil {
		t.Fatalf("Unexpected err %T: %v", err, err)
	}

	if b.Len() != targetLen {
		t.Fatalf("Unexpected length: %v", b.Len())
	}

	if !bytes.HasPrefix(b.Bytes(), []byte("hello,hello,")) || !bytes.HasSuffix(b.Bytes(), []byte(",hello")) {
		t.Fatalf("Unexpected content")
	}
}

func TestCRLF(t *testing.T) {
	// Act
	s := CRLF("a\nb\r\nc\n")

	// Assert
	if s != "a\r\nb\r\nc\r\n" {
		t.Fatalf("Unexpected result: %q", s)
	}
}
