package bodyparsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoundary(t *testing.T) {
	// Arrange
	tests := []struct {
		contentType string
		expected    string
		expectErr   bool
	}{
		{"multipart/form-data; boundary=abc", "abc", false},
		{"multipart/form-data;boundary=abc", "abc", false},
		{"Multipart/Form-Data;\t BOUNDARY=abc", "abc", false},
		{`multipart/form-data; boundary="a b c"`, "a b c", false},
		{"multipart/form-data; boundary=abc; charset=utf-8", "abc", false},
		{"multipart/form-data; boundary=" + strings.Repeat("x", 70), strings.Repeat("x", 70), false},
		{"multipart/form-data; boundary=" + strings.Repeat("x", 71), "", true},
		{"multipart/form-data; boundary=", "", true},
		{`multipart/form-data; boundary=""`, "", true},
		{"multipart/form-data; charset=utf-8; boundary=abc", "", true},
		{"multipart/form-data", "", true},
		{"multipart/form-databoundary=abc", "", true},
		{"text/plain", "", true},
	}

	for _, test := range tests {
		// Act
		b, err := ParseBoundary(test.contentType)

		// Assert
		if test.expectErr {
			assert.Equal(t, ErrBoundary, err, "content type %q", test.contentType)
			continue
		}
		assert.Nil(t, err, "content type %q", test.contentType)
		assert.Equal(t, test.expected, b)
	}
}

func TestIndexFold(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0, indexFold([]byte("abc"), []byte("")))
	assert.Equal(4, indexFold([]byte("xx\n--ABC"), []byte("-abc")))
	assert.Equal(-1, indexFold([]byte("--ab"), []byte("--abc")))
	assert.Equal(1, indexFold([]byte("a--Boundary--"), []byte("--bOUNDARY")))
}
