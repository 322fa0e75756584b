package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileRegexpChoosesEngine(t *testing.T) {
	assert := assert.New(t)

	// Arrange and Act
	plain, err1 := CompileRegexp(`(?i)union\s+select`)
	hex, err2 := CompileRegexp(`abc\xff`)
	raw, err3 := CompileRegexp("abc\x01")

	// Assert
	assert.Nil(err1)
	assert.Nil(err2)
	assert.Nil(err3)
	assert.NotNil(plain.std)
	assert.NotNil(hex.bin)
	assert.NotNil(raw.bin)
	assert.True(plain.Match([]byte("1 UNION  SELECT 2")))
	assert.True(hex.Match([]byte("xxabc\xff")))
	assert.True(raw.Match([]byte("abc\x01")))
	assert.False(raw.Match([]byte("abc")))
}

func TestCompileRegexpPossessive(t *testing.T) {
	assert := assert.New(t)

	// Act
	rx, err := CompileRegexp(`a++b`)

	// Assert
	assert.Nil(err)
	assert.Equal(`a++b`, rx.String())
	assert.True(rx.Match([]byte("xaab")))
	assert.False(rx.Match([]byte("xaa")))
}

func TestCompileRegexpInvalid(t *testing.T) {
	// Act
	rx, err := CompileRegexp(`(abc`)

	// Assert
	assert.NotNil(t, err)
	assert.Nil(t, rx)
}
