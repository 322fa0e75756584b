//go:build hyperscan
// +build hyperscan

package hyperscan

import (
	"errors"
	"os"
	"testing"

	"secwaf/rules"
	"secwaf/testutils"

	hs "github.com/flier/gohs/hyperscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileTestDb(t *testing.T, mm []rules.MultiRegexEnginePattern) hs.BlockDatabase {
	var patterns []*hs.Pattern
	for _, m := range mm {
		p := hs.NewPattern(m.Expr, patternFlags)
		p.Id = m.ID
		patterns = append(patterns, p)
	}
	db, err := hs.NewBlockDatabase(patterns...)
	require.NoError(t, err)
	return db
}

func TestDbCacheLoadSave(t *testing.T) {
	// Arrange
	mm := []rules.MultiRegexEnginePattern{{ID: 100, Expr: "abc+"}}
	db := compileTestDb(t, mm)
	defer db.Close()
	fs := newMockCacheFilesystem()
	cache := NewDbCache(testutils.NewTestLogger(t), fs)
	key := NewCacheKey(mm, patternFlags)

	// Act
	err := cache.Save(key, len(mm), db)
	db2 := cache.Load(key, len(mm))

	// Assert
	require.NoError(t, err)
	require.NotNil(t, db2, "database was not found in cache")
	defer db2.Close()
	assert.Contains(t, fs.files, "/mycachedir/"+string(key)+".hsdb")
	assert.NotContains(t, fs.files, "/mycachedir/"+string(key)+".hsdb.tmp")

	scratch, err := hs.NewScratch(db2)
	require.NoError(t, err)
	defer scratch.Free()

	found := false
	handler := func(id uint, from, to uint64, flags uint, context interface{}) error {
		if id == 100 {
			found = true
		}
		return nil
	}
	require.NoError(t, db2.Scan([]byte("abcccc"), scratch, handler, nil))
	assert.True(t, found, "loaded Hyperscan DB did not work")
}

func TestDbCacheMiss(t *testing.T) {
	// Arrange
	cache := NewDbCache(testutils.NewTestLogger(t), newMockCacheFilesystem())

	// Act
	db := cache.Load("nosuchkey", 1)

	// Assert
	assert.Nil(t, db)
}

func TestDbCacheRejectsForeignFiles(t *testing.T) {
	// Arrange
	mm := []rules.MultiRegexEnginePattern{{ID: 1, Expr: "x+y"}}
	db := compileTestDb(t, mm)
	defer db.Close()
	data, err := db.Marshal()
	require.NoError(t, err)

	key := NewCacheKey(mm, patternFlags)
	path := "/mycachedir/" + string(key) + ".hsdb"
	tests := map[string][]byte{
		"no header":       data,
		"wrong version":   append([]byte("SECWAFHS\x09\x01\x00\x00\x00"), data...),
		"pattern count":   encodeCacheFile(data, 2),
		"header only":     encodeCacheFile(nil, 1),
		"corrupt payload": encodeCacheFile([]byte("garbage"), 1),
	}

	for name, content := range tests {
		fs := newMockCacheFilesystem()
		fs.files[path] = content
		cache := NewDbCache(testutils.NewTestLogger(t), fs)

		// Act
		loaded := cache.Load(key, len(mm))

		// Assert
		assert.Nil(t, loaded, name)
	}
}

func TestCacheKey(t *testing.T) {
	// Arrange
	a := []rules.MultiRegexEnginePattern{{ID: 1, Expr: "ab"}, {ID: 2, Expr: "c"}}
	reordered := []rules.MultiRegexEnginePattern{{ID: 2, Expr: "c"}, {ID: 1, Expr: "ab"}}
	renumbered := []rules.MultiRegexEnginePattern{{ID: 1, Expr: "ab"}, {ID: 3, Expr: "c"}}
	shifted := []rules.MultiRegexEnginePattern{{ID: 1, Expr: "a"}, {ID: 2, Expr: "bc"}}

	// Act
	k := NewCacheKey(a, patternFlags)

	// Assert
	assert.Equal(t, k, NewCacheKey(a, patternFlags))
	assert.NotEqual(t, k, NewCacheKey(reordered, patternFlags))
	assert.NotEqual(t, k, NewCacheKey(renumbered, patternFlags))
	assert.NotEqual(t, k, NewCacheKey(shifted, patternFlags))
	assert.NotEqual(t, k, NewCacheKey(a, hs.SingleMatch))
}

type mockCacheFilesystem struct {
	files map[string][]byte
}

func newMockCacheFilesystem() *mockCacheFilesystem {
	return &mockCacheFilesystem{files: make(map[string][]byte)}
}

func (c *mockCacheFilesystem) readFile(filename string) ([]byte, error) {
	b, ok := c.files[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	return b, nil
}

func (c *mockCacheFilesystem) writeFile(filename string, data []byte, perm os.FileMode) error {
	c.files[filename] = data
	return nil
}

func (c *mockCacheFilesystem) rename(from, to string) error {
	b, ok := c.files[from]
	if !ok {
		return errors.New("no such file")
	}
	delete(c.files, from)
	c.files[to] = b
	return nil
}

func (c *mockCacheFilesystem) createDirIfNotExist(dir string) error { return nil }
func (c *mockCacheFilesystem) cacheDirectory() string               { return "/mycachedir" }
