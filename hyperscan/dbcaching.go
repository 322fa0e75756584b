//go:build hyperscan
// +build hyperscan

package hyperscan

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"secwaf/rules"

	hs "github.com/flier/gohs/hyperscan"
	"github.com/rs/zerolog"
)

// Cache files start with a header: magic, format version, and the number of patterns in the database.
const (
	dbFileMagic   = "SECWAFHS"
	dbFileVersion = 1
	dbFileExt     = ".hsdb"
	dbHeaderLen   = len(dbFileMagic) + 1 + 4
)

var errBadCacheFile = errors.New("not a secwaf hyperscan cache file")

// CacheKey identifies a compiled database. Keys differ when the Hyperscan version, the pattern flags, or any rule ID or expression differs.
type CacheKey string

// NewCacheKey computes the key of the database compiled from mm with flags.
func NewCacheKey(mm []rules.MultiRegexEnginePattern, flags hs.CompileFlag) CacheKey {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00", hs.Version(), uint(flags))
	for _, m := range mm {
		fmt.Fprintf(h, "%d\x00%s\x00", m.ID, m.Expr)
	}
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// DbCache keeps compiled Hyperscan databases across restarts, so large rule sets are not recompiled on every start.
type DbCache interface {
	// Load returns nil if there is no usable database for key.
	Load(key CacheKey, patterns int) hs.BlockDatabase
	Save(key CacheKey, patterns int, db hs.BlockDatabase) error
}

type dbCacheImpl struct {
	logger zerolog.Logger
	fs     CacheFilesystem
}

// NewDbCache creates a DbCache using the given file system interface.
func NewDbCache(logger zerolog.Logger, fs CacheFilesystem) DbCache {
	return &dbCacheImpl{logger: logger, fs: fs}
}

func (c *dbCacheImpl) path(key CacheKey) string {
	return filepath.Join(c.fs.cacheDirectory(), string(key)+dbFileExt)
}

func (c *dbCacheImpl) Load(key CacheKey, patterns int) hs.BlockDatabase {
	bb, err := c.fs.readFile(c.path(key))
	if err != nil {
		return nil
	}

	data, err := decodeCacheFile(bb, patterns)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Ignoring Hyperscan cache file")
		return nil
	}

	db, err := hs.UnmarshalBlockDatabase(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Ignoring Hyperscan cache file")
		return nil
	}

	return db
}

func (c *dbCacheImpl) Save(key CacheKey, patterns int, db hs.BlockDatabase) (err error) {
	if err = c.fs.createDirIfNotExist(c.fs.cacheDirectory()); err != nil {
		return
	}

	data, err := db.Marshal()
	if err != nil {
		return
	}

	// Written under a temporary name first, so a concurrent Load never sees a partial file.
	p := c.path(key)
	tmp := p + ".tmp"
	if err = c.fs.writeFile(tmp, encodeCacheFile(data, patterns), 0644); err != nil {
		return
	}
	err = c.fs.rename(tmp, p)
	return
}

func encodeCacheFile(data []byte, patterns int) []byte {
	b := make([]byte, 0, dbHeaderLen+len(data))
	b = append(b, dbFileMagic...)
	b = append(b, dbFileVersion)
	b = binary.LittleEndian.AppendUint32(b, uint32(patterns))
	return append(b, data...)
}

func decodeCacheFile(b []byte, patterns int) (data []byte, err error) {
	if len(b) <= dbHeaderLen || !bytes.HasPrefix(b, []byte(dbFileMagic)) {
		err = errBadCacheFile
		return
	}

	if v := b[len(dbFileMagic)]; v != dbFileVersion {
		err = fmt.Errorf("%w: format version %d", errBadCacheFile, v)
		return
	}

	if n := binary.LittleEndian.Uint32(b[len(dbFileMagic)+1:]); int(n) != patterns {
		err = fmt.Errorf("%w: has %d patterns, expected %d", errBadCacheFile, n, patterns)
		return
	}

	data = b[dbHeaderLen:]
	return
}

// CacheFilesystem is an interface with the functionality the cache needs to persist to a filesystem.
type CacheFilesystem interface {
	readFile(filename string) ([]byte, error)
	writeFile(filename string, data []byte, perm os.FileMode) error
	rename(from, to string) error
	createDirIfNotExist(dir string) error
	cacheDirectory() string
}

type cacheFilesystemImpl struct {
	dir string
}

// NewCacheFileSystem creates a CacheFilesystem that keeps databases in dir.
// An empty dir means a hyperscancache directory next to the executable.
func NewCacheFileSystem(dir string) CacheFilesystem {
	if dir == "" {
		execPath, _ := os.Executable()
		dir = filepath.Join(filepath.Dir(execPath), "hyperscancache")
	}
	return &cacheFilesystemImpl{dir: dir}
}

func (c *cacheFilesystemImpl) readFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

func (c *cacheFilesystemImpl) writeFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (c *cacheFilesystemImpl) rename(from, to string) error {
	return os.Rename(from, to)
}

func (c *cacheFilesystemImpl) createDirIfNotExist(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func (c *cacheFilesystemImpl) cacheDirectory() string {
	return c.dir
}
