//go:build hyperscan
// +build hyperscan

package hyperscan

import (
	"secwaf/rules"

	hs "github.com/flier/gohs/hyperscan"
	"github.com/rs/zerolog"
)

// SingleMatch makes Hyperscan only return one match per regex.
// PrefilterMode gives broader regex compatibility, at the cost of possible false positives. Matches are verified by the rule set.
const patternFlags = hs.SingleMatch | hs.PrefilterMode

// EngineFactory implements the rules.MultiRegexEngineFactory interface.
type EngineFactory struct {
	logger  zerolog.Logger
	dbCache DbCache
}

// Engine implements the rules.MultiRegexEngine interface.
type Engine struct {
	// Hyperscan's compiled database of regexes
	db hs.BlockDatabase
}

type scratchSpace struct {
	scratch *hs.Scratch
}

// NewMultiRegexEngineFactory creates a rules.MultiRegexEngineFactory. dbCache may be nil, in which case databases are always compiled.
func NewMultiRegexEngineFactory(logger zerolog.Logger, dbCache DbCache) rules.MultiRegexEngineFactory {
	return &EngineFactory{logger: logger, dbCache: dbCache}
}

// NewMultiRegexEngine creates a rules.MultiRegexEngine.
func (f *EngineFactory) NewMultiRegexEngine(mm []rules.MultiRegexEnginePattern) (m rules.MultiRegexEngine, err error) {
	var key CacheKey
	var db hs.BlockDatabase
	if f.dbCache != nil {
		key = NewCacheKey(mm, patternFlags)
		db = f.dbCache.Load(key, len(mm))
		if db != nil {
			f.logger.Debug().Str("key", string(key)).Int("patterns", len(mm)).Msg("Loaded Hyperscan database from cache")
		}
	}

	if db == nil {
		patterns := make([]*hs.Pattern, 0, len(mm))
		for _, m := range mm {
			p := hs.NewPattern(m.Expr, patternFlags)
			p.Id = m.ID
			patterns = append(patterns, p)
		}

		db, err = hs.NewBlockDatabase(patterns...)
		if err != nil {
			return
		}

		if f.dbCache != nil {
			if cerr := f.dbCache.Save(key, len(mm), db); cerr != nil {
				f.logger.Warn().Err(cerr).Msg("Could not save Hyperscan database to cache")
			}
		}
	}

	m = &Engine{db: db}
	return
}

// CreateScratchSpace allocates the memory Hyperscan needs during a scan.
func (h *Engine) CreateScratchSpace() (s rules.MultiRegexEngineScratchSpace, err error) {
	var scratch *hs.Scratch
	scratch, err = hs.NewScratch(h.db)
	if err != nil {
		return
	}

	s = &scratchSpace{scratch: scratch}
	return
}

// Scan scans the given input for all expressions that this engine was initialized with.
func (h *Engine) Scan(input []byte, s rules.MultiRegexEngineScratchSpace) (matches []rules.MultiRegexEngineMatch, err error) {
	matches = []rules.MultiRegexEngineMatch{}
	handler := func(id uint, from, to uint64, flags uint, context interface{}) error {
		// Hyperscan doesn't populate "from" by default
		m := rules.MultiRegexEngineMatch{
			ID:     int(id),
			EndPos: int(to),
		}
		matches = append(matches, m)
		return nil
	}

	err = h.db.Scan(input, s.(*scratchSpace).scratch, handler, nil)
	return
}

// Close frees the database.
func (h *Engine) Close() {
	h.db.Close()
}

func (s *scratchSpace) Close() {
	s.scratch.Free()
}
