package rules

import "strings"

// mockMultiRegexEngineFactory creates engines that report a pattern whenever its expression, taken as a plain string, occurs in the input.
type mockMultiRegexEngineFactory struct {
	patterns [][]MultiRegexEnginePattern
	scanErr  error
}

func (f *mockMultiRegexEngineFactory) NewMultiRegexEngine(mm []MultiRegexEnginePattern) (m MultiRegexEngine, err error) {
	f.patterns = append(f.patterns, mm)
	m = &mockMultiRegexEngine{patterns: mm, scanErr: f.scanErr}
	return
}

type mockMultiRegexEngine struct {
	patterns      []MultiRegexEnginePattern
	scanErr       error
	scans         int
	scratchSpaces int
	closed        bool
}

func (m *mockMultiRegexEngine) Scan(input []byte, scratchSpace MultiRegexEngineScratchSpace) (matches []MultiRegexEngineMatch, err error) {
	m.scans++
	if m.scanErr != nil {
		err = m.scanErr
		return
	}

	for _, p := range m.patterns {
		if i := strings.Index(string(input), p.Expr); i != -1 {
			matches = append(matches, MultiRegexEngineMatch{ID: p.ID, EndPos: i + len(p.Expr)})
		}
	}
	return
}

func (m *mockMultiRegexEngine) CreateScratchSpace() (scratchSpace MultiRegexEngineScratchSpace, err error) {
	m.scratchSpaces++
	scratchSpace = &mockScratchSpace{}
	return
}

func (m *mockMultiRegexEngine) Close() {
	m.closed = true
}

type mockScratchSpace struct {
	closed bool
}

func (s *mockScratchSpace) Close() {
	s.closed = true
}
