package rules

import (
	"fmt"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

const scratchSpaceFreeListSize = 1024

// RuleSet is an ordered list of rules scoped to one target class. Order is evaluation order.
// A RuleSet is immutable after construction and safe for concurrent use.
type RuleSet struct {
	target Target
	rules  []Rule

	// Literal prefilter. Pattern i of the trie is the literal shared by the rules in literalRules[i].
	trie         *ahocorasick.Trie
	literalRules [][]int

	// Optional regex prefilter. Pattern IDs are indexes into rules.
	regexEngine      MultiRegexEngine
	scratchSpaceNext chan MultiRegexEngineScratchSpace
}

// RuleSetOption configures NewRuleSet.
type RuleSetOption func(*ruleSetOptions)

type ruleSetOptions struct {
	multiRegexEngineFactory MultiRegexEngineFactory
}

// WithMultiRegexEngineFactory makes the RuleSet prefilter its regex rules with an engine created by f.
func WithMultiRegexEngineFactory(f MultiRegexEngineFactory) RuleSetOption {
	return func(o *ruleSetOptions) {
		o.multiRegexEngineFactory = f
	}
}

// NewRuleSet creates a RuleSet. The rules are copied.
func NewRuleSet(target Target, rr []Rule, opts ...RuleSetOption) (rs *RuleSet, err error) {
	var o ruleSetOptions
	for _, opt := range opts {
		opt(&o)
	}

	rs = &RuleSet{
		target: target,
		rules:  append([]Rule(nil), rr...),
	}

	var literals []string
	literalIdx := make(map[string]int)
	var patterns []MultiRegexEnginePattern
	for i := range rs.rules {
		r := &rs.rules[i]
		if r.Regex != nil {
			patterns = append(patterns, MultiRegexEnginePattern{ID: i, Expr: removePcrePossessiveQuantifier(r.Regex.String())})
			continue
		}

		if r.Literal == "" {
			continue
		}

		idx, ok := literalIdx[r.Literal]
		if !ok {
			idx = len(literals)
			literalIdx[r.Literal] = idx
			literals = append(literals, r.Literal)
			rs.literalRules = append(rs.literalRules, nil)
		}
		rs.literalRules[idx] = append(rs.literalRules[idx], i)
	}

	if len(literals) > 0 {
		rs.trie = ahocorasick.NewTrieBuilder().AddStrings(literals).Build()
	}

	if o.multiRegexEngineFactory != nil && len(patterns) > 0 {
		rs.regexEngine, err = o.multiRegexEngineFactory.NewMultiRegexEngine(patterns)
		if err != nil {
			err = fmt.Errorf("failed to create multi regex engine for %v rules: %w", target, err)
			return nil, err
		}

		// Buffered channel used for reuse of scratch spaces between requests, while not letting concurrent requests share the same scratch space.
		rs.scratchSpaceNext = make(chan MultiRegexEngineScratchSpace, scratchSpaceFreeListSize)
	}

	return
}

// Target returns the target class the rules apply to.
func (rs *RuleSet) Target() Target {
	return rs.target
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns a copy of the rules, in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	return append([]Rule(nil), rs.rules...)
}

// Close releases the regex prefilter, if any.
func (rs *RuleSet) Close() {
	if rs == nil || rs.regexEngine == nil {
		return
	}

	for {
		select {
		case s := <-rs.scratchSpaceNext:
			s.Close()
		default:
			rs.regexEngine.Close()
			rs.regexEngine = nil
			return
		}
	}
}

// candidates returns, per rule index, whether the rule may match target.
// Literal rules flagged here are known to match. Regex rules still need to be verified.
func (rs *RuleSet) candidates(target []byte) (c []bool) {
	c = make([]bool, len(rs.rules))

	if rs.trie != nil {
		for _, m := range rs.trie.Match(target) {
			for _, ruleIdx := range rs.literalRules[m.Pattern()] {
				c[ruleIdx] = true
			}
		}
	}

	if !rs.markRegexCandidates(target, c) {
		// Without a usable prefilter every regex rule is a candidate.
		for i := range rs.rules {
			if rs.rules[i].Regex != nil {
				c[i] = true
			}
		}
	}

	return
}

func (rs *RuleSet) markRegexCandidates(target []byte, c []bool) (ok bool) {
	if rs.regexEngine == nil {
		return false
	}

	var s MultiRegexEngineScratchSpace
	select {
	case s = <-rs.scratchSpaceNext:
	default:
		var err error
		s, err = rs.regexEngine.CreateScratchSpace()
		if err != nil {
			return false
		}
	}

	defer func() {
		select {
		case rs.scratchSpaceNext <- s:
		default:
			s.Close()
		}
	}()

	matches, err := rs.regexEngine.Scan(target, s)
	if err != nil {
		return false
	}

	for _, m := range matches {
		if m.ID >= 0 && m.ID < len(c) {
			c[m.ID] = true
		}
	}

	return true
}
