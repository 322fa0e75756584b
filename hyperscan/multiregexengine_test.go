//go:build hyperscan
// +build hyperscan

package hyperscan

import (
	"testing"

	"secwaf/rules"
	"secwaf/testutils"
)

func TestHyperscanSimple(t *testing.T) {
	// Arrange
	patterns := []rules.MultiRegexEnginePattern{
		{ID: 0, Expr: "a+bc"},
		{ID: 1, Expr: "ab+c"},
		{ID: 2, Expr: "abc+"},
	}

	// Act
	f := NewMultiRegexEngineFactory(testutils.NewTestLogger(t), nil)
	m, err := f.NewMultiRegexEngine(patterns)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	defer m.Close()
	s, err := m.CreateScratchSpace()
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	defer s.Close()
	r, err := m.Scan([]byte("xyzabbbbcxyz"), s)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Assert
	if len(r) != 1 {
		t.Fatalf("Got unexpected number of matches: %d", len(r))
	}

	if r[0].ID != 1 {
		t.Fatalf("Unexpected id: %d", r[0].ID)
	}

	if r[0].EndPos != 9 {
		t.Fatalf("Unexpected to: %d", r[0].EndPos)
	}
}

func TestHyperscanWithRuleSet(t *testing.T) {
	// Arrange
	f := NewMultiRegexEngineFactory(testutils.NewTestLogger(t), NewDbCache(testutils.NewTestLogger(t), newMockCacheFilesystem()))
	r1, err := rules.NewRegexRule(100, `ab+c`, rules.Action{Block: true})
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	r2, err := rules.NewRegexRule(200, `x[yz]+$`, rules.Action{Block: true})
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	rs, err := rules.NewRuleSet(rules.TargetArgs, []rules.Rule{r1, r2}, rules.WithMultiRegexEngineFactory(f))
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	defer rs.Close()
	ctx := rules.NewMatchContext()

	// Act
	err = rules.Evaluate([]byte("hello=xyzzy"), rs, ctx)

	// Assert
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	if !ctx.Matched || ctx.RuleID != 200 {
		t.Fatalf("Unexpected match state: %v %d", ctx.Matched, ctx.RuleID)
	}
}
