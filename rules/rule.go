package rules

import "fmt"

// Target is the class of request content a RuleSet is applied to.
type Target int

// Targets available.
const (
	_ Target = iota
	TargetHeader
	TargetURI
	TargetArgs
	TargetBody
	TargetBuiltin
)

var targetNames = map[Target]string{
	TargetHeader:  "header",
	TargetURI:     "uri",
	TargetArgs:    "args",
	TargetBody:    "body",
	TargetBuiltin: "builtin",
}

func (t Target) String() string {
	if s, ok := targetNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// Action is what the decision layer should do when a rule matched.
type Action struct {
	Block    bool
	Log      bool
	GroupIDs []int
	Message  string
}

// Rule is a single detection rule. A rule is immutable once it has been added to a RuleSet.
// If both Regex and Literal are set, the Regex is used.
type Rule struct {
	ID        int
	Builtin   bool
	Literal   string
	Regex     *Regexp
	Action    Action
	Whitelist bool
}

// NewLiteralRule creates a rule that matches when literal is a case-sensitive substring of the target.
func NewLiteralRule(id int, literal string, action Action) Rule {
	return Rule{ID: id, Literal: literal, Action: action}
}

// NewRegexRule creates a rule that matches when expr matches anywhere in the target.
func NewRegexRule(id int, expr string, action Action) (r Rule, err error) {
	rx, err := CompileRegexp(expr)
	if err != nil {
		err = fmt.Errorf("rule %d: %w", id, err)
		return
	}

	r = Rule{ID: id, Regex: rx, Action: action}
	return
}

func (r *Rule) hasPattern() bool {
	return r.Regex != nil || r.Literal != ""
}
