package waf

import "secwaf/rules"

// RuleSets are the rule sets for each part of a request. Any of them may be nil.
type RuleSets struct {
	Header *rules.RuleSet
	URI    *rules.RuleSet
	Args   *rules.RuleSet
	Body   *rules.RuleSet
}

// Close releases resources held by the rule sets.
func (r RuleSets) Close() {
	r.Header.Close()
	r.URI.Close()
	r.Args.Close()
	r.Body.Close()
}

// Stage is a step of request evaluation.
type Stage int

// Stages in evaluation order.
const (
	_ Stage = iota
	HeaderStage
	URIStage
	ArgsStage
	BodyStage
)

func (s Stage) String() string {
	switch s {
	case HeaderStage:
		return "header"
	case URIStage:
		return "uri"
	case ArgsStage:
		return "args"
	case BodyStage:
		return "body"
	}
	return "unknown"
}
