package waf

import "secwaf/rules"

// Decision denotes WAF's response to a request
type Decision int

const (
	_ Decision = iota
	// Pass means that the request should be allowed
	Pass

	// Allow means that the request should be allowed regardless of remaining rules
	Allow

	// Block means that the request should be blocked regardless of remaining rules
	Block

	// LogOnly means that a rule matched, but it only asked for the match to be logged
	LogOnly
)

func (d Decision) String() string {
	switch d {
	case Pass:
		return "Pass"
	case Allow:
		return "Allow"
	case Block:
		return "Block"
	case LogOnly:
		return "LogOnly"
	}
	return "Unknown"
}

// Verdict is the outcome of evaluating a request.
type Verdict struct {
	Decision Decision

	// Match is the per-request match state. Match.Matched is false if no rule matched.
	Match *rules.MatchContext

	// ProcessingError is set if some part of the request could not be inspected.
	ProcessingError error
}

func decisionFromMatch(m *rules.MatchContext) Decision {
	switch {
	case !m.Matched:
		return Pass
	case m.Whitelist:
		return Allow
	case m.Action.Block:
		return Block
	}
	return LogOnly
}
