package rules

// MatchContext is the per-request evaluation state.
// Once Matched is true, it is never cleared, and the match fields are not changed again.
type MatchContext struct {
	Matched       bool
	RuleID        int
	Builtin       bool
	Whitelist     bool
	Action        Action
	Target        Target
	MatchedString []byte

	ProcessingError    bool
	ProcessingErrorMsg string
}

// NewMatchContext creates a MatchContext for a single request.
func NewMatchContext() *MatchContext {
	return &MatchContext{}
}

func (c *MatchContext) record(r *Rule, t Target, s []byte) {
	if c.Matched {
		return
	}

	c.Matched = true
	c.RuleID = r.ID
	c.Builtin = r.Builtin
	c.Whitelist = r.Whitelist
	c.Target = t
	c.Action = r.Action
	c.Action.GroupIDs = append([]int(nil), r.Action.GroupIDs...)
	if s != nil {
		c.MatchedString = append([]byte{}, s...)
		ReplaceCRLF(c.MatchedString)
	}
}

// SetProcessingError flags that some part of the request could not be inspected. Only the first message is kept.
func (c *MatchContext) SetProcessingError(msg string) {
	if c.ProcessingError {
		return
	}

	c.ProcessingError = true
	c.ProcessingErrorMsg = msg
}

// ReplaceCRLF replaces CR and LF bytes of b with spaces, so b stays on a single log line.
func ReplaceCRLF(b []byte) {
	for i, c := range b {
		if c == '\r' || c == '\n' {
			b[i] = ' '
		}
	}
}
