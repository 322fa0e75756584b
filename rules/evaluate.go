package rules

import (
	"errors"
	"fmt"
)

// ErrNoTarget is returned when a rule that needs content is evaluated without any.
var ErrNoTarget = errors.New("rule requires a target but none was given")

// ErrMalformedRule is returned when a rule has neither a literal nor a regex, and is not a builtin rule.
var ErrMalformedRule = errors.New("rule has neither a literal nor a regex")

// Evaluate runs the rules of rs against target in order. The first rule that matches is recorded in ctx, and evaluation stops.
// A nil target means there is no content to inspect. Only builtin rules without a pattern can match it, and they always do.
// Evaluate does nothing if ctx already holds a match.
func Evaluate(target []byte, rs *RuleSet, ctx *MatchContext) (err error) {
	if ctx.Matched || rs.Len() == 0 {
		return
	}

	if target == nil {
		r := &rs.rules[0]
		switch {
		case r.Builtin && !r.hasPattern():
			ctx.record(r, rs.target, nil)
		case !r.hasPattern():
			err = fmt.Errorf("rule %d: %w", r.ID, ErrMalformedRule)
		default:
			err = fmt.Errorf("rule %d: %w", r.ID, ErrNoTarget)
		}
		return
	}

	candidates := rs.candidates(target)
	for i := range rs.rules {
		r := &rs.rules[i]

		if !r.hasPattern() {
			if r.Builtin {
				// Automatic match only applies when there is no content.
				continue
			}
			err = fmt.Errorf("rule %d: %w", r.ID, ErrMalformedRule)
			return
		}

		if !candidates[i] {
			continue
		}

		if r.Regex != nil && !r.Regex.Match(target) {
			continue
		}

		ctx.record(r, rs.target, target)
		return
	}

	return
}
