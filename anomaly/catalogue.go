package anomaly

import (
	"errors"
	"fmt"

	"secwaf/rules"
)

// ErrDisabled is returned by Check when the anomaly that would decide the outcome is not active.
var ErrDisabled = errors.New("anomaly is disabled")

// Outcome is the result of an escalation.
type Outcome int

// Outcomes of Escalate.
const (
	NotMatched Outcome = iota
	Matched
	Disabled
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "Matched"
	case Disabled:
		return "Disabled"
	}
	return "NotMatched"
}

// Catalogue is the immutable set of configured builtin anomalies.
type Catalogue struct {
	entries map[ID]*entry
}

type entry struct {
	def   Definition
	rules *rules.RuleSet
}

// NewCatalogue builds a catalogue from the given definitions. Builtin anomalies with no definition are inactive.
func NewCatalogue(defs ...Definition) (c *Catalogue, err error) {
	c = &Catalogue{entries: make(map[ID]*entry)}
	for _, d := range defs {
		if !d.ID.Valid() {
			err = fmt.Errorf("%w: %d", ErrUnknownAnomaly, int(d.ID))
			return nil, err
		}

		if _, dup := c.entries[d.ID]; dup {
			err = fmt.Errorf("anomaly %v defined more than once", d.ID)
			return nil, err
		}

		r := rules.Rule{
			ID:      int(d.ID),
			Builtin: true,
			Literal: d.Literal,
			Action:  d.Action,
		}
		if r.Action.Message == "" {
			r.Action.Message = d.ID.String()
		}

		if d.Pattern != "" {
			r.Regex, err = rules.CompileRegexp(d.Pattern)
			if err != nil {
				err = fmt.Errorf("anomaly %v: %w", d.ID, err)
				return nil, err
			}
			r.Literal = ""
		}

		var rs *rules.RuleSet
		rs, err = rules.NewRuleSet(rules.TargetBuiltin, []rules.Rule{r})
		if err != nil {
			return nil, err
		}

		c.entries[d.ID] = &entry{def: d, rules: rs}
	}

	return
}

// Active reports whether the anomaly is configured and active.
func (c *Catalogue) Active(id ID) bool {
	if c == nil {
		return false
	}
	e, ok := c.entries[id]
	return ok && e.def.Active
}

// Definition returns the configured definition of the anomaly.
func (c *Catalogue) Definition(id ID) (d Definition, ok bool) {
	if c == nil {
		return
	}
	e, ok := c.entries[id]
	if ok {
		d = e.def
	}
	return
}

// Escalate raises the anomaly id.
// With a nil target an active anomaly always matches. With a target it only matches if its pattern matches the target.
// A match is recorded in ctx like any other rule match.
func (c *Catalogue) Escalate(target []byte, id ID, ctx *rules.MatchContext) (o Outcome, err error) {
	if !c.Active(id) {
		o = Disabled
		return
	}

	e := c.entries[id]
	if target != nil && e.def.Literal == "" && e.def.Pattern == "" {
		o = NotMatched
		return
	}

	before := ctx.Matched
	err = rules.Evaluate(target, e.rules, ctx)
	if err != nil {
		err = fmt.Errorf("anomaly %v: %w", id, err)
		return
	}

	if !before && ctx.Matched {
		o = Matched
	}

	return
}

// Check is Escalate for call sites which must stop what they are doing unless the anomaly did not match.
// stop is true if the anomaly matched. A disabled anomaly also stops, and returns ErrDisabled.
func (c *Catalogue) Check(target []byte, id ID, ctx *rules.MatchContext) (stop bool, err error) {
	o, err := c.Escalate(target, id, ctx)
	if err != nil {
		stop = true
		return
	}

	switch o {
	case Matched:
		stop = true
	case Disabled:
		stop = true
		err = fmt.Errorf("%v: %w", id, ErrDisabled)
	}

	return
}
