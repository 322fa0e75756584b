package config

import (
	"fmt"

	"secwaf/anomaly"
	"secwaf/rules"
	"secwaf/waf"
)

// Compiled is a rule file turned into what the WAF server needs.
type Compiled struct {
	RuleSets               waf.RuleSets
	Anomalies              *anomaly.Catalogue
	Limits                 waf.LengthLimits
	BlockOnProcessingError bool
}

// Build compiles the rule file. The options are passed on to every rule set.
func (f *RuleFile) Build(opts ...rules.RuleSetOption) (c *Compiled, err error) {
	c = &Compiled{
		Limits:                 waf.DefaultLengthLimits,
		BlockOnProcessingError: true,
	}

	if f.Limits.MaxBodyLength > 0 {
		c.Limits.MaxLengthTotal = f.Limits.MaxBodyLength
	}
	if f.Limits.MaxPostArgsLength > 0 {
		c.Limits.MaxPostArgsLength = f.Limits.MaxPostArgsLength
	}
	if f.BlockOnProcessingError != nil {
		c.BlockOnProcessingError = *f.BlockOnProcessingError
	}

	targets := []struct {
		target rules.Target
		specs  []RuleSpec
		rs     **rules.RuleSet
	}{
		{rules.TargetHeader, f.Rules.Header, &c.RuleSets.Header},
		{rules.TargetURI, f.Rules.URI, &c.RuleSets.URI},
		{rules.TargetArgs, f.Rules.Args, &c.RuleSets.Args},
		{rules.TargetBody, f.Rules.Body, &c.RuleSets.Body},
	}
	for _, t := range targets {
		if len(t.specs) == 0 {
			continue
		}

		*t.rs, err = buildRuleSet(t.target, t.specs, opts)
		if err != nil {
			c.RuleSets.Close()
			return nil, err
		}
	}

	c.Anomalies, err = anomaly.NewCatalogue(f.anomalyDefinitions()...)
	if err != nil {
		c.RuleSets.Close()
		return nil, err
	}

	return
}

func buildRuleSet(target rules.Target, specs []RuleSpec, opts []rules.RuleSetOption) (rs *rules.RuleSet, err error) {
	rr := make([]rules.Rule, 0, len(specs))
	for _, s := range specs {
		action := rules.Action{Block: s.Block, Log: s.Log, GroupIDs: s.GIDs, Message: s.Msg}

		var r rules.Rule
		if s.Regex != "" {
			r, err = rules.NewRegexRule(s.ID, s.Regex, action)
			if err != nil {
				return
			}
		} else {
			r = rules.NewLiteralRule(s.ID, s.Literal, action)
		}
		r.Whitelist = s.Allow

		rr = append(rr, r)
	}

	rs, err = rules.NewRuleSet(target, rr, opts...)
	if err != nil {
		err = fmt.Errorf("%v rules: %w", target, err)
	}
	return
}

func (f *RuleFile) anomalyDefinitions() (defs []anomaly.Definition) {
	overrides := map[anomaly.ID]AnomalySpec{}
	for name, a := range f.Anomalies {
		// Names were checked by Validate.
		if id, err := anomaly.ParseID(name); err == nil {
			overrides[id] = a
		}
	}

	for _, d := range anomaly.DefaultDefinitions() {
		a, ok := overrides[d.ID]
		if !ok {
			defs = append(defs, d)
			continue
		}

		if a.Active != nil {
			d.Active = *a.Active
		}
		if a.Block != nil {
			d.Action.Block = *a.Block
		}
		if a.Log != nil {
			d.Action.Log = *a.Log
		}
		if a.Msg != "" {
			d.Action.Message = a.Msg
		}
		if a.GIDs != nil {
			d.Action.GroupIDs = a.GIDs
		}
		if a.Literal != "" || a.Regex != "" {
			d.Literal = a.Literal
			d.Pattern = a.Regex
		}

		defs = append(defs, d)
	}

	return
}
