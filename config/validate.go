package config

import (
	"fmt"
	"strings"

	"secwaf/anomaly"
	"secwaf/rules"
)

// ValidationError lists all problems found in a rule file.
type ValidationError struct {
	Problems []string
}

// Add records a problem.
func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s): %s", len(v.Problems), strings.Join(v.Problems, "; "))
}

// Validate checks the rule file for problems that would make Build fail or behave unexpectedly.
func (f *RuleFile) Validate() error {
	v := &ValidationError{}

	ids := map[int]string{}
	sections := []struct {
		name  string
		rules []RuleSpec
	}{
		{"header", f.Rules.Header},
		{"uri", f.Rules.URI},
		{"args", f.Rules.Args},
		{"body", f.Rules.Body},
	}
	for _, s := range sections {
		for i, r := range s.rules {
			where := fmt.Sprintf("rules.%s[%d]", s.name, i)

			if r.ID <= 0 {
				v.Add("%s.id must be positive", where)
			} else if prev, exists := ids[r.ID]; exists {
				v.Add("%s.id %d is already used by %s", where, r.ID, prev)
			} else if anomaly.ID(r.ID).Valid() {
				v.Add("%s.id %d is reserved for anomaly %v", where, r.ID, anomaly.ID(r.ID))
			} else {
				ids[r.ID] = where
			}

			switch {
			case r.Literal == "" && r.Regex == "":
				v.Add("%s needs a literal or a regex", where)
			case r.Literal != "" && r.Regex != "":
				v.Add("%s has both a literal and a regex", where)
			case r.Regex != "":
				if _, err := rules.CompileRegexp(r.Regex); err != nil {
					v.Add("%s.regex invalid: %v", where, err)
				}
			}

			if r.Allow && r.Block {
				v.Add("%s cannot both allow and block", where)
			}
		}
	}

	for name, a := range f.Anomalies {
		where := fmt.Sprintf("anomalies.%s", name)
		if _, err := anomaly.ParseID(name); err != nil {
			v.Add("%s: %v", where, err)
		}

		if a.Literal != "" && a.Regex != "" {
			v.Add("%s has both a literal and a regex", where)
		}

		if a.Regex != "" {
			if _, err := rules.CompileRegexp(a.Regex); err != nil {
				v.Add("%s.regex invalid: %v", where, err)
			}
		}
	}

	if f.Limits.MaxBodyLength < 0 {
		v.Add("limits.maxBodyLength must not be negative")
	}

	if f.Limits.MaxPostArgsLength < 0 {
		v.Add("limits.maxPostArgsLength must not be negative")
	}

	if len(v.Problems) > 0 {
		return v
	}

	return nil
}
