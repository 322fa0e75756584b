package rules

import (
	"regexp"
	"strings"
)

// Each of these matches a possessive quantifier which is not itself escaped, i.e. preceded by an even number of backslashes.
var possessiveQuantifiers = []struct {
	marker string
	re     *regexp.Regexp
	repl   string
}{
	{"++", regexp.MustCompile(`((^|[^\\])(\\\\)*)\+\+`), "${1}+"},
	{"*+", regexp.MustCompile(`((^|[^\\])(\\\\)*)\*\+`), "${1}*"},
	{"?+", regexp.MustCompile(`((^|[^\\])(\\\\)*)\?\+`), "${1}?"},
	{"}+", regexp.MustCompile(`((^|[^\\])(\\\\)*)({\d+(,(\d+)?)?})\+`), "${1}${4}"},
}

// Rule authors often write PCRE patterns that use possessive quantifiers such as "a++".
// Go regexp never backtracks, so the hint is meaningless there, but the syntax is rejected. Strip it.
func removePcrePossessiveQuantifier(r string) string {
	for _, q := range possessiveQuantifiers {
		if strings.Contains(r, q.marker) {
			r = q.re.ReplaceAllString(r, q.repl)
		}
	}

	return r
}
