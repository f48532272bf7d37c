package core

import (
	"regexp"
	"strings"
)

// mask replaces every denylisted match regardless of its length.
const mask = "***"

// Filter masks denylisted substrings in posted text, case-insensitively.
// The zero/nil filter passes text through unchanged.
type Filter struct {
	re *regexp.Regexp
}

// NewFilter compiles the denylist into a single alternation. Words are
// matched as literal substrings, not whole words.
func NewFilter(words []string) *Filter {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	if len(quoted) == 0 {
		return &Filter{}
	}
	return &Filter{re: regexp.MustCompile("(?i)(" + strings.Join(quoted, "|") + ")")}
}

func (f *Filter) Apply(text string) string {
	if f == nil || f.re == nil {
		return text
	}
	return f.re.ReplaceAllLiteralString(text, mask)
}
