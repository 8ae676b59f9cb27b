package institution

import (
	"regexp"
	"strings"
)

// UnknownInstitution is returned for empty or fully-stripped names.
const UnknownInstitution = "알 수 없는 기관"

var (
	disallowed = regexp.MustCompile(`[^\p{Hangul}A-Za-z0-9\s()]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Grouper maps display names to canonical group names.
type Grouper struct {
	table Table
}

func NewGrouper(table Table) *Grouper {
	return &Grouper{table: table}
}

// Table returns the grouper's table.
func (g *Grouper) Table() Table { return g.table }

// Clean strips characters outside Hangul, ASCII letters, digits,
// whitespace and parentheses, then collapses whitespace.
func Clean(name string) string {
	s := disallowed.ReplaceAllString(name, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Canonicalize returns the first group whose keyword occurs in the cleaned,
// upper-cased name. Names matching no group come back cleaned but otherwise
// unchanged.
func (g *Grouper) Canonicalize(name string) string {
	canonical, _ := g.Match(name)
	return canonical
}

// Match is Canonicalize with a flag telling whether a group matched.
func (g *Grouper) Match(name string) (string, bool) {
	cleaned := Clean(name)
	if cleaned == "" {
		return UnknownInstitution, false
	}
	upper := strings.ToUpper(cleaned)
	for _, grp := range g.table.groups {
		for _, kw := range grp.Keywords {
			if strings.Contains(upper, kw) {
				return grp.Name, true
			}
		}
	}
	return cleaned, false
}
