/*
Package institution canonicalizes training-institution names and classifies
course runs.

PURPOSE:
  The same institution appears in the feed under many spellings
  ("(주)멀티캠퍼스", "멀티캠퍼스 역삼", "MULTICAMPUS"). Reports group them
  under one canonical name using keyword inclusion against a Table.

TABLE ORDER:
  A Table is an ordered list, not a map. The first group with a matching
  keyword wins, so more specific groups must be declared before broader
  ones. The table is read-only after construction and is injected into a
  Grouper; tests substitute their own.

SEE ALSO:
  - grouper.go: Canonicalize
  - classify.go: Partnered detection and training-type tags
  - factory/table.go: Loading tables from JSON/YAML
*/
package institution

import (
	"strings"
)

// Group maps a canonical name to the keywords that identify it.
type Group struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Table is an immutable, ordered list of groups.
type Table struct {
	groups []Group
}

// NewTable copies groups into a Table. Keywords are stored upper-cased.
func NewTable(groups []Group) Table {
	t := Table{groups: make([]Group, 0, len(groups))}
	for _, g := range groups {
		kws := make([]string, 0, len(g.Keywords))
		for _, kw := range g.Keywords {
			kw = strings.ToUpper(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		t.groups = append(t.groups, Group{Name: strings.TrimSpace(g.Name), Keywords: kws})
	}
	return t
}

// Groups returns a copy of the table's groups in declaration order.
func (t Table) Groups() []Group {
	out := make([]Group, len(t.groups))
	for i, g := range t.groups {
		out[i] = Group{Name: g.Name, Keywords: append([]string(nil), g.Keywords...)}
	}
	return out
}

func (t Table) Len() int { return len(t.groups) }

// DefaultTable is the grouping used when no table file is configured.
func DefaultTable() Table {
	return NewTable([]Group{
		{Name: "이젠아카데미", Keywords: []string{"이젠", "EZEN"}},
		{Name: "그린컴퓨터아카데미", Keywords: []string{"그린컴퓨터", "그린아카데미"}},
		{Name: "멀티캠퍼스", Keywords: []string{"멀티캠퍼스", "MULTICAMPUS", "멀티 캠퍼스"}},
		{Name: "패스트캠퍼스", Keywords: []string{"패스트캠퍼스", "FASTCAMPUS", "데이원컴퍼니"}},
		{Name: "코드스테이츠", Keywords: []string{"코드스테이츠", "CODESTATES"}},
		{Name: "멋쟁이사자처럼", Keywords: []string{"멋쟁이사자처럼", "멋사", "LIKELION"}},
		{Name: "엘리스", Keywords: []string{"엘리스", "ELICE"}},
		{Name: "구름", Keywords: []string{"구름", "GOORM"}},
		{Name: "그렙", Keywords: []string{"그렙", "GREPP", "프로그래머스"}},
		{Name: "KT", Keywords: []string{"케이티", "KT"}},
		{Name: "한국표준협회", Keywords: []string{"한국표준협회", "KSA"}},
		{Name: "한국생산성본부", Keywords: []string{"한국생산성본부", "KPC"}},
		{Name: "대한상공회의소", Keywords: []string{"대한상공회의소", "상공회의소"}},
	})
}
