/*
Package factory builds institution grouping tables from JSON or YAML.

PURPOSE:
  The keyword table decides which institution a revenue figure lands on.
  Operators edit it as a file; the factory turns that file into an
  immutable institution.Table that is injected into the grouper at startup.

FILE SCHEMA (YAML shown, JSON uses the same keys):
  groups:
    - name: 멀티캠퍼스
      keywords: [멀티캠퍼스, MULTICAMPUS]
    - name: KT
      keywords: [KT, 케이티]

  Declaration order is significant: the first group whose keyword appears
  in a name wins.

VALIDATION:
  - at least one group
  - non-empty group names, unique after cleaning
  - every group has at least one non-blank keyword
  - a group's own name must canonicalize to itself, otherwise an earlier
    group shadows it and it can never be reported

USAGE:
  f := factory.NewTableFactory()
  table, err := f.LoadFile("groups.yaml")
  grouper := institution.NewGrouper(table)

SEE ALSO:
  - institution/table.go: Table and DefaultTable
  - config/config.go: TRAINING_REPORT_GROUP_TABLE_PATH
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/warp/training-report/generic"
	"github.com/warp/training-report/institution"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// TableFile is the serialized form of a grouping table.
type TableFile struct {
	Groups []GroupFile `json:"groups" yaml:"groups"`
}

// GroupFile is one canonical group and its keywords.
type GroupFile struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Format selects the decoder.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("group table %s: %w", path, generic.ErrUnsupportedFormat)
}

// =============================================================================
// TABLE FACTORY
// =============================================================================

// TableFactory converts table files into institution tables.
type TableFactory struct{}

func NewTableFactory() *TableFactory {
	return &TableFactory{}
}

// LoadFile reads and parses a table file, picking the format by extension.
func (f *TableFactory) LoadFile(path string) (institution.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return institution.Table{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return institution.Table{}, fmt.Errorf("failed to read group table: %w", err)
	}
	return f.Parse(data, format)
}

// Parse decodes data in the given format and validates it.
func (f *TableFactory) Parse(data []byte, format Format) (institution.Table, error) {
	var tf TableFile
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &tf)
	case FormatYAML:
		err = yaml.Unmarshal(data, &tf)
	default:
		return institution.Table{}, generic.ErrUnsupportedFormat
	}
	if err != nil {
		return institution.Table{}, fmt.Errorf("failed to parse group table: %w", err)
	}
	return f.FromFile(tf)
}

// FromFile validates a decoded table and builds it.
func (f *TableFactory) FromFile(tf TableFile) (institution.Table, error) {
	if len(tf.Groups) == 0 {
		return institution.Table{}, &generic.GroupTableError{Reason: "table has no groups"}
	}

	groups := make([]institution.Group, 0, len(tf.Groups))
	seen := make(map[string]bool)
	for i, g := range tf.Groups {
		name := institution.Clean(g.Name)
		if name == "" {
			return institution.Table{}, &generic.GroupTableError{
				Group:  fmt.Sprintf("#%d", i+1),
				Reason: "group name is empty",
			}
		}
		if seen[name] {
			return institution.Table{}, &generic.GroupTableError{Group: name, Reason: "duplicate group"}
		}
		seen[name] = true

		keywords := make([]string, 0, len(g.Keywords))
		for _, k := range g.Keywords {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			return institution.Table{}, &generic.GroupTableError{Group: name, Reason: "group has no keywords"}
		}
		groups = append(groups, institution.Group{Name: name, Keywords: keywords})
	}

	table := institution.NewTable(groups)
	grouper := institution.NewGrouper(table)
	for _, g := range table.Groups() {
		if got := grouper.Canonicalize(g.Name); got != g.Name {
			return institution.Table{}, &generic.GroupTableError{
				Group:  g.Name,
				Reason: "name canonicalizes to " + got,
			}
		}
	}
	return table, nil
}

// ToFile serializes a table back to its file form, used to export the
// built-in default.
func ToFile(table institution.Table) TableFile {
	groups := table.Groups()
	out := TableFile{Groups: make([]GroupFile, len(groups))}
	for i, g := range groups {
		out.Groups[i] = GroupFile{Name: g.Name, Keywords: append([]string(nil), g.Keywords...)}
	}
	return out
}
