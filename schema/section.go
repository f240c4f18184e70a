package schema

import "strings"

// Section names one partition of a node configuration
type Section string

// Section constants in panel order
const (
	Basic       Section = "basic"
	Advanced    Section = "advanced"
	Input       Section = "input"
	Output      Section = "output"
	Connections Section = "connections"
)

var sectionLabels = map[Section]string{
	Basic:       "Basic Settings",
	Advanced:    "Advanced Options",
	Input:       "Input Mapping",
	Output:      "Output Configuration",
	Connections: "Connections",
}

// Sections returns every section in panel order
func Sections() []Section {
	return []Section{Basic, Advanced, Input, Output, Connections}
}

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	_, ok := sectionLabels[s]
	return ok
}

// Label returns the tab title for s
func (s Section) Label() string {
	if l, ok := sectionLabels[s]; ok {
		return l
	}
	return string(s)
}

// Path joins a section and field name into the "section.field" form used as
// the key of validation error maps.
func Path(section Section, field string) string {
	return string(section) + "." + field
}

// SplitPath is the inverse of Path. It reports false when path has no known
// section prefix.
func SplitPath(path string) (Section, string, bool) {
	head, tail, ok := strings.Cut(path, ".")
	if !ok || tail == "" {
		return "", "", false
	}
	s := Section(head)
	if !s.Valid() {
		return "", "", false
	}
	return s, tail, true
}
