// Package tags defines the tag entry record produced for every symbol
// an external parser reports, the lazily rendered extra fields that
// can be attached to entries, and the cork queue that batches entries
// per input file.
package tags

import "xtags/internal/registry"

// RoleDefinition marks an entry as a plain definition rather than a
// reference through one of its kind's roles.
const RoleDefinition = -1

// DefinitionRole is the role name reported for definition entries.
const DefinitionRole = "def"

// Entry is one resolved tag.
type Entry struct {
	Name      string
	Kind      *registry.Kind
	RoleIndex int
	File      string
	Line      int
	Pattern   string
	LineText  string
}

// IsDefinition reports whether the entry is a definition tag.
func (e *Entry) IsDefinition() bool {
	return e.RoleIndex == RoleDefinition
}

// RoleName returns the entry's role name, or DefinitionRole for
// definitions.
func (e *Entry) RoleName() string {
	if e.IsDefinition() || e.Kind == nil || e.RoleIndex >= len(e.Kind.Roles) {
		return DefinitionRole
	}
	return e.Kind.Roles[e.RoleIndex].Name
}

// Marker returns "D" for definition entries and "R" for references.
func (e *Entry) Marker() string {
	if e.IsDefinition() {
		return "D"
	}
	return "R"
}

// KindName returns the entry's kind name, or "" for a nil kind.
func (e *Entry) KindName() string {
	if e.Kind == nil {
		return ""
	}
	return e.Kind.Name
}
