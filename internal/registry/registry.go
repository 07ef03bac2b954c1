// Package registry holds the kind and role definitions that classify
// tags coming back from an external parser, together with the per-kind
// formatting rules (name prefixes and summary templates).
//
// Kinds and rules are registered at configuration time, before any
// file is parsed, and are read-only afterwards except for role
// enablement toggles.
package registry

// Role describes one way a symbol of some kind can appear without
// being defined there.
type Role struct {
	Name        string
	Description string
	Enabled     bool
}

// Kind classifies a tag. A kind with no roles produces definition
// tags; a kind with roles produces reference tags using its first
// role.
type Kind struct {
	Letter        byte
	Name          string
	Description   string
	ReferenceOnly bool
	Roles         []Role
}

// RoleCount returns the number of roles declared for the kind.
func (k *Kind) RoleCount() int {
	return len(k.Roles)
}

// RoleEnabled reports whether the role at index i exists and is
// enabled.
func (k *Kind) RoleEnabled(i int) bool {
	if i < 0 || i >= len(k.Roles) {
		return false
	}
	return k.Roles[i].Enabled
}

// Registry is an ordered collection of kinds, keyed by name.
type Registry struct {
	kinds  []*Kind
	byName map[string]*Kind
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Kind)}
}

// Define adds a kind. Defining the same name again replaces the
// earlier definition but keeps its registration position.
func (r *Registry) Define(k *Kind) {
	if existing, ok := r.byName[k.Name]; ok {
		*existing = *k
		return
	}
	r.byName[k.Name] = k
	r.kinds = append(r.kinds, k)
}

// LookupByName returns the kind registered under name.
func (r *Registry) LookupByName(name string) (*Kind, bool) {
	k, ok := r.byName[name]
	return k, ok
}

// Kinds returns all kinds in registration order. The slice is shared;
// callers must not modify it.
func (r *Registry) Kinds() []*Kind {
	return r.kinds
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.kinds)
}

// SetRoleEnabled toggles the named role on the named kind. It reports
// whether the kind and role were found.
func (r *Registry) SetRoleEnabled(kindName, roleName string, enabled bool) bool {
	k, ok := r.byName[kindName]
	if !ok {
		return false
	}
	for i := range k.Roles {
		if k.Roles[i].Name == roleName {
			k.Roles[i].Enabled = enabled
			return true
		}
	}
	return false
}
