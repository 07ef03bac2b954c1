package tags

// Field is an extra output field attached to every entry. Its value
// is never stored on the entry; Render computes it on demand so that
// entries stay cheap when the field is disabled and unreferenced.
type Field struct {
	Name        string
	Description string
	Enabled     bool
	Render      func(*Entry) string
}

// FieldSet is an ordered collection of extra fields, keyed by name.
type FieldSet struct {
	fields []*Field
	byName map[string]*Field
}

// NewFieldSet creates an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{byName: make(map[string]*Field)}
}

// Register adds a field. Registering a name twice replaces the
// earlier definition.
func (fs *FieldSet) Register(f *Field) {
	if existing, ok := fs.byName[f.Name]; ok {
		*existing = *f
		return
	}
	fs.byName[f.Name] = f
	fs.fields = append(fs.fields, f)
}

// Lookup returns the field registered under name.
func (fs *FieldSet) Lookup(name string) (*Field, bool) {
	f, ok := fs.byName[name]
	return f, ok
}

// Enable turns on the named field for unconditional output. It
// reports whether the field exists. Disabled fields can still be
// rendered through template references.
func (fs *FieldSet) Enable(name string) bool {
	f, ok := fs.byName[name]
	if !ok {
		return false
	}
	f.Enabled = true
	return true
}

// Render computes the value of the named field for an entry. It
// reports whether the field exists.
func (fs *FieldSet) Render(name string, e *Entry) (string, bool) {
	f, ok := fs.byName[name]
	if !ok || f.Render == nil {
		return "", ok
	}
	return f.Render(e), true
}

// Enabled returns the enabled fields in registration order.
func (fs *FieldSet) Enabled() []*Field {
	var out []*Field
	for _, f := range fs.fields {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// All returns every field in registration order. The slice is shared;
// callers must not modify it.
func (fs *FieldSet) All() []*Field {
	return fs.fields
}
