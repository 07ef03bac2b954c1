// Package output writes resolved tag entries as human-readable xref
// lines or as JSON lines, one object per entry.
//
// Both writers emit entries in the order they receive them. Sorted
// output is produced by calling SortEntries on a drained batch first:
// entries order by name, then file, then line, and entries equal on
// all three keys keep their submission order.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"xtags/internal/render"
	"xtags/internal/tags"
)

// DefaultXrefFormat is the xref line layout used when no xformat
// override is configured.
const DefaultXrefFormat = "%-16N %-10K %4n %-16F %C"

// Writer emits one entry per call.
type Writer interface {
	Write(e *tags.Entry) error
}

// XrefWriter renders each entry through a format template and appends
// a newline.
type XrefWriter struct {
	w    io.Writer
	tmpl *render.Template
}

// NewXrefWriter creates an xref writer over w using the parsed
// template.
func NewXrefWriter(w io.Writer, tmpl *render.Template) *XrefWriter {
	return &XrefWriter{w: w, tmpl: tmpl}
}

// Write renders e and writes the resulting line.
func (x *XrefWriter) Write(e *tags.Entry) error {
	if _, err := io.WriteString(x.w, x.tmpl.Render(e)+"\n"); err != nil {
		return fmt.Errorf("write xref line: %w", err)
	}
	return nil
}

// jsonEntry fixes the key order of JSON output lines. Extra fields go
// into the fields object, which encoding/json emits with sorted keys.
type jsonEntry struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind,omitempty"`
	Role    string            `json:"role"`
	File    string            `json:"file"`
	Line    int               `json:"line"`
	Pattern string            `json:"pattern,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSONWriter emits one JSON object per entry, terminated by a newline.
// Enabled extra fields are rendered into a nested fields object.
type JSONWriter struct {
	w      io.Writer
	fields *tags.FieldSet
}

// NewJSONWriter creates a JSON lines writer over w. fields may be nil
// when no extra fields are registered.
func NewJSONWriter(w io.Writer, fields *tags.FieldSet) *JSONWriter {
	return &JSONWriter{w: w, fields: fields}
}

// Write encodes e and writes the resulting line.
func (j *JSONWriter) Write(e *tags.Entry) error {
	rec := jsonEntry{
		Name:    e.Name,
		Kind:    e.KindName(),
		Role:    e.RoleName(),
		File:    e.File,
		Line:    e.Line,
		Pattern: e.Pattern,
	}
	if j.fields != nil {
		for _, f := range j.fields.Enabled() {
			if f.Render == nil {
				continue
			}
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[f.Name] = f.Render(e)
		}
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode tag entry: %w", err)
	}
	buf = append(buf, '\n')
	if _, err := j.w.Write(buf); err != nil {
		return fmt.Errorf("write tag entry: %w", err)
	}
	return nil
}

// SortEntries orders entries by name, then file, then line. The sort
// is stable, so entries equal on all three keys keep their submission
// order.
func SortEntries(entries []*tags.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}
