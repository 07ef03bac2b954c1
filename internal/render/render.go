// Package render implements the percent-directive templates used for
// xref output lines and per-kind summary fields.
//
// A format string mixes literal text with directives of the form
// %[-][width]X, where X selects an entry property, or
// %[-][width]{name}, which renders the named extra field. %% emits a
// literal percent sign. A width pads the value with spaces on the
// left, or on the right when '-' is given; values are never truncated.
//
// Directives:
//
//	%N  tag name       %F  input file path
//	%n  line number    %P  search pattern
//	%K  kind name      %k  kind letter
//	%z  kind name      %R  D or R marker
//	%r  role name      %C  compacted input line
package render

import (
	"fmt"
	"strconv"
	"strings"

	"xtags/internal/errors"
	"xtags/internal/tags"
)

type directive struct {
	literal string // emitted as-is when non-empty
	spec    byte
	field   string // set for %{name} references
	width   int
	left    bool
}

// Template is a parsed format string.
type Template struct {
	source     string
	directives []directive
	fields     *tags.FieldSet
}

// Parse compiles a format string. Field references are resolved
// against fields immediately, so unknown names fail here rather than
// during output.
func Parse(format string, fields *tags.FieldSet) (*Template, error) {
	t := &Template{source: format, fields: fields}
	var lit []byte

	flush := func() {
		if len(lit) > 0 {
			t.directives = append(t.directives, directive{literal: string(lit)})
			lit = nil
		}
	}

	i := 0
	for i < len(format) {
		if format[i] != '%' {
			lit = append(lit, format[i])
			i++
			continue
		}
		i++
		if i >= len(format) {
			return nil, parseErr(format, "format ends inside a directive")
		}
		if format[i] == '%' {
			lit = append(lit, '%')
			i++
			continue
		}

		flush()
		var d directive
		if format[i] == '-' {
			d.left = true
			i++
		}
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			d.width = d.width*10 + int(format[i]-'0')
			i++
		}
		if i >= len(format) {
			return nil, parseErr(format, "format ends inside a directive")
		}

		if format[i] == '{' {
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return nil, parseErr(format, "unterminated field reference")
			}
			d.field = format[i+1 : i+end]
			i += end + 1
			if _, ok := fields.Lookup(d.field); !ok {
				return nil, parseErr(format, fmt.Sprintf("unknown field %q", d.field))
			}
		} else {
			switch c := format[i]; c {
			case 'N', 'F', 'n', 'K', 'k', 'z', 'P', 'C', 'R', 'r':
				d.spec = c
			default:
				return nil, parseErr(format, fmt.Sprintf("unknown directive %%%c", c))
			}
			i++
		}
		t.directives = append(t.directives, d)
	}
	flush()
	return t, nil
}

func parseErr(format, msg string) error {
	return errors.NewXtagsError(errors.TemplateInvalid,
		fmt.Sprintf("%s in format %q", msg, format), nil)
}

// Source returns the format string the template was parsed from.
func (t *Template) Source() string {
	return t.source
}

// FieldRefs returns the names of the extra fields the template
// references, in order of first appearance.
func (t *Template) FieldRefs() []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range t.directives {
		if d.field != "" && !seen[d.field] {
			seen[d.field] = true
			out = append(out, d.field)
		}
	}
	return out
}

// Render produces the output line for one entry, without a trailing
// newline.
func (t *Template) Render(e *tags.Entry) string {
	var b strings.Builder
	for _, d := range t.directives {
		if d.literal != "" {
			b.WriteString(d.literal)
			continue
		}
		b.WriteString(pad(t.value(d, e), d.width, d.left))
	}
	return b.String()
}

func (t *Template) value(d directive, e *tags.Entry) string {
	if d.field != "" {
		v, _ := t.fields.Render(d.field, e)
		return v
	}
	switch d.spec {
	case 'N':
		return e.Name
	case 'F':
		return e.File
	case 'n':
		return strconv.Itoa(e.Line)
	case 'K', 'z':
		return e.KindName()
	case 'k':
		if e.Kind == nil {
			return ""
		}
		return string(e.Kind.Letter)
	case 'P':
		return e.Pattern
	case 'C':
		return CompactLine(e.LineText)
	case 'R':
		return e.Marker()
	case 'r':
		return e.RoleName()
	}
	return ""
}

func pad(v string, width int, left bool) string {
	if width <= 0 || len(v) >= width {
		return v
	}
	if left {
		return v + strings.Repeat(" ", width-len(v))
	}
	return strings.Repeat(" ", width-len(v)) + v
}

// CompactLine trims a source line and collapses interior whitespace
// runs into single spaces, the form used for %C and summary output.
func CompactLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
