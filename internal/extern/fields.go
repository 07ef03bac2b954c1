package extern

import (
	"fmt"

	"xtags/internal/encode"
	"xtags/internal/errors"
	"xtags/internal/render"
	"xtags/internal/tags"
)

// defaultSummaryFormat renders the compacted input line, used for any
// kind without its own summary template.
const defaultSummaryFormat = "%C"

// registerFields attaches the two lazily rendered extra fields every
// entry carries. Both start disabled; output configuration or a
// template reference activates them.
func (p *Parser) registerFields() {
	p.fields.Register(&tags.Field{
		Name:        "encodedName",
		Description: "encoded tag name",
		Render:      p.renderEncodedName,
	})
	p.fields.Register(&tags.Field{
		Name:        "summary",
		Description: "summary line",
		Render:      p.renderSummary,
	})
}

func (p *Parser) renderEncodedName(e *tags.Entry) string {
	return encode.EncodedName(e.Name, e.KindName(), p.rules)
}

func (p *Parser) renderSummary(e *tags.Entry) string {
	tmpl, ok := p.summaries[e.KindName()]
	if !ok {
		tmpl = p.summaries[""]
	}
	return tmpl.Render(e)
}

// compileSummaries parses every configured summary template plus the
// default, so malformed templates fail at configuration time instead
// of mid-output. A summary template may reference encodedName but not
// summary itself.
func (p *Parser) compileSummaries() error {
	p.summaries = make(map[string]*render.Template)

	def, err := render.Parse(defaultSummaryFormat, p.fields)
	if err != nil {
		return err
	}
	p.summaries[""] = def

	for _, rule := range p.rules.All() {
		if rule.Summary == "" {
			continue
		}
		tmpl, err := render.Parse(rule.Summary, p.fields)
		if err != nil {
			return err
		}
		for _, ref := range tmpl.FieldRefs() {
			if ref == "summary" {
				return errors.NewXtagsError(errors.TemplateInvalid,
					fmt.Sprintf("summary template for kind %q references the summary field", rule.KindName), nil)
			}
		}
		p.summaries[rule.KindName] = tmpl
	}
	return nil
}
