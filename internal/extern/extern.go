// Package extern drives the external parser protocol: it requests the
// tag list for each input file, orders the raw records by line,
// advances the input cursor, and emits finished tag entries into a
// sink.
package extern

import (
	"encoding/json"
	"os"
	"sort"

	"xtags/internal/encode"
	"xtags/internal/errors"
	"xtags/internal/logging"
	"xtags/internal/paths"
	"xtags/internal/reader"
	"xtags/internal/registry"
	"xtags/internal/render"
	"xtags/internal/tags"
)

// Requester answers one file path with one raw JSON reply. It is
// satisfied by bridge.Bridge.
type Requester interface {
	Request(path string) (json.RawMessage, error)
}

// Options configures tag resolution.
type Options struct {
	// Backward selects ?...? search patterns instead of /.../.
	Backward bool

	// PatternLengthLimit caps pattern length in bytes; 0 means
	// unlimited.
	PatternLengthLimit int

	// WorkDir is the directory absolute request paths are made
	// relative to. Empty means the current directory, resolved once.
	WorkDir string
}

// Parser resolves raw parser replies into tag entries.
type Parser struct {
	bridge    Requester
	reg       *registry.Registry
	rules     *registry.FormatRules
	fields    *tags.FieldSet
	opts      Options
	logger    *logging.Logger
	summaries map[string]*render.Template
}

// New creates a parser driver. It must be called after kind and rule
// configuration is complete: the extra fields are registered into
// fields here and every configured summary template is compiled and
// validated up front.
func New(bridge Requester, reg *registry.Registry, rules *registry.FormatRules,
	fields *tags.FieldSet, opts Options, logger *logging.Logger) (*Parser, error) {

	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewXtagsError(errors.InternalError,
				"failed to get current directory", err)
		}
		opts.WorkDir = wd
	}

	p := &Parser{
		bridge: bridge,
		reg:    reg,
		rules:  rules,
		fields: fields,
		opts:   opts,
		logger: logger,
	}
	p.registerFields()
	if err := p.compileSummaries(); err != nil {
		return nil, err
	}
	return p, nil
}

// FindTags runs one request/reply cycle for the input and emits the
// resulting entries into sink in line order.
func (p *Parser) FindTags(in *reader.Input, sink tags.Sink) error {
	raw, err := p.bridge.Request(paths.ForRequest(in.Path(), p.opts.WorkDir))
	if err != nil {
		return err
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return err
	}

	// Order by line so the input cursor only moves forward. Records
	// on the same line keep their reply order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].line < records[j].line
	})

	for _, rec := range records {
		for in.LineNumber() < rec.line {
			if _, ok := in.Next(); !ok {
				break
			}
		}

		kind, ok := p.reg.LookupByName(rec.kind)
		if !ok {
			p.logger.Debug("Skipping tag with unknown kind", map[string]interface{}{
				"kind": rec.kind,
				"name": rec.name,
				"file": in.Path(),
			})
			continue
		}

		roleIndex := tags.RoleDefinition
		if kind.RoleCount() > 0 {
			roleIndex = 0
		}
		p.emit(in, sink, rec.name, kind, roleIndex)
	}

	if err := in.Err(); err != nil {
		return errors.NewXtagsError(errors.InputUnreadable,
			"failed reading "+in.Path(), err)
	}
	return nil
}

func (p *Parser) emit(in *reader.Input, sink tags.Sink, name string,
	kind *registry.Kind, roleIndex int) {

	if roleIndex != tags.RoleDefinition && !kind.RoleEnabled(roleIndex) {
		p.logger.Debug("Skipping tag with disabled role", map[string]interface{}{
			"name": name,
			"kind": kind.Name,
			"role": kind.Roles[roleIndex].Name,
		})
		return
	}

	// A file shorter than the requested line leaves the cursor on the
	// final line; an empty file leaves no line and no pattern.
	pattern := ""
	lineText := ""
	if text, ok := in.Current(); ok {
		lineText = text
		pattern = encode.SearchPattern(text, p.opts.Backward, p.opts.PatternLengthLimit)
	}

	sink.Submit(&tags.Entry{
		Name:      name,
		Kind:      kind,
		RoleIndex: roleIndex,
		File:      in.Path(),
		Line:      in.LineNumber(),
		Pattern:   pattern,
		LineText:  lineText,
	})
}
