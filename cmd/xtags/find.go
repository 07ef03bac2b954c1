package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"xtags/internal/config"
	"xtags/internal/errors"
	"xtags/internal/output"
	"xtags/internal/paths"
	"xtags/internal/registry"
	"xtags/internal/render"
	"xtags/internal/storage"
	"xtags/internal/tags"
)

var (
	findKind   string
	findPrefix bool
	findLimit  int
	findOutput string
)

var findCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Look up stored tags by name",
	Long: `Query the tag store written by 'xtags index' for tags matching a
name, and print them in xref or JSON form.

Examples:
  xtags find main
  xtags find --prefix parse
  xtags find --kind function --limit 10 main
  xtags find -o json main`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findKind, "kind", "", "Keep only tags of this kind")
	findCmd.Flags().BoolVar(&findPrefix, "prefix", false, "Match names by prefix instead of exactly")
	findCmd.Flags().IntVar(&findLimit, "limit", 0, "Cap the number of results (0 = unlimited)")
	findCmd.Flags().StringVarP(&findOutput, "output", "o", "", "Output format: xref or json")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	repoRoot := mustRepoRoot()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	// Opening would create an empty database; a missing one means no
	// index run has happened yet.
	dbPath := paths.DBPath(repoRoot, cfg.Store.Path)
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			"no tag store found, run 'xtags index' first", statErr)
	}

	store, err := storage.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	found, err := store.QueryByName(args[0], storage.QueryOptions{
		Prefix: findPrefix,
		Kind:   findKind,
		Limit:  findLimit,
	})
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if cmd.Flags().Changed("output") {
		format = findOutput
	}
	return writeFound(os.Stdout, found, cfg.Xformat, format)
}

// writeFound renders stored rows through the regular output writers.
// Rows carry their rendered field values, so the field set serves
// those back instead of recomputing them.
func writeFound(w io.Writer, found []storage.StoredTag, xformat, format string) error {
	byEntry := make(map[*tags.Entry]storage.StoredTag, len(found))

	fields := tags.NewFieldSet()
	fields.Register(&tags.Field{
		Name:        "encodedName",
		Description: "tag name with query-unsafe bytes percent encoded",
		Render: func(e *tags.Entry) string {
			return byEntry[e].EncodedName
		},
	})
	fields.Register(&tags.Field{
		Name:        "summary",
		Description: "rendered summary line",
		Render: func(e *tags.Entry) string {
			return byEntry[e].Summary
		},
	})

	entries := make([]*tags.Entry, 0, len(found))
	for _, t := range found {
		e := storedEntry(t)
		byEntry[e] = t
		entries = append(entries, e)
		if t.EncodedName != "" {
			fields.Enable("encodedName")
		}
		if t.Summary != "" {
			fields.Enable("summary")
		}
	}

	var writer output.Writer
	switch format {
	case "json":
		writer = output.NewJSONWriter(w, fields)
	default:
		if xformat == "" {
			xformat = output.DefaultXrefFormat
		}
		tmpl, err := render.Parse(xformat, fields)
		if err != nil {
			return err
		}
		writer = output.NewXrefWriter(w, tmpl)
	}

	for _, e := range entries {
		if err := writer.Write(e); err != nil {
			return err
		}
	}
	return nil
}

// storedEntry rebuilds a renderable entry from a stored row. The
// summary column holds the compacted input line, so %C still works.
func storedEntry(t storage.StoredTag) *tags.Entry {
	e := &tags.Entry{
		Name:      t.Name,
		RoleIndex: tags.RoleDefinition,
		File:      t.File,
		Line:      t.Line,
		Pattern:   t.Pattern,
		LineText:  t.Summary,
	}
	if t.Kind != "" {
		// The kind letter is not persisted; fall back to the name's
		// first byte.
		e.Kind = &registry.Kind{Name: t.Kind, Letter: t.Kind[0]}
	}
	if t.Role != tags.DefinitionRole {
		if e.Kind == nil {
			e.Kind = &registry.Kind{}
		}
		e.Kind.Roles = []registry.Role{{Name: t.Role, Enabled: true}}
		e.RoleIndex = 0
	}
	return e
}
