package main

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xtags/internal/bridge"
	"xtags/internal/config"
	"xtags/internal/errors"
	"xtags/internal/extern"
	"xtags/internal/logging"
	"xtags/internal/output"
	"xtags/internal/paths"
	"xtags/internal/reader"
	"xtags/internal/registry"
	"xtags/internal/render"
	"xtags/internal/storage"
	"xtags/internal/tags"
	"xtags/internal/watcher"
)

var (
	indexParser       string
	indexKinds        string
	indexKindsFile    string
	indexXformat      string
	indexBackward     bool
	indexPatternLimit int
	indexOutputFormat string
	indexFields       []string
	indexNoSort       bool
	indexStoreOn      bool
	indexNoStore      bool
	indexForce        bool
	indexWatch        bool
	indexFilesFrom    string
)

var indexCmd = &cobra.Command{
	Use:   "index [files...]",
	Short: "Run the external parser over source files and emit tags",
	Long: `Run the configured external parser over the given source files and
emit one tag per reported symbol.

The parser is spawned once for the whole run and fed one file path
per line on stdin; it answers each with a JSON array of {name, kind,
line} records. Kinds must be declared with --kinds or a kinds file;
tags with undeclared kinds are skipped.

Examples:
  xtags index src/main.c src/util.c
  xtags index --kinds 'def:d,class:c' src/app.py
  git ls-files '*.py' | xtags index -L -
  xtags index --watch src/main.c src/util.c`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexParser, "parser", "p", "", "External parser command (overrides config)")
	indexCmd.Flags().StringVar(&indexKinds, "kinds", "", "Kind clauses: name:letter[:role[:prefix[:summary]]], comma separated")
	indexCmd.Flags().StringVar(&indexKindsFile, "kinds-file", "", "YAML or TOML kind manifest")
	indexCmd.Flags().StringVar(&indexXformat, "xformat", "", "Xref line template (overrides config)")
	indexCmd.Flags().BoolVar(&indexBackward, "backward", false, "Emit ?...? backward search patterns")
	indexCmd.Flags().IntVar(&indexPatternLimit, "pattern-length-limit", 0, "Cap search pattern length in bytes (0 = unlimited)")
	indexCmd.Flags().StringVarP(&indexOutputFormat, "output", "o", "", "Output format: xref, json, or none")
	indexCmd.Flags().StringSliceVar(&indexFields, "fields", nil, "Extra fields to enable (encodedName, summary)")
	indexCmd.Flags().BoolVar(&indexNoSort, "no-sort", false, "Emit tags in parser order instead of sorted")
	indexCmd.Flags().BoolVar(&indexStoreOn, "store", false, "Persist tags to the .xtags store")
	indexCmd.Flags().BoolVar(&indexNoStore, "no-store", false, "Skip the tag store for this run")
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "Reindex files even when their content is unchanged")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "Keep running and reindex the given files as they change")
	indexCmd.Flags().StringVarP(&indexFilesFrom, "files-from", "L", "", "Read input paths from a file, one per line (- for stdin)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	repoRoot := mustRepoRoot()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	applyIndexFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)

	files, err := collectInputs(args, indexFilesFrom)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.NewXtagsError(errors.InputUnreadable,
			"no input files given", nil)
	}
	for i, f := range files {
		files[i] = canonicalInput(repoRoot, f)
	}

	if cfg.Parser == "" {
		return errors.NewXtagsError(errors.ParserUnconfigured,
			"no external parser configured", nil)
	}

	run, err := newIndexRun(repoRoot, cfg, logger)
	if err != nil {
		return err
	}
	defer run.Close()

	if err := run.IndexAll(files); err != nil {
		return err
	}
	if indexWatch {
		return run.Watch(files)
	}
	return nil
}

// applyIndexFlags overlays changed CLI flags onto the loaded
// configuration. Flags win over both the file and the environment.
func applyIndexFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("parser") {
		cfg.Parser = indexParser
	}
	if flags.Changed("kinds") {
		cfg.Kinds = indexKinds
	}
	if flags.Changed("kinds-file") {
		cfg.KindsFile = indexKindsFile
	}
	if flags.Changed("xformat") {
		cfg.Xformat = indexXformat
	}
	if flags.Changed("backward") {
		cfg.Backward = indexBackward
	}
	if flags.Changed("pattern-length-limit") {
		cfg.PatternLengthLimit = indexPatternLimit
	}
	if flags.Changed("output") {
		cfg.Output.Format = indexOutputFormat
	}
	if flags.Changed("fields") {
		cfg.Fields = indexFields
	}
	if indexNoSort {
		cfg.Output.Sort = false
	}
	if indexStoreOn {
		cfg.Store.Enabled = true
	}
	if indexNoStore {
		cfg.Store.Enabled = false
	}
}

// collectInputs merges positional file arguments with paths read from
// the --files-from list, one per line. Blank lines are skipped.
func collectInputs(args []string, listPath string) ([]string, error) {
	files := append([]string{}, args...)
	if listPath == "" {
		return files, nil
	}

	var r io.Reader
	if listPath == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(listPath)
		if err != nil {
			return nil, errors.NewXtagsError(errors.InputUnreadable,
				fmt.Sprintf("cannot read file list %s", listPath), err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot read file list %s", listPath), err)
	}
	return files, nil
}

// canonicalInput rewrites an input path into the form used for parser
// requests, output, and store keys: cleaned, and relative to the repo
// root when it lies inside it.
func canonicalInput(repoRoot, path string) string {
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) || !paths.IsWithin(p, repoRoot) {
		return p
	}
	rel, err := filepath.Rel(repoRoot, p)
	if err != nil {
		return p
	}
	return rel
}

// indexRun holds the wired pipeline for one index invocation: one
// bridge process, one parser driver, and one optional store, reused
// across every input file and across watch-mode reindexes.
type indexRun struct {
	repoRoot string
	cfg      *config.Config
	logger   *logging.Logger

	bridge *bridge.Bridge
	parser *extern.Parser
	fields *tags.FieldSet
	writer output.Writer

	store *storage.Store
	runID string

	filesIndexed int
	tagsEmitted  int
	filesSkipped int
}

func newIndexRun(repoRoot string, cfg *config.Config, logger *logging.Logger) (*indexRun, error) {
	reg := registry.New()
	rules := registry.NewFormatRules()

	if cfg.KindsFile != "" {
		defs, err := config.LoadKindsFile(cfg.KindsFile)
		if err != nil {
			return nil, err
		}
		if err := registry.ApplyKindDefs(reg, rules, defs); err != nil {
			return nil, err
		}
	}
	if cfg.Kinds != "" {
		if err := registry.ApplyKindsOption(reg, rules, cfg.Kinds); err != nil {
			return nil, err
		}
	}
	if reg.Len() == 0 {
		logger.Warn("No kinds declared, every reported tag will be skipped", nil)
	}

	fields := tags.NewFieldSet()

	br := bridge.New(bridge.Config{Command: cfg.Parser, Dir: repoRoot}, logger)
	parser, err := extern.New(br, reg, rules, fields, extern.Options{
		Backward:           cfg.Backward,
		PatternLengthLimit: cfg.PatternLengthLimit,
		WorkDir:            repoRoot,
	}, logger)
	if err != nil {
		return nil, err
	}

	// Validate has checked the names already.
	for _, name := range cfg.Fields {
		fields.Enable(name)
	}

	writer, err := buildWriter(cfg, fields)
	if err != nil {
		return nil, err
	}

	run := &indexRun{
		repoRoot: repoRoot,
		cfg:      cfg,
		logger:   logger,
		bridge:   br,
		parser:   parser,
		fields:   fields,
		writer:   writer,
	}

	if cfg.Store.Enabled {
		store, err := storage.Open(paths.DBPath(repoRoot, cfg.Store.Path), logger)
		if err != nil {
			return nil, err
		}
		runID, err := store.BeginRun(cfg.Parser)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		run.store = store
		run.runID = runID
	}

	return run, nil
}

// buildWriter constructs the stdout writer for the configured output
// format, or nil when output is disabled. It must run after the extra
// fields are registered so templates can reference them.
func buildWriter(cfg *config.Config, fields *tags.FieldSet) (output.Writer, error) {
	switch cfg.Output.Format {
	case "json":
		return output.NewJSONWriter(os.Stdout, fields), nil
	case "none":
		return nil, nil
	default:
		format := cfg.Xformat
		if format == "" {
			format = output.DefaultXrefFormat
		}
		tmpl, err := render.Parse(format, fields)
		if err != nil {
			return nil, err
		}
		return output.NewXrefWriter(os.Stdout, tmpl), nil
	}
}

// IndexAll indexes every path in files, continuing past unreadable
// inputs and aborting on protocol or parser failures.
func (r *indexRun) IndexAll(files []string) error {
	start := time.Now()
	for _, path := range files {
		if err := r.IndexFile(path); err != nil {
			if isInputError(err) {
				r.logger.Warn("Skipping unreadable input", map[string]interface{}{
					"file":  path,
					"error": err.Error(),
				})
				r.filesSkipped++
				continue
			}
			return err
		}
	}
	r.logger.Info("Index run complete", map[string]interface{}{
		"files":      r.filesIndexed,
		"tags":       r.tagsEmitted,
		"skipped":    r.filesSkipped,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

// IndexFile runs one request/reply cycle for path, writes the emitted
// entries, and replaces the file's rows in the store when enabled.
func (r *indexRun) IndexFile(path string) error {
	var hash string
	if r.store != nil {
		h, err := storage.HashFile(path)
		if err != nil {
			return err
		}
		hash = h
		if !indexForce {
			unchanged, err := r.store.FileUnchanged(path, hash)
			if err != nil {
				return err
			}
			if unchanged {
				r.logger.Debug("File unchanged, skipping", map[string]interface{}{
					"file": path,
				})
				r.filesSkipped++
				return nil
			}
		}
	}

	in, err := reader.Open(path)
	if err != nil {
		return err
	}

	cork := tags.NewCorkQueue()
	if err := r.parser.FindTags(in, cork); err != nil {
		_ = in.Close()
		return err
	}
	if err := in.Close(); err != nil {
		return errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot close %s", path), err)
	}

	entries := cork.Drain()
	if r.cfg.Output.Sort {
		output.SortEntries(entries)
	}

	if r.writer != nil {
		for _, e := range entries {
			if err := r.writer.Write(e); err != nil {
				return errors.NewXtagsError(errors.InternalError,
					"cannot write tag output", err)
			}
		}
	}

	if r.store != nil {
		stored := make([]storage.StoredTag, 0, len(entries))
		for _, e := range entries {
			// Rendered regardless of enablement, so find and export
			// always have the values.
			encoded, _ := r.fields.Render("encodedName", e)
			summary, _ := r.fields.Render("summary", e)
			stored = append(stored, storage.StoredTag{
				Name:        e.Name,
				Kind:        e.KindName(),
				Role:        e.RoleName(),
				Line:        e.Line,
				Pattern:     e.Pattern,
				EncodedName: encoded,
				Summary:     summary,
			})
		}
		if err := r.store.ReplaceFileTags(r.runID, path, hash, stored); err != nil {
			return err
		}
	}

	r.filesIndexed++
	r.tagsEmitted += len(entries)
	return nil
}

// Watch blocks, reindexing watched inputs as they change, until an
// interrupt or termination signal arrives. Reindexes run through the
// same parser process as the initial pass, one file at a time.
func (r *indexRun) Watch(files []string) error {
	watched := make(map[string]bool, len(files))
	for _, f := range files {
		watched[filepath.Clean(f)] = true
	}

	batches := make(chan []string, 16)
	w, err := watcher.New(r.repoRoot, watcher.Config{
		DebounceMs: r.cfg.Watch.DebounceMs,
		IgnoreDirs: r.cfg.Watch.Ignore,
	}, r.logger, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		select {
		case sig := <-sigCh:
			r.logger.Info("Shutting down watch mode", map[string]interface{}{
				"signal": sig.String(),
			})
			return nil
		case batch := <-batches:
			for _, path := range batch {
				if !watched[filepath.Clean(path)] {
					continue
				}
				if err := r.IndexFile(path); err != nil {
					if isInputError(err) {
						r.logger.Warn("Skipping unreadable input", map[string]interface{}{
							"file":  path,
							"error": err.Error(),
						})
						continue
					}
					return err
				}
			}
		}
	}
}

// Close releases the run's store and parser process.
func (r *indexRun) Close() {
	if r.store != nil {
		if err := r.store.FinishRun(r.runID); err != nil {
			r.logger.Warn("Failed to finish run", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if err := r.store.Close(); err != nil {
			r.logger.Warn("Failed to close store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if err := r.bridge.Shutdown(); err != nil {
		r.logger.Warn("Parser shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func isInputError(err error) bool {
	var xe *errors.XtagsError
	return stderrors.As(err, &xe) && xe.Code == errors.InputUnreadable
}
