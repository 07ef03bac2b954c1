package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xtags/internal/config"
	"xtags/internal/errors"
	"xtags/internal/export"
	"xtags/internal/paths"
	"xtags/internal/storage"
)

var (
	exportFormat   string
	exportOut      string
	exportCompress bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored tags to an interchange file",
	Long: `Export the tag store as JSON Lines or as a SCIP index.

Examples:
  xtags export                        # tags.jsonl in the current directory
  xtags export --format scip          # index.scip
  xtags export --out tags.jsonl.zst   # zstd compressed, by suffix
  xtags export --compress             # zstd compressed, by flag`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "Export format: jsonl or scip")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Destination path (default tags.jsonl or index.scip)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "Compress the output with zstd")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustRepoRoot()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	out := exportOut
	if out == "" {
		out = defaultExportPath(format)
	}

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

	exporter := export.NewExporter(store, logger)
	if err := exporter.Export(out, export.Options{
		Format:      format,
		Compress:    exportCompress,
		ProjectRoot: repoRoot,
		Parser:      cfg.Parser,
	}); err != nil {
		return err
	}

	fmt.Printf("Exported to %s\n", out)
	return nil
}

// defaultExportPath picks the conventional file name for a format.
func defaultExportPath(format export.Format) string {
	if format == export.FormatSCIP {
		return "index.scip"
	}
	return "tags.jsonl"
}
