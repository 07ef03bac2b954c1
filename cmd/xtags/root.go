package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"xtags/internal/config"
	"xtags/internal/errors"
	"xtags/internal/logging"
	"xtags/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "xtags",
	Short: "xtags - tag generation through external parsers",
	Long: `xtags drives an external parser process over source files and turns
its replies into ctags-style tag output, a queryable tag store, and
interchange exports. The parser is any program that reads one file
path per line on stdin and answers each with a JSON array of tag
records.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("xtags version {{.Version}}\n")
}

// mustRepoRoot returns the repository root or exits on error.
func mustRepoRoot() string {
	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

// newLogger builds the logger the loaded configuration asks for.
func newLogger(cfg config.LoggingConfig) *logging.Logger {
	format := logging.HumanFormat
	if cfg.Format == "json" {
		format = logging.JSONFormat
	}
	level := logging.LogLevel(cfg.Level)
	if level == "" {
		level = logging.InfoLevel
	}
	return logging.NewLogger(logging.Config{Format: format, Level: level})
}

// printSuggestedFixes writes the fix actions attached to err, if any.
func printSuggestedFixes(w io.Writer, err error) {
	var xe *errors.XtagsError
	if !stderrors.As(err, &xe) || len(xe.SuggestedFixes) == 0 {
		return
	}
	fmt.Fprintln(w, "Suggested fixes:")
	for _, fix := range xe.SuggestedFixes {
		if fix.Command != "" {
			fmt.Fprintf(w, "  run: %s\n", fix.Command)
		}
		if fix.URL != "" {
			fmt.Fprintf(w, "  see: %s\n", fix.URL)
		}
		if fix.Description != "" {
			fmt.Fprintf(w, "       %s\n", fix.Description)
		}
	}
}
