// Package export turns the tag store into interchange artifacts:
// JSON lines for ad-hoc tooling and SCIP protobuf indexes for code
// intelligence consumers. Either format can be wrapped in a zstd
// stream.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"xtags/internal/errors"
	"xtags/internal/logging"
	"xtags/internal/storage"
	"xtags/internal/tags"
	"xtags/internal/version"
)

// Format selects an export encoding.
type Format string

const (
	// FormatJSONL emits one JSON object per stored tag.
	FormatJSONL Format = "jsonl"
	// FormatSCIP emits a SCIP protobuf index.
	FormatSCIP Format = "scip"
)

// ParseFormat validates a format name from flags or config.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSONL, FormatSCIP:
		return Format(name), nil
	default:
		return "", errors.NewXtagsError(errors.ExportFailed,
			fmt.Sprintf("unknown export format %q (want jsonl or scip)", name), nil)
	}
}

// Options control a single export run.
type Options struct {
	Format Format

	// Compress forces a zstd wrapper. A destination path ending in
	// .zst enables it implicitly.
	Compress bool

	// ProjectRoot is recorded in SCIP metadata as a file:// URI.
	ProjectRoot string

	// Parser is the external parser command line, recorded in SCIP
	// tool info.
	Parser string
}

// Source is the slice of the tag store exporters read from.
type Source interface {
	Files() ([]string, error)
	TagsByFile(path string) ([]storage.StoredTag, error)
}

// Exporter writes stored tags out in a selected format.
type Exporter struct {
	store  Source
	logger *logging.Logger
}

// NewExporter creates an exporter over the given store.
func NewExporter(store Source, logger *logging.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// Export writes the store to path in opts.Format, compressing with
// zstd when opts.Compress is set or path ends in .zst.
func (e *Exporter) Export(path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewXtagsError(errors.ExportFailed,
			fmt.Sprintf("cannot create export file %s", path), err)
	}

	compressed := opts.Compress || strings.HasSuffix(path, ".zst")
	var w io.Writer = f
	var zw *zstd.Encoder
	if compressed {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return errors.NewXtagsError(errors.ExportFailed, "cannot start zstd stream", err)
		}
		w = zw
	}

	files, total, err := e.write(w, opts)
	if err == nil && zw != nil {
		if cerr := zw.Close(); cerr != nil {
			err = errors.NewXtagsError(errors.ExportFailed, "cannot finish zstd stream", cerr)
		}
	}
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewXtagsError(errors.ExportFailed,
			fmt.Sprintf("cannot finish export file %s", path), err)
	}

	e.logger.Info("Exported tags", map[string]interface{}{
		"path":       path,
		"format":     string(opts.Format),
		"compressed": compressed,
		"files":      files,
		"tags":       total,
	})
	return nil
}

func (e *Exporter) write(w io.Writer, opts Options) (files, total int, err error) {
	switch opts.Format {
	case FormatJSONL:
		return e.writeJSONL(w)
	case FormatSCIP:
		return e.writeSCIP(w, opts)
	default:
		return 0, 0, errors.NewXtagsError(errors.ExportFailed,
			fmt.Sprintf("unknown export format %q", opts.Format), nil)
	}
}

// jsonlTag fixes the key order of JSONL records.
type jsonlTag struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Role        string `json:"role"`
	Line        int    `json:"line"`
	Pattern     string `json:"pattern,omitempty"`
	EncodedName string `json:"encodedName,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

func (e *Exporter) writeJSONL(w io.Writer) (int, int, error) {
	paths, err := e.store.Files()
	if err != nil {
		return 0, 0, err
	}

	enc := json.NewEncoder(w)
	total := 0
	for _, path := range paths {
		stored, err := e.store.TagsByFile(path)
		if err != nil {
			return 0, 0, err
		}
		for _, tag := range stored {
			rec := jsonlTag{
				File:        tag.File,
				Name:        tag.Name,
				Kind:        tag.Kind,
				Role:        tag.Role,
				Line:        tag.Line,
				Pattern:     tag.Pattern,
				EncodedName: tag.EncodedName,
				Summary:     tag.Summary,
			}
			if err := enc.Encode(rec); err != nil {
				return 0, 0, errors.NewXtagsError(errors.ExportFailed, "cannot encode tag record", err)
			}
			total++
		}
	}
	return len(paths), total, nil
}

func (e *Exporter) writeSCIP(w io.Writer, opts Options) (int, int, error) {
	index, files, total, err := e.buildIndex(opts)
	if err != nil {
		return 0, 0, err
	}
	data, err := proto.Marshal(index)
	if err != nil {
		return 0, 0, errors.NewXtagsError(errors.ExportFailed, "cannot marshal SCIP index", err)
	}
	if _, err := w.Write(data); err != nil {
		return 0, 0, errors.NewXtagsError(errors.ExportFailed, "cannot write SCIP index", err)
	}
	return files, total, nil
}

func (e *Exporter) buildIndex(opts Options) (*scippb.Index, int, int, error) {
	root := opts.ProjectRoot
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:      "xtags",
				Version:   version.Version,
				Arguments: toolArguments(opts.Parser),
			},
			ProjectRoot:          "file://" + filepath.ToSlash(root),
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	paths, err := e.store.Files()
	if err != nil {
		return nil, 0, 0, err
	}

	total := 0
	for _, path := range paths {
		stored, err := e.store.TagsByFile(path)
		if err != nil {
			return nil, 0, 0, err
		}

		doc := &scippb.Document{RelativePath: filepath.ToSlash(path)}
		declared := make(map[string]bool)
		for _, tag := range stored {
			sym := symbolFor(tag)
			occ := &scippb.Occurrence{
				Range:  occurrenceRange(tag),
				Symbol: sym,
			}
			if tag.Role == tags.DefinitionRole {
				occ.SymbolRoles = int32(scippb.SymbolRole_Definition)
			}
			doc.Occurrences = append(doc.Occurrences, occ)

			if tag.Role == tags.DefinitionRole && !declared[sym] {
				declared[sym] = true
				info := &scippb.SymbolInformation{
					Symbol:      sym,
					DisplayName: tag.Name,
				}
				if tag.Summary != "" {
					info.Documentation = []string{tag.Summary}
				}
				doc.Symbols = append(doc.Symbols, info)
			}
			total++
		}
		index.Documents = append(index.Documents, doc)
	}
	return index, len(paths), total, nil
}

func toolArguments(parser string) []string {
	if parser == "" {
		return nil
	}
	return []string{"--parser=" + parser}
}

// symbolFor builds a SCIP symbol string. The encoded name is already
// percent-escaped; a raw fallback name still needs its spaces hidden
// because the symbol grammar reserves them as separators.
func symbolFor(tag storage.StoredTag) string {
	name := tag.EncodedName
	if name == "" {
		name = strings.ReplaceAll(tag.Name, " ", "%20")
	}
	return "xtags . . . " + name + "."
}

// occurrenceRange maps a 1-based tag line to a zero-length SCIP range
// at the start of that 0-based line.
func occurrenceRange(tag storage.StoredTag) []int32 {
	line := int32(tag.Line) - 1
	if line < 0 {
		line = 0
	}
	return []int32{line, 0, 0}
}
