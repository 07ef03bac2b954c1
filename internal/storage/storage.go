// Package storage persists indexed tags in a SQLite database under the
// .xtags directory. One row per emitted tag, grouped by file, with run
// provenance for incremental re-indexing.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"xtags/internal/errors"
	"xtags/internal/logging"
)

// StoredTag is one persisted tag row. File is filled on reads.
type StoredTag struct {
	File        string
	Name        string
	Kind        string
	Role        string
	Line        int
	Pattern     string
	EncodedName string
	Summary     string
}

// QueryOptions narrow a QueryByName lookup.
type QueryOptions struct {
	// Prefix matches names starting with the query instead of exactly.
	Prefix bool

	// Kind keeps only tags of the named kind when non-empty.
	Kind string

	// Limit caps the result set when positive.
	Limit int
}

// Store wraps the tag database.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the tag database at dbPath.
func Open(dbPath string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot create store directory", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot open tag database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.NewXtagsError(errors.StoreFailed,
				"cannot set pragma", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating tag database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot initialize schema", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			parser TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);

		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			hash TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			indexed_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);

		CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			role TEXT NOT NULL,
			line INTEGER NOT NULL,
			pattern TEXT NOT NULL DEFAULT '',
			encoded_name TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name);
		CREATE INDEX IF NOT EXISTS idx_tags_kind ON tags(kind);
		CREATE INDEX IF NOT EXISTS idx_tags_file ON tags(file_id);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// BeginRun records a new indexing run and returns its id.
func (s *Store) BeginRun(parser string) (string, error) {
	id := uuid.NewString()
	startedAt := time.Now().UTC().Format(time.RFC3339)

	_, err := s.conn.Exec(
		"INSERT INTO runs (id, parser, started_at) VALUES (?, ?, ?)",
		id, parser, startedAt,
	)
	if err != nil {
		return "", errors.NewXtagsError(errors.StoreFailed,
			"cannot record run", err)
	}

	s.logger.Debug("Started indexing run", map[string]interface{}{
		"runId":  id,
		"parser": parser,
	})
	return id, nil
}

// FinishRun marks a run as completed.
func (s *Store) FinishRun(runID string) error {
	finishedAt := time.Now().UTC().Format(time.RFC3339)

	result, err := s.conn.Exec(
		"UPDATE runs SET finished_at = ? WHERE id = ?",
		finishedAt, runID,
	)
	if err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			"cannot finish run", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NewXtagsError(errors.StoreFailed,
			fmt.Sprintf("run not found: %s", runID), nil)
	}
	return nil
}

// FileUnchanged reports whether path is already stored with the given
// content hash. Unknown paths report false.
func (s *Store) FileUnchanged(path, hash string) (bool, error) {
	var stored string
	err := s.conn.QueryRow(
		"SELECT hash FROM files WHERE path = ?", path,
	).Scan(&stored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewXtagsError(errors.StoreFailed,
			"cannot look up file hash", err)
	}
	return stored == hash, nil
}

// ReplaceFileTags replaces all stored tags for path in one transaction.
func (s *Store) ReplaceFileTags(runID, path, hash string, entries []StoredTag) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			"cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`
		INSERT INTO files (path, hash, run_id, indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			run_id = excluded.run_id,
			indexed_at = excluded.indexed_at
	`, path, hash, runID, indexedAt)
	if err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			fmt.Sprintf("cannot record file %s", path), err)
	}

	var fileID int64
	if err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID); err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			fmt.Sprintf("cannot resolve file id for %s", path), err)
	}

	if _, err := tx.Exec("DELETE FROM tags WHERE file_id = ?", fileID); err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			fmt.Sprintf("cannot clear old tags for %s", path), err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tags (file_id, name, kind, role, line, pattern, encoded_name, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			"cannot prepare tag insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.Exec(
			fileID, e.Name, e.Kind, e.Role, e.Line,
			e.Pattern, e.EncodedName, e.Summary,
		); err != nil {
			return errors.NewXtagsError(errors.StoreFailed,
				fmt.Sprintf("cannot store tag %s", e.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewXtagsError(errors.StoreFailed,
			fmt.Sprintf("cannot commit tags for %s", path), err)
	}

	s.logger.Debug("Stored file tags", map[string]interface{}{
		"path": path,
		"tags": len(entries),
	})
	return nil
}

// QueryByName returns stored tags matching name, ordered by name, file,
// line.
func (s *Store) QueryByName(name string, opts QueryOptions) ([]StoredTag, error) {
	conditions := []string{"t.name = ?"}
	args := []interface{}{name}

	if opts.Prefix {
		conditions[0] = `t.name LIKE ? ESCAPE '\'`
		args[0] = escapeLike(name) + "%"
	}
	if opts.Kind != "" {
		conditions = append(conditions, "t.kind = ?")
		args = append(args, opts.Kind)
	}

	query := fmt.Sprintf(`
		SELECT t.name, t.kind, t.role, t.line, t.pattern, t.encoded_name, t.summary, f.path
		FROM tags t
		JOIN files f ON f.id = t.file_id
		WHERE %s
		ORDER BY t.name, f.path, t.line
	`, strings.Join(conditions, " AND "))

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot query tags", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []StoredTag
	for rows.Next() {
		var t StoredTag
		if err := rows.Scan(
			&t.Name, &t.Kind, &t.Role, &t.Line,
			&t.Pattern, &t.EncodedName, &t.Summary, &t.File,
		); err != nil {
			return nil, errors.NewXtagsError(errors.StoreFailed,
				"cannot scan tag row", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"error iterating tags", err)
	}
	return tags, nil
}

// TagsByFile returns all stored tags for one file path in line order.
func (s *Store) TagsByFile(path string) ([]StoredTag, error) {
	rows, err := s.conn.Query(`
		SELECT t.name, t.kind, t.role, t.line, t.pattern, t.encoded_name, t.summary, f.path
		FROM tags t
		JOIN files f ON f.id = t.file_id
		WHERE f.path = ?
		ORDER BY t.line, t.id
	`, path)
	if err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot query file tags", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []StoredTag
	for rows.Next() {
		var t StoredTag
		if err := rows.Scan(
			&t.Name, &t.Kind, &t.Role, &t.Line,
			&t.Pattern, &t.EncodedName, &t.Summary, &t.File,
		); err != nil {
			return nil, errors.NewXtagsError(errors.StoreFailed,
				"cannot scan tag row", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Files returns all stored file paths in path order.
func (s *Store) Files() ([]string, error) {
	rows, err := s.conn.Query("SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, errors.NewXtagsError(errors.StoreFailed,
			"cannot list files", err)
	}
	defer func() { _ = rows.Close() }()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.NewXtagsError(errors.StoreFailed,
				"cannot scan file row", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Stats returns the stored file and tag counts.
func (s *Store) Stats() (files int, tags int, err error) {
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM files").Scan(&files); err != nil {
		return 0, 0, errors.NewXtagsError(errors.StoreFailed,
			"cannot count files", err)
	}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM tags").Scan(&tags); err != nil {
		return 0, 0, errors.NewXtagsError(errors.StoreFailed,
			"cannot count tags", err)
	}
	return files, tags, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
