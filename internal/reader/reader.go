// Package reader provides buffered line access to input files with a
// one-based cursor that only moves forward. Lines keep their trailing
// newline bytes so downstream escaping can tell line endings apart.
package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"xtags/internal/errors"
)

// Input is one source file being read for tagging.
type Input struct {
	path    string
	closer  io.Closer
	br      *bufio.Reader
	lineNo  int
	cur     string
	haveCur bool
	eof     bool
	err     error
}

// Open opens a file for line access.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewXtagsError(errors.InputUnreadable,
			fmt.Sprintf("cannot open %s", path), err)
	}
	return &Input{path: path, closer: f, br: bufio.NewReader(f)}, nil
}

// FromReader wraps an in-memory or streaming source. path is used for
// request and output purposes only.
func FromReader(path string, r io.Reader) *Input {
	return &Input{path: path, br: bufio.NewReader(r)}
}

// Path returns the path the input was opened under.
func (in *Input) Path() string {
	return in.path
}

// LineNumber returns the one-based number of the current line, or 0
// before the first read.
func (in *Input) LineNumber() int {
	return in.lineNo
}

// Current returns the most recently read line. It reports false until
// a line has been read. The line stays current after EOF.
func (in *Input) Current() (string, bool) {
	return in.cur, in.haveCur
}

// Next reads the following line, including its newline byte if
// present. At end of input it reports false and leaves the current
// line and number untouched. A final line without a newline is
// returned once.
func (in *Input) Next() (string, bool) {
	if in.eof {
		return "", false
	}
	line, err := in.br.ReadString('\n')
	if err != nil {
		in.eof = true
		if err != io.EOF {
			in.err = err
			return "", false
		}
		if line == "" {
			return "", false
		}
	}
	in.lineNo++
	in.cur = line
	in.haveCur = true
	return line, true
}

// Err returns the first read error other than end of input.
func (in *Input) Err() error {
	return in.err
}

// Close releases the underlying file, if any.
func (in *Input) Close() error {
	if in.closer == nil {
		return nil
	}
	return in.closer.Close()
}
