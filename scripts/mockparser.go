//go:build ignore

// mockparser is a minimal external parser for trying xtags without a
// real one. It speaks the line protocol: one file path per line on
// stdin, one JSON array of {name, kind, line} objects per reply.
// Definitions are spotted with a handful of regexes covering Go,
// Python and C-preprocessor sources.
//
// Usage:
//
//	xtags index --parser 'go run scripts/mockparser.go' \
//	    --kinds 'function:f,class:c,macro:d' src/main.go
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

type tag struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

var matchers = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"function", regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?(\w+)`)},
	{"function", regexp.MustCompile(`^\s*def\s+(\w+)`)},
	{"class", regexp.MustCompile(`^\s*class\s+(\w+)`)},
	{"macro", regexp.MustCompile(`^#define\s+(\w+)`)},
}

func main() {
	stdin := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)

	for stdin.Scan() {
		path := stdin.Text()
		reply, err := scan(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mockparser: %s: %v\n", path, err)
			reply = []tag{}
		}
		data, err := json.Marshal(reply)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mockparser: %v\n", err)
			data = []byte("[]")
		}
		_, _ = out.Write(data)
		_ = out.WriteByte('\n')
		_ = out.Flush()
	}
}

func scan(path string) ([]tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// Start non-nil so an empty file still answers [] rather than null.
	found := []tag{}
	lineNo := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		for _, m := range matchers {
			if g := m.re.FindStringSubmatch(sc.Text()); g != nil {
				found = append(found, tag{Name: g[1], Kind: m.kind, Line: lineNo})
				break
			}
		}
	}
	return found, sc.Err()
}
