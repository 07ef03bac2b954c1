package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNextKeepsLineEndings(t *testing.T) {
	in := FromReader("mem", strings.NewReader("one\ntwo\r\nthree"))

	line, ok := in.Next()
	if !ok || line != "one\n" {
		t.Errorf("first line = %q, %v, want %q", line, ok, "one\n")
	}
	if in.LineNumber() != 1 {
		t.Errorf("LineNumber = %d, want 1", in.LineNumber())
	}

	line, ok = in.Next()
	if !ok || line != "two\r\n" {
		t.Errorf("second line = %q, %v, want %q", line, ok, "two\r\n")
	}

	line, ok = in.Next()
	if !ok || line != "three" {
		t.Errorf("final partial line = %q, %v, want %q", line, ok, "three")
	}
	if in.LineNumber() != 3 {
		t.Errorf("LineNumber = %d, want 3", in.LineNumber())
	}

	if _, ok := in.Next(); ok {
		t.Error("Next after EOF should report false")
	}
	if in.LineNumber() != 3 {
		t.Errorf("LineNumber after EOF = %d, want 3", in.LineNumber())
	}
}

func TestCurrentStaysAfterEOF(t *testing.T) {
	in := FromReader("mem", strings.NewReader("a\nb\n"))

	if _, ok := in.Current(); ok {
		t.Error("Current before first Next should report false")
	}

	for {
		if _, ok := in.Next(); !ok {
			break
		}
	}

	cur, ok := in.Current()
	if !ok || cur != "b\n" {
		t.Errorf("Current after EOF = %q, %v, want %q", cur, ok, "b\n")
	}
	if in.LineNumber() != 2 {
		t.Errorf("LineNumber = %d, want 2", in.LineNumber())
	}
}

func TestEmptyInput(t *testing.T) {
	in := FromReader("mem", strings.NewReader(""))

	if _, ok := in.Next(); ok {
		t.Error("Next on empty input should report false")
	}
	if in.LineNumber() != 0 {
		t.Errorf("LineNumber = %d, want 0", in.LineNumber())
	}
	if _, ok := in.Current(); ok {
		t.Error("Current on empty input should report false")
	}
	if in.Err() != nil {
		t.Errorf("Err = %v, want nil", in.Err())
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.c")
	if err := os.WriteFile(path, []byte("int x;\nint y;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	in, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer func() { _ = in.Close() }()

	if in.Path() != path {
		t.Errorf("Path = %q, want %q", in.Path(), path)
	}
	line, ok := in.Next()
	if !ok || line != "int x;\n" {
		t.Errorf("first line = %q, %v", line, ok)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.c"))
	if err == nil {
		t.Fatal("Open of missing file should fail")
	}
	if !strings.Contains(err.Error(), "INPUT_UNREADABLE") {
		t.Errorf("error should carry INPUT_UNREADABLE code, got %v", err)
	}
}
