package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"xtags/internal/config"
)

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "files.txt")
	content := "src/app.c\n\n  src/util.c  \n"
	if err := os.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatalf("write list: %v", err)
	}

	got, err := collectInputs([]string{"main.c"}, list)
	if err != nil {
		t.Fatalf("collectInputs() error = %v", err)
	}
	want := []string{"main.c", "src/app.c", "src/util.c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectInputs() = %v, want %v", got, want)
	}
}

func TestCollectInputsNoList(t *testing.T) {
	got, err := collectInputs([]string{"a.c", "b.c"}, "")
	if err != nil {
		t.Fatalf("collectInputs() error = %v", err)
	}
	want := []string{"a.c", "b.c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectInputs() = %v, want %v", got, want)
	}
}

func TestCollectInputsMissingList(t *testing.T) {
	_, err := collectInputs(nil, filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("collectInputs() expected error for missing list")
	}
	if !isInputError(err) {
		t.Errorf("error = %v, want INPUT_UNREADABLE", err)
	}
}

func TestCanonicalInput(t *testing.T) {
	sep := string(filepath.Separator)
	root := filepath.Join(sep, "repo")

	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative unchanged", filepath.Join("src", "app.c"), filepath.Join("src", "app.c")},
		{"relative cleaned", "./src//app.c", filepath.Join("src", "app.c")},
		{"absolute inside root", filepath.Join(root, "src", "app.c"), filepath.Join("src", "app.c")},
		{"absolute outside root", filepath.Join(sep, "other", "x.c"), filepath.Join(sep, "other", "x.c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := canonicalInput(root, tt.path)
			if got != tt.want {
				t.Errorf("canonicalInput(%q, %q) = %q, want %q", root, tt.path, got, tt.want)
			}
		})
	}
}

func TestApplyIndexFlags(t *testing.T) {
	flags := indexCmd.Flags()
	for _, set := range [][2]string{
		{"parser", "python3 tags.py"},
		{"kinds", "def:d"},
		{"output", "json"},
		{"no-sort", "true"},
		{"no-store", "true"},
		{"pattern-length-limit", "50"},
	} {
		if err := flags.Set(set[0], set[1]); err != nil {
			t.Fatalf("Set(%s): %v", set[0], err)
		}
	}

	cfg := config.DefaultConfig()
	applyIndexFlags(indexCmd, cfg)

	if cfg.Parser != "python3 tags.py" {
		t.Errorf("Parser = %q, want %q", cfg.Parser, "python3 tags.py")
	}
	if cfg.Kinds != "def:d" {
		t.Errorf("Kinds = %q, want %q", cfg.Kinds, "def:d")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "json")
	}
	if cfg.Output.Sort {
		t.Error("no-sort should disable sorting")
	}
	if cfg.Store.Enabled {
		t.Error("no-store should disable the store")
	}
	if cfg.PatternLengthLimit != 50 {
		t.Errorf("PatternLengthLimit = %d, want 50", cfg.PatternLengthLimit)
	}

	// Untouched flags keep the config values.
	if cfg.Xformat != "" {
		t.Errorf("Xformat = %q, want empty", cfg.Xformat)
	}
	if cfg.Backward {
		t.Error("Backward should stay false")
	}
}
