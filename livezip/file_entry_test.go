package livezip

import (
	"errors"
	"testing"
	"time"
)

func TestNewFileEntryRejectsAbsolutePath(t *testing.T) {
	_, err := NewFileEntry("/etc/passwd", Stored{}, nil, 0, 0, 0, time.Time{})
	var invalid *InvalidPathError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *InvalidPathError", err)
	}
}

func TestNewFileEntryRejectsEmptyBasename(t *testing.T) {
	for _, p := range []string{"", ".", "a/.."} {
		_, err := NewFileEntry(p, Stored{}, nil, 0, 0, 0, time.Time{})
		var invalid *InvalidPathError
		if !errors.As(err, &invalid) {
			t.Errorf("path %q: err = %v, want *InvalidPathError", p, err)
		}
	}
}

func TestNewFileEntryRejectsOversizedName(t *testing.T) {
	name := make([]byte, 0x10000)
	for i := range name {
		name[i] = 'a'
	}
	_, err := NewFileEntry(string(name), Stored{}, nil, 0, 0, 0, time.Time{})
	var tooLong *NameTooLongError
	if !errors.As(err, &tooLong) {
		t.Fatalf("err = %v, want *NameTooLongError", err)
	}
}

func TestNewFileEntryAcceptsValidRelativePaths(t *testing.T) {
	cases := []string{"a.txt", "dir/sub/file.bin", "éléphant.txt", "./a.txt"}
	for _, p := range cases {
		entry, err := NewFileEntry(p, Stored{}, nil, 10, 10, 0, time.Time{})
		if err != nil {
			t.Errorf("path %q: unexpected error %v", p, err)
			continue
		}
		if entry.Path == "" {
			t.Errorf("path %q: cleaned to empty string", p)
		}
	}
}

func TestNewFileEntryCleansDotPrefix(t *testing.T) {
	entry, err := NewFileEntry("./a.txt", Stored{}, nil, 1, 1, 0, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Path != "a.txt" {
		t.Errorf("Path = %q, want %q", entry.Path, "a.txt")
	}
}
