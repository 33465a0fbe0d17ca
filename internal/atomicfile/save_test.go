package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSaveWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	data := []byte("hello")

	if err := Save(path, data, 0o600); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("content = %q, want %q", string(got), string(data))
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("perm = %o, want 0600", info.Mode().Perm())
		}
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid")
	if err := Save(path, []byte("1"), 0o600); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := Save(path, []byte("22"), 0o600); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "22" {
		t.Fatalf("content = %q, want 22", string(got))
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", []byte("x"), 0o600); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestCreateIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	created, err := CreateIfMissing(path, []byte("a: 1\n"), 0o644)
	if err != nil || !created {
		t.Fatalf("CreateIfMissing() = %v, %v", created, err)
	}
	created, err = CreateIfMissing(path, []byte("b: 2\n"), 0o644)
	if err != nil || created {
		t.Fatalf("second CreateIfMissing() = %v, %v", created, err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "a: 1\n" {
		t.Fatalf("existing file overwritten: %q", string(got))
	}
}
