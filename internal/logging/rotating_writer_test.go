package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriterBasicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 1024, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	msg := "hello rotation\n"
	n, err := w.Write([]byte(msg))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(msg) {
		t.Errorf("Write() = %d, want %d", n, len(msg))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != msg {
		t.Errorf("file content = %q, want %q", data, msg)
	}
}

func TestRotatingWriterRotatesAtLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 64, 2)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	chunk := strings.Repeat("a", 40) + "\n"
	for i := 0; i < 4; i++ {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current file: %v", err)
	}
	if info.Size() > 64 {
		t.Errorf("current file size = %d, exceeds limit", info.Size())
	}
}

func TestRotatingWriterKeepsBackupBudget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 16, 2)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	for i := 0; i < 10; i++ {
		if _, err := w.Write([]byte(strings.Repeat("b", 12) + "\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	if _, err := os.Stat(path + ".3"); err == nil {
		t.Error("backup beyond budget exists")
	}
}

func TestRotatingWriterAppendsOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w, err := NewRotatingFileWriter(path, 1024, 1)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter() error = %v", err)
	}
	if _, err := w.Write([]byte("first\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w2, err := NewRotatingFileWriter(path, 1024, 1)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = w2.Close() }()
	if _, err := w2.Write([]byte("second\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("file content = %q, want both lines", data)
	}
}
