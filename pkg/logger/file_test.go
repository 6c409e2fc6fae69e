package logger

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestFileLogger_AppendsAndCloses(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/log/daemon.log", []byte("earlier\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewFileLogger(fs, "/log/daemon.log")
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	l.Warning("send failed: %s", "refused")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, err := afero.ReadFile(fs, "/log/daemon.log")
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.HasPrefix(out, "earlier\n") {
		t.Errorf("existing content lost: %q", out)
	}
	if !strings.Contains(out, "[WARNING] send failed: refused") {
		t.Errorf("got %q, want the warning appended", out)
	}
}

func TestFileLogger_OpenError(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	if _, err := NewFileLogger(fs, "/log/daemon.log"); err == nil {
		t.Fatal("expected an error on a read-only filesystem")
	}
}
