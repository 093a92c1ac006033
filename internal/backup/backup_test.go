package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWrite(t *testing.T) {
	base := t.TempDir()
	w, err := New("backups", base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Dir() != filepath.Join(base, "backups") {
		t.Fatalf("Dir = %q", w.Dir())
	}
	at := time.Date(2024, 5, 1, 9, 30, 0, 42, time.UTC)
	w.now = func() time.Time { return at }

	file, err := w.Write("Sales Report", "csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := filepath.Join(base, "backups", "2024-05-01", "sales_report-1714555800000000042.csv")
	if file != want {
		t.Errorf("file = %q, want %q", file, want)
	}
	body, err := os.ReadFile(file)
	if err != nil || string(body) != "a,b\n" {
		t.Errorf("content = %q, %v", body, err)
	}
}

func TestWrite_NoExtension(t *testing.T) {
	w, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	file, err := w.Write("raw", "", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Ext(file) != "" {
		t.Errorf("unexpected extension in %q", file)
	}
}

func TestNew_Unwritable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(filepath.Join(blocker, "sub"), ""); err == nil {
		t.Fatal("expected error creating directory under a file")
	}
}
