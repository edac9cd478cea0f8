package kb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpen_MissingDir(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatalf("Open() on missing dir: %v", err)
	}
	defer b.Close()
	if b.Text() != "" {
		t.Errorf("Text() = %q, want empty", b.Text())
	}
}

func TestOpen_LoadsAndOrders(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.md", "second file")
	write(t, dir, "a.txt", "first file")
	write(t, dir, "ignored.pdf", "binary stuff")
	write(t, dir, "empty.md", "   ")

	b, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	text := b.Text()
	if !strings.Contains(text, "## a.txt") || !strings.Contains(text, "first file") {
		t.Errorf("missing a.txt content: %q", text)
	}
	if strings.Index(text, "a.txt") > strings.Index(text, "b.md") {
		t.Error("files should be ordered by name")
	}
	if strings.Contains(text, "ignored.pdf") || strings.Contains(text, "empty.md") {
		t.Errorf("unexpected content included: %q", text)
	}
}

func TestBase_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "notes.md", "old content")

	b, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	write(t, dir, "notes.md", "new content")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.Text(), "new content") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("Text() never picked up the change: %q", b.Text())
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
