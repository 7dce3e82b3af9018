package attachments

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewDiskStorage(dir)
	if err != nil {
		t.Fatalf("NewDiskStorage error: %v", err)
	}

	size, err := storage.Save("blob.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}

	f, err := storage.Open("blob.pdf")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected contents: %q", data)
	}

	if err := storage.Remove("blob.pdf"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := storage.Open("blob.pdf"); !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error after removal, got %v", err)
	}
	// Removing again is not an error.
	if err := storage.Remove("blob.pdf"); err != nil {
		t.Fatalf("second Remove error: %v", err)
	}
}

func TestDiskStorageStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewDiskStorage(dir)
	if err != nil {
		t.Fatalf("NewDiskStorage error: %v", err)
	}

	if _, err := storage.Save("../escape.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.pdf")); err != nil {
		t.Fatalf("blob should land inside the storage dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.pdf")); !os.IsNotExist(err) {
		t.Fatalf("blob must not escape the storage dir")
	}
}
