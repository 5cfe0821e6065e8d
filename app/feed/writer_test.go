package feed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriter_WritesFeed(t *testing.T) {
	writer := NewWriter()
	path := filepath.Join(t.TempDir(), "out", "feed.xml")

	data, err := NewGenerator("test").Run(testChannel(), []Post{{Title: "t", Body: "b", Link: "https://example.com/1"}})
	if err != nil {
		t.Fatal(err)
	}

	if err := writer.Write(path, data); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != string(data) {
		t.Error("Written file should match generated feed")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the feed file in the directory, found %d entries", len(entries))
	}
}

func TestWriter_ReplacesExistingFile(t *testing.T) {
	writer := NewWriter()
	path := filepath.Join(t.TempDir(), "feed.xml")

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := NewGenerator("test").Run(testChannel(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := writer.Write(path, data); err != nil {
		t.Fatal(err)
	}

	written, _ := os.ReadFile(path)
	if string(written) != string(data) {
		t.Error("Expected previous file to be replaced")
	}
}

func TestWriter_RejectsUnparseableFeed(t *testing.T) {
	writer := NewWriter()
	path := filepath.Join(t.TempDir(), "feed.xml")

	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	err := writer.Write(path, []byte("<html><body>not a feed</body></html>"))

	var serErr *SerializationError
	if !errors.As(err, &serErr) {
		t.Fatalf("Expected SerializationError, got: %v", err)
	}

	written, _ := os.ReadFile(path)
	if string(written) != "previous" {
		t.Error("Previous feed file must be left untouched on failure")
	}
}

func TestWriter_Snapshot(t *testing.T) {
	writer := NewWriter()
	path := filepath.Join(t.TempDir(), "snapshot.html")

	if err := writer.WriteSnapshot(path, []byte("<html></html>")); err != nil {
		t.Fatal(err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != "<html></html>" {
		t.Errorf("Unexpected snapshot content: %s", written)
	}
}
