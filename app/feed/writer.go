package feed

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/gofeed"
)

type Writer struct {
	parser *gofeed.Parser
}

func NewWriter() *Writer {
	return &Writer{
		parser: gofeed.NewParser(),
	}
}

// Write checks that data parses as a feed and then replaces path via a temp
// file and rename, so readers see either the old file or the new one.
func (w *Writer) Write(path string, data []byte) error {
	if _, err := w.parser.Parse(bytes.NewReader(data)); err != nil {
		return &SerializationError{Path: path, Err: fmt.Errorf("generated feed does not parse: %w", err)}
	}

	if err := writeFileAtomic(path, data); err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	return nil
}

// WriteSnapshot stores the raw fetched page for offline inspection.
func (w *Writer) WriteSnapshot(path string, data []byte) error {
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	committed = true
	return nil
}
