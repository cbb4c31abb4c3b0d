// Package writer persists fetched payloads to the output directory.
// Every file is written to a temporary path and renamed into place on
// success, so a skipped or interrupted item never leaves a partial
// output file behind. Filesystem errors propagate; writers never retry.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeFileAtomic writes a file via a temp path in the same directory
// followed by a rename.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if writeErr := write(tmp); writeErr != nil {
		tmp.Close()
		os.Remove(tmpName)
		return writeErr
	}

	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", closeErr)
	}

	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", renameErr)
	}

	return nil
}
