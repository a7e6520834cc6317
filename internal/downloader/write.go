package downloader

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic writes content next to path and renames it into place, so an
// interrupted run never leaves a truncated file under the final name.
func writeAtomic(path string, content []byte) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".part*")
	if err != nil {
		return 0, fmt.Errorf("error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	n, err := tmp.Write(content)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("error writing to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("error syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("error closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("error setting file mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("error renaming (finalizing) output file: %w", err)
	}
	return int64(n), nil
}
