package frame

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t to path as CSV. The file is replaced atomically, so
// readers never observe a partially written table.
func WriteFile(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to make output directory: %w", err)
	}
	f, err := renameio.TempFile(dir, path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Cleanup()
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to chmod output file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := WriteCSV(bw, t); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
