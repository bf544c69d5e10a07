package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemSink writes pages into a directory
type FileSystemSink struct {
	dir string
}

// NewFileSystemSink creates a sink writing below dir
func NewFileSystemSink(dir string) *FileSystemSink {
	return &FileSystemSink{dir: dir}
}

// Name returns "filesystem"
func (s *FileSystemSink) Name() string {
	return "filesystem"
}

// Dir returns the output directory
func (s *FileSystemSink) Dir() string {
	return s.dir
}

// Clean removes everything in the output directory. The directory itself is
// kept.
func (s *FileSystemSink) Clean() error {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
	}
	return nil
}

// Put writes content to dir/name. The file is written next to its final
// path and renamed so readers never see a partial page.
func (s *FileSystemSink) Put(ctx context.Context, name string, content []byte, contentType string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// validateName rejects page names that would escape the output location
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid page name %q", name)
	}
	return nil
}
