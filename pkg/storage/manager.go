package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// partialSuffix marks files that are still being written
const partialSuffix = ".part"

// Manager owns the target directory. A photo counts as downloaded when a
// file with its normalized name exists there; content is never compared.
type Manager struct {
	dir      string
	inFlight map[string]struct{}
	mu       sync.Mutex
}

// NewManager creates the target directory if needed and removes partial
// files left behind by an interrupted run.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	m := &Manager{
		dir:      dir,
		inFlight: make(map[string]struct{}),
	}
	if err := m.removePartials(); err != nil {
		return nil, fmt.Errorf("failed to clean target directory: %w", err)
	}
	return m, nil
}

func (m *Manager) removePartials() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, ".") && strings.HasSuffix(name, partialSuffix) {
			if err := os.Remove(filepath.Join(m.dir, name)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// Dir returns the target directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the final path for filename
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.dir, filename)
}

// Exists reports whether filename is already present in the target directory
func (m *Manager) Exists(filename string) bool {
	_, err := os.Stat(m.Path(filename))
	return err == nil
}

// Reserve claims filename for the calling task. It returns false when
// another task of this run already holds it, so two descriptors that
// normalize to the same name are never written concurrently.
func (m *Manager) Reserve(filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.inFlight[filename]; taken {
		return false
	}
	m.inFlight[filename] = struct{}{}
	return true
}

// Save writes r to a temporary file in the target directory and renames it
// to filename, so the final name only ever refers to a complete file.
func (m *Manager) Save(r io.Reader, filename string) (string, error) {
	finalPath := m.Path(filename)

	tmp, err := os.CreateTemp(m.dir, "."+filename+".*"+partialSuffix)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	_, err = io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save photo data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return finalPath, nil
}
