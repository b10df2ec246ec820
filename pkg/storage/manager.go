package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TrendFilePrefix is prepended to every per-term output file name
const TrendFilePrefix = "google_trends_"

// Manager owns the directory of per-term series files. A file's presence is
// the completion marker for its term.
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// PathFor returns the file that holds the series for a normalized key
func (m *Manager) PathFor(key string) string {
	return filepath.Join(m.outputDir, TrendFilePrefix+key+".csv")
}

// IsSaved checks whether the series for key was already written
func (m *Manager) IsSaved(key string) bool {
	return Exists(m.PathFor(key))
}

// SaveTable writes header and rows as CSV for key, atomically
func (m *Manager) SaveTable(key string, header []string, rows [][]string) error {
	return WriteAtomic(m.PathFor(key), func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write rows: %w", err)
		}
		return nil
	})
}

// SavedKeys lists the keys that already have a series file
func (m *Manager) SavedKeys() ([]string, error) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, TrendFilePrefix) || filepath.Ext(name) != ".csv" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(name, TrendFilePrefix), ".csv"))
	}
	return keys, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
