package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CSVSink is an append-only CSV file. The header is written only when the
// file is empty on open, and every row is flushed before Append returns.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
	rows int
}

// OpenCSVSink opens path for appending, creating it and its directory if needed
func OpenCSVSink(path string, header []string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	s := &CSVSink{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 && len(header) > 0 {
		if err := s.write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) write(record []string) error {
	if err := s.w.Write(record); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Append writes one row and flushes it to the file
func (s *CSVSink) Append(record []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(record); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	s.rows++
	return nil
}

// Rows returns how many rows were appended since open
func (s *CSVSink) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Close flushes and closes the underlying file
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
