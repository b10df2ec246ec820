package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"tagharvest/pkg/logger"
	"tagharvest/pkg/storage"
)

// Checkpoint maps a category key to its discovered IDs in first-seen order.
type Checkpoint map[string][]string

// Count returns how many IDs are recorded for category
func (c Checkpoint) Count(category string) int {
	return len(c[category])
}

// Categories returns the category keys in sorted order
func (c Checkpoint) Categories() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total returns the number of IDs across all categories
func (c Checkpoint) Total() int {
	n := 0
	for _, ids := range c {
		n += len(ids)
	}
	return n
}

// Merge returns a checkpoint where newIDs are appended to the category's
// existing sequence. Duplicates are dropped keeping the first occurrence and
// existing IDs are never removed. cp itself is not modified.
func Merge(cp Checkpoint, category string, newIDs []string) Checkpoint {
	out := make(Checkpoint, len(cp)+1)
	for k, v := range cp {
		out[k] = v
	}
	out[category] = dedupe(append(append([]string(nil), cp[category]...), newIDs...))
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Store reads and writes a checkpoint file
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store for the checkpoint at path
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, logger: log.WithField("checkpoint", path)}
}

// Path returns the checkpoint file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint. A missing or unreadable file yields an empty
// checkpoint; entries that are not arrays are ignored.
func (s *Store) Load() Checkpoint {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Warn("checkpoint unreadable, starting empty")
		}
		return Checkpoint{}
	}

	cp, err := Decode(data)
	if err != nil {
		s.logger.WithError(err).Warn("checkpoint malformed, starting empty")
		return Checkpoint{}
	}

	s.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"categories": len(cp),
		"ids":        cp.Total(),
	})
	return cp
}

// Decode parses checkpoint JSON permissively: non-array values and array
// items that are neither strings nor numbers are skipped, numbers are
// stringified and each sequence is deduplicated.
func Decode(data []byte) (Checkpoint, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	cp := make(Checkpoint, len(raw))
	for key, value := range raw {
		items, ok := value.([]interface{})
		if !ok {
			continue
		}
		ids := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				ids = append(ids, v)
			case json.Number:
				ids = append(ids, v.String())
			}
		}
		cp[key] = dedupe(ids)
	}
	return cp, nil
}

// Persist rewrites the whole checkpoint atomically
func (s *Store) Persist(cp Checkpoint) error {
	if cp == nil {
		cp = Checkpoint{}
	}
	err := storage.WriteAtomic(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(normalize(cp))
	})
	if err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"categories": len(cp),
		"ids":        cp.Total(),
	})
	return nil
}

// normalize replaces nil sequences so they encode as [] rather than null
func normalize(cp Checkpoint) Checkpoint {
	out := make(Checkpoint, len(cp))
	for k, v := range cp {
		if v == nil {
			v = []string{}
		}
		out[k] = v
	}
	return out
}
