// Package session persists the resume checkpoint and the history of runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"epub-translator/internal/translation"
)

// CheckpointFileName is the single resume slot inside the data directory.
const CheckpointFileName = "resume.json"

// Checkpoint is the durable cursor of an interrupted run. DocumentIndex and
// NodeIndex name the next unit to visit; TranslatedNodes holds the final text
// of every unit already visited, keyed by document path.
type Checkpoint struct {
	Filename            string                `json:"filename"`
	DocumentIndex       int                   `json:"document_index"`
	NodeIndex           int                   `json:"node_index"`
	TranslatedNodes     map[string][]string   `json:"translated_nodes"`
	Settings            translation.Settings  `json:"settings"`
	CumulativeSentences int                   `json:"cumulative_sentences"`
	Strategy            *translation.Strategy `json:"strategy,omitempty"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// Clone returns a deep copy.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	out := *c
	out.TranslatedNodes = make(map[string][]string, len(c.TranslatedNodes))
	for path, nodes := range c.TranslatedNodes {
		out.TranslatedNodes[path] = append([]string(nil), nodes...)
	}
	out.Settings.TargetTags = append([]string(nil), c.Settings.TargetTags...)
	if c.Strategy != nil {
		strategy := *c.Strategy
		out.Strategy = &strategy
	}
	return &out
}

// Units returns how many units the checkpoint has recorded.
func (c *Checkpoint) Units() int {
	total := 0
	for _, nodes := range c.TranslatedNodes {
		total += len(nodes)
	}
	return total
}

// CheckpointStore is the single resume slot. Load returns nil when empty.
type CheckpointStore interface {
	Load() (*Checkpoint, error)
	Save(cp *Checkpoint) error
	Clear() error
}

// FileCheckpointStore keeps the checkpoint as JSON, replacing it atomically.
type FileCheckpointStore struct {
	path string
	mu   sync.Mutex
}

// NewFileCheckpointStore keeps the checkpoint slot in dir, creating it if needed.
func NewFileCheckpointStore(dir string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileCheckpointStore{path: filepath.Join(dir, CheckpointFileName)}, nil
}

// Path is the slot file.
func (s *FileCheckpointStore) Path() string {
	return s.path
}

func (s *FileCheckpointStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	if cp.TranslatedNodes == nil {
		cp.TranslatedNodes = make(map[string][]string)
	}
	return &cp, nil
}

func (s *FileCheckpointStore) Save(cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

func (s *FileCheckpointStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}

// MemoryCheckpointStore keeps the checkpoint in memory and counts writes.
type MemoryCheckpointStore struct {
	mu     sync.Mutex
	cp     *Checkpoint
	saves  int
	clears int
}

// NewMemoryCheckpointStore returns an empty in-memory slot.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{}
}

func (s *MemoryCheckpointStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cp.Clone(), nil
}

func (s *MemoryCheckpointStore) Save(cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cp = cp.Clone()
	s.saves++
	return nil
}

func (s *MemoryCheckpointStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cp = nil
	s.clears++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryCheckpointStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryCheckpointStore) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path, so readers never observe a partial checkpoint.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
