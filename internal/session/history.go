package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"epub-translator/internal/translation"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the history file inside the data directory.
	HistoryFileName = "history.yaml"
	// MaxHistory is how many runs are kept, newest first.
	MaxHistory = 20
)

// Status is how a finished run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
)

// HistoryItem records one finished run.
type HistoryItem struct {
	ID             string               `yaml:"id" json:"id"`
	Timestamp      time.Time            `yaml:"timestamp" json:"timestamp"`
	Filename       string               `yaml:"filename" json:"filename"`
	SourceLanguage string               `yaml:"source_language" json:"source_language"`
	TargetLanguage string               `yaml:"target_language" json:"target_language"`
	Model          string               `yaml:"model" json:"model"`
	WordCount      int                  `yaml:"word_count" json:"word_count"`
	Units          int                  `yaml:"units" json:"units"`
	Status         Status               `yaml:"status" json:"status"`
	Settings       translation.Settings `yaml:"settings" json:"settings"`
}

// HistoryStore keeps finished runs, newest first.
type HistoryStore interface {
	Append(item HistoryItem) error
	List() ([]HistoryItem, error)
	Clear() error
}

type historyFile struct {
	Version int           `yaml:"version"`
	Items   []HistoryItem `yaml:"items"`
}

// FileHistoryStore keeps the history in a YAML file.
type FileHistoryStore struct {
	path string
	mu   sync.Mutex
}

// NewFileHistoryStore keeps the history as YAML in dir.
func NewFileHistoryStore(dir string) (*FileHistoryStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileHistoryStore{path: filepath.Join(dir, HistoryFileName)}, nil
}

// Append stores item as the newest entry, assigning an ID and timestamp when
// missing, and drops entries beyond MaxHistory.
func (s *FileHistoryStore) Append(item HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	return s.write(prepend(items, item))
}

func (s *FileHistoryStore) List() ([]HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileHistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove history: %w", err)
	}
	return nil
}

func (s *FileHistoryStore) read() ([]HistoryItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var file historyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return file.Items, nil
}

func (s *FileHistoryStore) write(items []HistoryItem) error {
	data, err := yaml.Marshal(historyFile{Version: 1, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// MemoryHistoryStore is an in-memory HistoryStore.
type MemoryHistoryStore struct {
	mu    sync.Mutex
	items []HistoryItem
}

// NewMemoryHistoryStore returns an empty in-memory history.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{}
}

func (s *MemoryHistoryStore) Append(item HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = prepend(s.items, item)
	return nil
}

func (s *MemoryHistoryStore) List() ([]HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryItem(nil), s.items...), nil
}

func (s *MemoryHistoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func prepend(items []HistoryItem, item HistoryItem) []HistoryItem {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	out := make([]HistoryItem, 0, min(len(items)+1, MaxHistory))
	out = append(out, item)
	for _, existing := range items {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, existing)
	}
	return out
}
