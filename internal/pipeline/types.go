// Package pipeline drives a book's units through the translation gate,
// tracking progress, pacing, quota waits and the resume checkpoint.
package pipeline

import (
	"context"
	"errors"
	"time"

	"epub-translator/internal/epub"
	"epub-translator/internal/session"
	"epub-translator/internal/translation"
)

var (
	// ErrStopped is returned when the run is cancelled. The last checkpoint stays on disk.
	ErrStopped = errors.New("translation stopped")
	// ErrBusy is returned when a run is already in progress.
	ErrBusy = errors.New("a translation is already running")
)

// Status is the state of a run.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusAnalyzing  Status = "analyzing"
	StatusProcessing Status = "processing"
	StatusWaiting    Status = "waiting"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// LogLevel classifies a run log line.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one line of the run log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}

// Snapshot is a read-only view of a run, pushed to the emitter on every change.
type Snapshot struct {
	Status          Status                `json:"status"`
	Filename        string                `json:"filename"`
	CurrentDocument int                   `json:"current_document"`
	TotalDocuments  int                   `json:"total_documents"`
	CurrentNode     int                   `json:"current_node"`
	TotalNodes      int                   `json:"total_nodes"`
	UnitsDone       int                   `json:"units_done"`
	Fallbacks       int                   `json:"fallbacks"`
	Percent         int                   `json:"percent"`
	ETASeconds      int                   `json:"eta_seconds"`
	WordsPerSecond  float64               `json:"words_per_second"`
	TotalWords      int                   `json:"total_words"`
	TotalSentences  int                   `json:"total_sentences"`
	BookSentences   int                   `json:"book_sentences"`
	WaitCountdown   int                   `json:"wait_countdown,omitempty"`
	WaitVisits      int                   `json:"wait_visits"`
	Logs            []LogEntry            `json:"logs"`
	Usage           translation.Usage     `json:"usage"`
	Strategy        *translation.Strategy `json:"strategy,omitempty"`
	Error           string                `json:"error,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	s.Logs = append([]LogEntry(nil), s.Logs...)
	if s.Strategy != nil {
		strategy := *s.Strategy
		s.Strategy = &strategy
	}
	return s
}

// Emitter receives snapshots.
type Emitter interface {
	Emit(s Snapshot)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(s Snapshot)

func (f EmitterFunc) Emit(s Snapshot) { f(s) }

// Gate is the unit-level translator the controller drives.
type Gate interface {
	Configure(settings translation.Settings, strategy *translation.Strategy)
	SetThrottle(throttle func(ctx context.Context) error)
	Translate(ctx context.Context, unit string) (translation.Result, error)
	Usage() translation.Usage
}

// StrategyResolver produces the book strategy when none is supplied.
type StrategyResolver interface {
	Analyze(ctx context.Context, meta epub.BookMetadata, settings translation.Settings, feedback string) (translation.Strategy, error)
}

// Input describes one run. When Resume is set and belongs to Filename, its
// settings and strategy take precedence so the output matches an
// uninterrupted run.
type Input struct {
	Filename string
	Book     []byte
	Settings translation.Settings
	Strategy *translation.Strategy
	Stats    *epub.BookStats
	Resume   *session.Checkpoint
}

// Output is a finished run. Settings are the ones the run actually used,
// which are the checkpoint's on a resume.
type Output struct {
	Book     []byte
	Snapshot Snapshot
	Stats    epub.BookStats
	Settings translation.Settings
}
