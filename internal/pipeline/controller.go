package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"epub-translator/internal/epub"
	"epub-translator/internal/session"
	"epub-translator/internal/textstat"
	"epub-translator/internal/translation"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Controller runs one translation at a time. Units are visited strictly in
// order and no two gate calls overlap.
type Controller struct {
	gate        Gate
	resolver    StrategyResolver
	checkpoints session.CheckpointStore
	history     session.HistoryStore
	scanner     *epub.Scanner
	logger      *logrus.Logger

	emitter     Emitter
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	quotaTicks  int
	tick        time.Duration
	pacingFloor time.Duration
	logCap      int

	mu      sync.Mutex
	running bool
	snap    Snapshot
}

// New creates a Controller that translates through gate and records progress
// in checkpoints and history.
func New(gate Gate, resolver StrategyResolver, checkpoints session.CheckpointStore, history session.HistoryStore, logger *logrus.Logger, opts ...Option) *Controller {
	c := &Controller{
		gate:        gate,
		resolver:    resolver,
		checkpoints: checkpoints,
		history:     history,
		scanner:     epub.NewScanner(logger),
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
		quotaTicks:  DefaultQuotaWaitTicks,
		tick:        DefaultTickLength,
		pacingFloor: DefaultPacingFloor,
		logCap:      DefaultLogCap,
		snap:        Snapshot{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the latest snapshot.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Running reports whether a run is in progress.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset returns an idle controller to a blank snapshot, as when a new file
// is selected.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.snap = Snapshot{Status: StatusIdle}
	}
}

// run is the state of one Run call.
type run struct {
	c          *Controller
	in         Input
	settings   translation.Settings
	tags       []string
	checkpoint *session.Checkpoint
	progress   tracker
	snap       Snapshot
}

// Run translates a book. It returns ErrStopped when ctx is cancelled and
// an error wrapping translation.ErrCredentialRequired when the provider
// rejects the credentials; in both cases the last checkpoint is kept.
func (c *Controller) Run(ctx context.Context, in Input) (*Output, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	r := c.newRun(in)
	out, err := r.execute(ctx)
	if err != nil {
		if errors.Is(err, ErrStopped) {
			r.log(LogWarning, "Translation stopped; progress saved for resume")
		} else {
			r.log(LogError, fmt.Sprintf("Translation failed: %v", err))
		}
		r.snap.Status = StatusError
		r.snap.WaitCountdown = 0
		r.snap.Error = err.Error()
		r.emit()
		return nil, err
	}
	return out, nil
}

func (c *Controller) newRun(in Input) *run {
	settings := in.Settings
	if in.Resume != nil && in.Resume.Filename != in.Filename {
		c.logger.Warnf("Ignoring checkpoint for %s while translating %s", in.Resume.Filename, in.Filename)
		in.Resume = nil
	}
	if in.Resume != nil {
		settings = in.Resume.Settings
	}

	tags := settings.TargetTags
	if len(tags) == 0 {
		tags = epub.DefaultTags
	}

	r := &run{
		c:        c,
		in:       in,
		settings: settings,
		tags:     tags,
		checkpoint: &session.Checkpoint{
			Filename:        in.Filename,
			TranslatedNodes: make(map[string][]string),
			Settings:        settings,
		},
		snap: Snapshot{Status: StatusIdle, Filename: in.Filename},
	}
	r.progress.start = c.now()
	if in.Resume != nil {
		r.progress.cumSentences = in.Resume.CumulativeSentences
		r.checkpoint.CumulativeSentences = in.Resume.CumulativeSentences
	}
	return r
}

func (r *run) execute(ctx context.Context) (*Output, error) {
	c := r.c
	r.emit()

	archive, err := epub.Open(r.in.Book)
	if err != nil {
		return nil, fmt.Errorf("failed to open book: %w", err)
	}

	var stats epub.BookStats
	if r.in.Stats != nil {
		stats = *r.in.Stats
	} else {
		stats = c.scanner.ComputeStats(archive, r.tags)
	}
	r.progress.bookSentences = stats.TotalSentences
	r.snap.BookSentences = stats.TotalSentences

	strategy, err := r.resolveStrategy(ctx, archive)
	if err != nil {
		return nil, err
	}
	r.checkpoint.Strategy = &strategy
	r.snap.Strategy = &strategy

	c.gate.Configure(r.settings, &strategy)
	if r.settings.FreeTier && c.pacingFloor > 0 {
		limiter := rate.NewLimiter(rate.Every(c.pacingFloor), 1)
		c.gate.SetThrottle(limiter.Wait)
		defer c.gate.SetThrottle(nil)
		r.log(LogWarning, fmt.Sprintf("Free tier pacing active: at most one request every %s", c.pacingFloor))
	}

	paths := c.scanner.Scan(archive)
	r.progress.docs = len(paths)
	r.snap.TotalDocuments = len(paths)
	r.setStatus(StatusProcessing)

	if len(paths) == 0 {
		r.log(LogWarning, "No translatable documents found in the book")
	} else {
		r.log(LogSuccess, fmt.Sprintf("Found %d documents to process", len(paths)))
	}

	for docIdx, docPath := range paths {
		if err := r.processDocument(ctx, archive, docIdx, docPath); err != nil {
			return nil, err
		}
	}

	r.log(LogInfo, "Saving translated book")
	book, err := archive.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to package book: %w", err)
	}

	if err := c.checkpoints.Clear(); err != nil {
		c.logger.Warnf("Failed to clear checkpoint: %v", err)
	}
	r.recordHistory(stats)

	r.progress.doc = len(paths)
	r.snap.CurrentDocument = len(paths)
	r.snap.Percent = 100
	r.snap.ETASeconds = 0
	r.snap.WaitCountdown = 0
	r.snap.Usage = c.gate.Usage()
	r.snap.Status = StatusCompleted
	r.log(LogSuccess, "Translation finished")

	return &Output{Book: book, Snapshot: r.snap.clone(), Stats: stats, Settings: r.settings}, nil
}

func (r *run) resolveStrategy(ctx context.Context, archive *epub.Archive) (translation.Strategy, error) {
	switch {
	case r.in.Resume != nil && r.in.Resume.Strategy != nil:
		return *r.in.Resume.Strategy, nil
	case r.in.Strategy != nil:
		return *r.in.Strategy, nil
	}

	r.setStatus(StatusAnalyzing)
	r.log(LogInfo, "Analyzing book")
	strategy, err := r.c.resolver.Analyze(ctx, r.c.scanner.ReadMetadata(archive), r.settings, "")
	if err != nil {
		return translation.Strategy{}, err
	}
	if ctx.Err() != nil {
		return translation.Strategy{}, ErrStopped
	}
	if strategy.IsFallback {
		r.log(LogWarning, "Book analysis unavailable; using the default strategy")
	} else {
		r.log(LogSuccess, fmt.Sprintf("Strategy: %s, %s", strategy.GenreEN, strategy.ToneEN))
	}
	return strategy, nil
}

func (r *run) processDocument(ctx context.Context, archive *epub.Archive, docIdx int, docPath string) error {
	c := r.c
	text, ok := archive.ReadText(docPath)
	if !ok {
		return nil
	}
	doc, err := epub.ParseDocument(text)
	if err != nil {
		r.log(LogWarning, fmt.Sprintf("Skipping %s: %v", path.Base(docPath), err))
		return nil
	}

	units := doc.Units(r.tags)
	var prior []string
	if r.in.Resume != nil {
		prior = r.in.Resume.TranslatedNodes[docPath]
	}

	r.progress.doc, r.progress.node, r.progress.nodes = docIdx, 0, len(units)
	r.snap.CurrentDocument, r.snap.CurrentNode, r.snap.TotalNodes = docIdx, 0, len(units)
	if len(units) > 0 {
		r.log(LogInfo, fmt.Sprintf("Processing %s", path.Base(docPath)))
	}

	changed := false
	done := make([]string, 0, len(units))
	for nodeIdx, el := range units {
		if ctx.Err() != nil {
			return ErrStopped
		}

		original := el.InnerHTML()
		var translated string
		if nodeIdx < len(prior) {
			translated = prior[nodeIdx]
		} else {
			res, err := r.translateUnit(ctx, original)
			if err != nil {
				return err
			}
			// A result that arrives after cancellation is dropped.
			if ctx.Err() != nil {
				return ErrStopped
			}
			translated = res.Text
			if res.Outcome == translation.OutcomeFallback {
				r.snap.Fallbacks++
			}
			sentences := textstat.CountSentences(original)
			r.progress.cumSentences += sentences
			r.progress.runSentences += sentences
			r.progress.runWords += textstat.CountWords(original)
		}

		if translated != original {
			el.SetInnerHTML(translated)
			changed = true
		}
		done = append(done, translated)

		r.checkpoint.TranslatedNodes[docPath] = done
		r.checkpoint.DocumentIndex = docIdx
		r.checkpoint.NodeIndex = nodeIdx + 1
		r.checkpoint.CumulativeSentences = r.progress.cumSentences
		r.progress.node = nodeIdx + 1
		r.snap.CurrentNode = nodeIdx + 1
		r.snap.UnitsDone++

		if nodeIdx >= len(prior) {
			r.checkpoint.UpdatedAt = c.now()
			if err := c.checkpoints.Save(r.checkpoint); err != nil {
				c.logger.Warnf("Failed to save checkpoint: %v", err)
			}
		}
		r.refresh()
		r.emit()
	}

	if changed {
		rendered, err := doc.Render()
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", docPath, err)
		}
		archive.WriteText(docPath, rendered)
	}
	return nil
}

// translateUnit calls the gate until the unit completes. A quota error moves
// the run to waiting and the same unit is retried afterwards.
func (r *run) translateUnit(ctx context.Context, unit string) (translation.Result, error) {
	for {
		if ctx.Err() != nil {
			return translation.Result{}, ErrStopped
		}

		res, err := r.c.gate.Translate(ctx, unit)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, translation.ErrQuotaExceeded):
			if err := r.waitForQuota(ctx); err != nil {
				return translation.Result{}, err
			}
		case ctx.Err() != nil, errors.Is(err, context.Canceled):
			return translation.Result{}, ErrStopped
		default:
			return translation.Result{}, err
		}
	}
}

// waitForQuota counts down without advancing the cursor. Time spent here is
// excluded from the active time behind throughput and ETA.
func (r *run) waitForQuota(ctx context.Context) error {
	c := r.c
	r.snap.WaitVisits++
	r.setStatus(StatusWaiting)
	r.log(LogWarning, fmt.Sprintf("Quota exhausted; retrying in %d seconds", c.quotaTicks))

	for remaining := c.quotaTicks; remaining > 0; remaining-- {
		if ctx.Err() != nil {
			return ErrStopped
		}

		r.snap.WaitCountdown = remaining
		r.refresh()
		r.snap.ETASeconds += int(time.Duration(remaining) * c.tick / time.Second)
		r.emit()

		if err := c.sleep(ctx, c.tick); err != nil {
			return ErrStopped
		}
		r.progress.waitTime += c.tick
	}

	r.snap.WaitCountdown = 0
	r.setStatus(StatusProcessing)
	return nil
}

func (r *run) recordHistory(stats epub.BookStats) {
	if r.c.history == nil {
		return
	}
	status := session.StatusCompleted
	if r.snap.Fallbacks > 0 {
		status = session.StatusPartial
	}
	err := r.c.history.Append(session.HistoryItem{
		Timestamp:      r.c.now(),
		Filename:       r.in.Filename,
		SourceLanguage: r.settings.SourceLanguage,
		TargetLanguage: r.settings.TargetLanguage,
		Model:          r.settings.Model,
		WordCount:      stats.TotalWords,
		Units:          stats.TotalUnits,
		Status:         status,
		Settings:       r.settings,
	})
	if err != nil {
		r.c.logger.Warnf("Failed to record history: %v", err)
	}
}

// refresh copies tracker values into the snapshot.
func (r *run) refresh() {
	now := r.c.now()
	r.snap.Percent = r.progress.updatePercent()
	r.snap.ETASeconds = r.progress.eta(now)
	r.snap.WordsPerSecond = r.progress.wordsPerSecond(now)
	r.snap.TotalWords = r.progress.runWords
	r.snap.TotalSentences = r.progress.cumSentences
	r.snap.Usage = r.c.gate.Usage()
}

func (r *run) setStatus(status Status) {
	r.snap.Status = status
	r.emit()
}

func (r *run) log(level LogLevel, message string) {
	switch level {
	case LogError:
		r.c.logger.Error(message)
	case LogWarning:
		r.c.logger.Warn(message)
	default:
		r.c.logger.Info(message)
	}

	r.snap.Logs = append(r.snap.Logs, LogEntry{Time: r.c.now(), Level: level, Message: message})
	if over := len(r.snap.Logs) - r.c.logCap; r.c.logCap > 0 && over > 0 {
		r.snap.Logs = append([]LogEntry(nil), r.snap.Logs[over:]...)
	}
	r.emit()
}

func (r *run) emit() {
	snap := r.snap.clone()

	r.c.mu.Lock()
	r.c.snap = snap
	r.c.mu.Unlock()

	if r.c.emitter != nil {
		r.c.emitter.Emit(snap.clone())
	}
}
