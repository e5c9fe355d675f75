package translation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Outcome describes how the gate produced a unit's text.
type Outcome string

const (
	OutcomeSkipped    Outcome = "skipped"
	OutcomeCached     Outcome = "cached"
	OutcomeTranslated Outcome = "translated"
	OutcomeFallback   Outcome = "fallback"
)

const (
	// MinTemperature is the floor sent to providers. go-openai drops a zero
	// temperature from the request, which would fall back to the server default.
	MinTemperature     float32 = 0.05
	strictTemperature  float32 = 0.2
	literalTemperature float32 = MinTemperature
)

var codeFence = regexp.MustCompile("(?is)^```(?:html|xhtml|xml|json)?\\s*\\n?(.*?)\\n?```$")

// Result is the text the gate settled on for one unit.
type Result struct {
	Text    string
	Outcome Outcome
	Calls   int
}

// Gate wraps the external translator with the skip filter, cache,
// suspicion detector and repair escalation.
type Gate struct {
	translator Translator
	cache      ContentCache
	detector   *Detector
	usage      *UsageMeter
	logger     *logrus.Logger

	mu       sync.RWMutex
	settings Settings
	strategy *Strategy
	throttle func(ctx context.Context) error
}

// NewGate creates a Gate. A nil detector uses DefaultDetector and a nil
// usage meter gets a fresh one.
func NewGate(translator Translator, cache ContentCache, detector *Detector, usage *UsageMeter, logger *logrus.Logger) *Gate {
	if detector == nil {
		detector = DefaultDetector()
	}
	if usage == nil {
		usage = NewUsageMeter()
	}
	return &Gate{
		translator: translator,
		cache:      cache,
		detector:   detector,
		usage:      usage,
		logger:     logger,
	}
}

// Configure binds the run's settings and book strategy.
func (g *Gate) Configure(settings Settings, strategy *Strategy) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.settings = settings
	g.strategy = strategy
}

// SetThrottle installs a hook that runs right before every external call.
// Passing nil removes it.
func (g *Gate) SetThrottle(throttle func(ctx context.Context) error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.throttle = throttle
}

// Usage returns the tokens spent so far.
func (g *Gate) Usage() Usage {
	return g.usage.Snapshot()
}

// Translate runs repair levels 0 through MaxRepairLevel. Quota, credential,
// throttle and context errors are returned immediately. When every level is rejected
// the original text comes back with OutcomeFallback.
func (g *Gate) Translate(ctx context.Context, unit string) (Result, error) {
	if ShouldSkip(unit) {
		return Result{Text: unit, Outcome: OutcomeSkipped}, nil
	}

	var result Result
	for level := 0; level <= MaxRepairLevel; level++ {
		out, err := g.attempt(ctx, unit, level)
		if out.called {
			result.Calls++
		}
		if err == nil {
			result.Text = out.text
			result.Outcome = out.outcome
			return result, nil
		}
		if isFatal(err) {
			return result, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		g.logger.Debugf("Repair level %d rejected: %v", level, err)
	}

	g.logger.Warnf("Keeping original text after %d rejected attempts", result.Calls)
	result.Text = unit
	result.Outcome = OutcomeFallback
	return result, nil
}

// Attempt performs a single translation at the given repair level.
func (g *Gate) Attempt(ctx context.Context, unit string, level int) (string, error) {
	if ShouldSkip(unit) {
		return unit, nil
	}
	out, err := g.attempt(ctx, unit, level)
	return out.text, err
}

type attemptResult struct {
	text    string
	outcome Outcome
	called  bool
}

func (g *Gate) attempt(ctx context.Context, unit string, level int) (attemptResult, error) {
	g.mu.RLock()
	settings, strategy, throttle := g.settings, g.strategy, g.throttle
	g.mu.RUnlock()

	trimmed := strings.TrimSpace(unit)
	key := CacheKey(trimmed, settings.TargetLanguage)

	if level == 0 && g.cache != nil {
		if cached, ok := g.cache.Get(key); ok {
			return attemptResult{text: cached, outcome: OutcomeCached}, nil
		}
	}

	if throttle != nil {
		if err := throttle(ctx); err != nil {
			return attemptResult{}, fmt.Errorf("%w: %w", ErrThrottled, err)
		}
	}

	resp, err := g.translator.Translate(ctx, TranslateRequest{
		Text:              trimmed,
		SystemInstruction: SystemInstruction(settings, strategy, level),
		Temperature:       temperatureFor(settings, strategy, level),
	})
	if err != nil {
		if isFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return attemptResult{called: true}, err
		}
		return attemptResult{called: true}, fmt.Errorf("failed to translate at level %d: %w", level, err)
	}
	g.usage.Add(resp.Usage)

	translated := stripCodeFence(resp.Text)
	if reason, suspicious := g.detector.Check(trimmed, translated, settings.TargetLanguage); suspicious {
		return attemptResult{called: true}, fmt.Errorf("%w: %s", ErrSuspiciousTranslation, reason)
	}

	if g.cache != nil && translated != trimmed {
		if err := g.cache.Set(key, translated); err != nil {
			g.logger.Warnf("Failed to cache translation: %v", err)
		}
	}

	return attemptResult{text: translated, outcome: OutcomeTranslated, called: true}, nil
}

func temperatureFor(settings Settings, strategy *Strategy, level int) float32 {
	base := settings.Temperature
	if strategy != nil {
		base = float32(strategy.CreativityLevel)
	}

	switch {
	case level >= MaxRepairLevel:
		return literalTemperature
	case level == 1:
		base = min(base, strictTemperature)
	}
	return max(base, MinTemperature)
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

func isFatal(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrCredentialRequired) || errors.Is(err, ErrThrottled)
}
