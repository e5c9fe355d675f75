// Package translationtest provides scripted translators for tests.
package translationtest

import (
	"context"
	"strings"
	"sync"

	"epub-translator/internal/translation"
)

// Func adapts a function to translation.Translator.
type Func func(ctx context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error)

func (f Func) Translate(ctx context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error) {
	return f(ctx, req)
}

// Recorder counts and records calls to a wrapped translator.
type Recorder struct {
	Next translation.Translator

	mu       sync.Mutex
	requests []translation.TranslateRequest
}

func NewRecorder(next translation.Translator) *Recorder {
	return &Recorder{Next: next}
}

func (r *Recorder) Translate(ctx context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return r.Next.Translate(ctx, req)
}

func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *Recorder) Requests() []translation.TranslateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]translation.TranslateRequest(nil), r.requests...)
}

// Echo returns its input unchanged.
func Echo() translation.Translator {
	return Func(func(_ context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error) {
		return translation.TranslateResponse{Text: req.Text}, nil
	})
}

// Upper returns its input upper-cased with a marker prefix, a deterministic
// stand-in that always passes the suspicion checks for prose.
func Upper() translation.Translator {
	return Func(func(_ context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error) {
		return translation.TranslateResponse{
			Text:  "TR: " + strings.ToUpper(req.Text),
			Usage: translation.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
		}, nil
	})
}

// FailFirst returns err for the first n calls, then delegates to next.
func FailFirst(n int, err error, next translation.Translator) translation.Translator {
	var mu sync.Mutex
	calls := 0
	return Func(func(ctx context.Context, req translation.TranslateRequest) (translation.TranslateResponse, error) {
		mu.Lock()
		calls++
		fail := calls <= n
		mu.Unlock()
		if fail {
			return translation.TranslateResponse{}, err
		}
		return next.Translate(ctx, req)
	})
}

// Analyzer returns a fixed response or error.
type Analyzer struct {
	JSON string
	Err  error

	mu      sync.Mutex
	prompts []string
}

func (a *Analyzer) Analyze(_ context.Context, req translation.AnalyzeRequest) (translation.AnalyzeResponse, error) {
	a.mu.Lock()
	a.prompts = append(a.prompts, req.Prompt)
	a.mu.Unlock()
	if a.Err != nil {
		return translation.AnalyzeResponse{}, a.Err
	}
	return translation.AnalyzeResponse{JSON: a.JSON, Usage: translation.Usage{TotalTokens: 10}}, nil
}

func (a *Analyzer) Prompts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.prompts...)
}

// StrategyJSON is a complete analyzer response.
const StrategyJSON = `{
  "genre_en": "Mystery",
  "tone_en": "Dark",
  "author_style_en": "Concise",
  "strategy_en": "Keep the suspense",
  "genre_translated": "Gizem",
  "tone_translated": "Karanlık",
  "author_style_translated": "Özlü",
  "strategy_translated": "Gerilimi koru",
  "literary_fidelity_note": "Short sentences matter.",
  "detected_creativity_level": 0.6
}`
