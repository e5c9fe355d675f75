package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"epub-translator/internal/epub"

	"github.com/sirupsen/logrus"
)

// FallbackStrategy is used whenever analysis fails for a reason other than
// missing credentials.
func FallbackStrategy() Strategy {
	return Strategy{
		GenreEN:               "Literature",
		ToneEN:                "Narrative",
		AuthorStyleEN:         "Fluid",
		StrategyEN:            "Fidelity",
		GenreTranslated:       "Literature",
		ToneTranslated:        "Narrative",
		AuthorStyleTranslated: "Fluid",
		StrategyTranslated:    "Fidelity",
		LiteraryFidelityNote:  "Default strategy used because the book analysis was unavailable.",
		CreativityLevel:       0.3,
		IsFallback:            true,
	}
}

// Resolver derives a Strategy for a whole book through the Analyzer.
type Resolver struct {
	analyzer Analyzer
	usage    *UsageMeter
	logger   *logrus.Logger
}

// NewResolver creates a Resolver that records token usage in usage.
func NewResolver(analyzer Analyzer, usage *UsageMeter, logger *logrus.Logger) *Resolver {
	if usage == nil {
		usage = NewUsageMeter()
	}
	return &Resolver{analyzer: analyzer, usage: usage, logger: logger}
}

// Analyze asks for a strategy. feedback is optional reviewer guidance. Every
// failure degrades to FallbackStrategy except ErrCredentialRequired, which is
// returned so the caller can stop instead of running blind.
func (r *Resolver) Analyze(ctx context.Context, meta epub.BookMetadata, settings Settings, feedback string) (Strategy, error) {
	resp, err := r.analyzer.Analyze(ctx, AnalyzeRequest{
		Prompt: AnalysisPrompt(settings, meta, feedback),
		Fields: StrategyFields,
	})
	if err != nil {
		if errors.Is(err, ErrCredentialRequired) {
			return Strategy{}, err
		}
		r.logger.Warnf("Book analysis failed, using fallback strategy: %v", err)
		return FallbackStrategy(), nil
	}
	r.usage.Add(resp.Usage)

	strategy, err := ParseStrategy(resp.JSON)
	if err != nil {
		r.logger.Warnf("Book analysis unusable, using fallback strategy: %v", err)
		return FallbackStrategy(), nil
	}

	r.logger.Debugf("Book strategy: genre=%s tone=%s creativity=%.2f", strategy.GenreEN, strategy.ToneEN, strategy.CreativityLevel)
	return strategy, nil
}

// ParseStrategy decodes an analyzer response. The object may be wrapped in a
// code fence or surrounded by prose; every schema field must be present.
func ParseStrategy(raw string) (Strategy, error) {
	body := stripCodeFence(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start == -1 || end < start {
		return Strategy{}, fmt.Errorf("%w: no JSON object", ErrMalformedAnalysis)
	}
	body = body[start : end+1]

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return Strategy{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	for _, f := range StrategyFields {
		value, ok := fields[f.Name]
		if !ok || string(value) == "null" {
			return Strategy{}, fmt.Errorf("%w: missing %s", ErrMalformedAnalysis, f.Name)
		}
	}

	var strategy Strategy
	if err := json.Unmarshal([]byte(body), &strategy); err != nil {
		return Strategy{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	strategy.CreativityLevel = min(max(strategy.CreativityLevel, 0), 1)
	strategy.IsFallback = false

	return strategy, nil
}
