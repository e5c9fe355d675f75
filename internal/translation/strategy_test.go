package translation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"epub-translator/internal/epub"
	"epub-translator/internal/translation"
	"epub-translator/internal/translation/translationtest"
)

var testMeta = epub.BookMetadata{Title: "The Hound", Creator: "A. Writer", Description: "A dog on the moor."}

var testSettings = translation.Settings{SourceLanguage: "en", TargetLanguage: "tr", UILanguage: "tr"}

func TestResolverAnalyze(t *testing.T) {
	analyzer := &translationtest.Analyzer{JSON: translationtest.StrategyJSON}
	usage := translation.NewUsageMeter()
	resolver := translation.NewResolver(analyzer, usage, newLogger())

	strategy, err := resolver.Analyze(context.Background(), testMeta, testSettings, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if strategy.GenreEN != "Mystery" || strategy.ToneTranslated != "Karanlık" {
		t.Errorf("Unexpected strategy: %+v", strategy)
	}
	if strategy.CreativityLevel != 0.6 || strategy.IsFallback {
		t.Errorf("CreativityLevel = %v, IsFallback = %v", strategy.CreativityLevel, strategy.IsFallback)
	}
	if usage.Snapshot().TotalTokens != 10 {
		t.Errorf("Usage not recorded: %+v", usage.Snapshot())
	}

	prompt := analyzer.Prompts()[0]
	for _, want := range []string{"The Hound", "from English to Turkish", "in Turkish."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "REVIEWER FEEDBACK") {
		t.Error("Prompt should not mention feedback when none was given")
	}
}

func TestResolverFeedbackIsIncorporated(t *testing.T) {
	analyzer := &translationtest.Analyzer{JSON: translationtest.StrategyJSON}
	resolver := translation.NewResolver(analyzer, nil, newLogger())

	if _, err := resolver.Analyze(context.Background(), testMeta, testSettings, "It is a comedy, not a thriller"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	prompt := analyzer.Prompts()[0]
	if !strings.Contains(prompt, "REVIEWER FEEDBACK") || !strings.Contains(prompt, "It is a comedy, not a thriller") {
		t.Fatalf("Feedback missing from prompt:\n%s", prompt)
	}
}

func TestResolverFallsBack(t *testing.T) {
	testCases := []struct {
		name     string
		analyzer *translationtest.Analyzer
	}{
		{"Quota", &translationtest.Analyzer{Err: fmt.Errorf("%w: 429", translation.ErrQuotaExceeded)}},
		{"Network", &translationtest.Analyzer{Err: errors.New("dial tcp: timeout")}},
		{"Not JSON", &translationtest.Analyzer{JSON: "I think it is a novel."}},
		{"Missing field", &translationtest.Analyzer{JSON: `{"genre_en": "Drama"}`}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := translation.NewResolver(tc.analyzer, nil, newLogger())
			strategy, err := resolver.Analyze(context.Background(), testMeta, testSettings, "")
			if err != nil {
				t.Fatalf("Analyze should not fail, got %v", err)
			}
			if strategy != translation.FallbackStrategy() {
				t.Fatalf("Expected fallback strategy, got %+v", strategy)
			}
			if strategy.GenreEN != "Literature" || strategy.CreativityLevel != 0.3 || !strategy.IsFallback {
				t.Errorf("Unexpected fallback values: %+v", strategy)
			}
		})
	}
}

func TestResolverSurfacesMissingCredentials(t *testing.T) {
	analyzer := &translationtest.Analyzer{Err: fmt.Errorf("%w: no key", translation.ErrCredentialRequired)}
	resolver := translation.NewResolver(analyzer, nil, newLogger())

	_, err := resolver.Analyze(context.Background(), testMeta, testSettings, "")
	if !errors.Is(err, translation.ErrCredentialRequired) {
		t.Fatalf("Expected ErrCredentialRequired, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	fenced := "```json\n" + translationtest.StrategyJSON + "\n```"
	strategy, err := translation.ParseStrategy(fenced)
	if err != nil {
		t.Fatalf("ParseStrategy failed: %v", err)
	}
	if strategy.AuthorStyleEN != "Concise" {
		t.Errorf("AuthorStyleEN = %q", strategy.AuthorStyleEN)
	}

	loud := strings.Replace(translationtest.StrategyJSON, "0.6", "1.7", 1)
	strategy, err = translation.ParseStrategy(loud)
	if err != nil {
		t.Fatalf("ParseStrategy failed: %v", err)
	}
	if strategy.CreativityLevel != 1 {
		t.Errorf("CreativityLevel = %v, expected clamp to 1", strategy.CreativityLevel)
	}

	if _, err := translation.ParseStrategy(`{"genre_en": null}`); !errors.Is(err, translation.ErrMalformedAnalysis) {
		t.Errorf("Expected ErrMalformedAnalysis, got %v", err)
	}
}
