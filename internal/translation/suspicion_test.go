package translation_test

import (
	"testing"

	"epub-translator/internal/translation"
)

func TestDetectorCheck(t *testing.T) {
	testCases := []struct {
		name       string
		original   string
		translated string
		target     string
		reason     string
	}{
		{
			name:       "Empty translation",
			original:   "Hello world again",
			translated: "  ",
			target:     "German",
			reason:     translation.ReasonEmpty,
		},
		{
			name:       "Numeric original may come back empty",
			original:   "123456789",
			translated: "",
			target:     "German",
		},
		{
			name:       "Too short",
			original:   "She walked along the shore for hours, thinking about the letter.",
			translated: "Kısa",
			target:     "Turkish",
			reason:     translation.ReasonTooShort,
		},
		{
			name:       "Verbatim copy ignoring case",
			original:   "The quiet river wandered through a town.",
			translated: "the quiet river wandered through a TOWN.",
			target:     "German",
			reason:     translation.ReasonVerbatim,
		},
		{
			name:       "Short verbatim is tolerated",
			original:   "Hello there",
			translated: "Hello there",
			target:     "German",
		},
		{
			name:       "Citation with year is tolerated verbatim",
			original:   "Smith, J. (1999) The long road home and more",
			translated: "Smith, J. (1999) The long road home and more",
			target:     "German",
		},
		{
			name:       "Numbered heading is tolerated verbatim",
			original:   "1. Introduction to the theory of everything",
			translated: "1. Introduction to the theory of everything",
			target:     "German",
		},
		{
			name:       "Repetitive loop",
			original:   "One two three four five six seven eight nine ten, and then it stopped.",
			translated: "bir iki üç dört beş altı yedi sekiz dokuz on on bir on iki hayır hayır hayır hayır",
			target:     "German",
			reason:     translation.ReasonRepetitive,
		},
		{
			name:       "Source leak into Turkish",
			original:   "The captain stood at the bow and watched the storm gather with a grim face that told everything.",
			translated: "Kaptan the pruvada and durdu with fırtınayı that izledi.",
			target:     "Turkish",
			reason:     translation.ReasonSourceLeak,
		},
		{
			name:       "Leak rule only applies to the sensitive language",
			original:   "The captain stood at the bow and watched the storm gather with a grim face that told everything.",
			translated: "Kaptan the pruvada and durdu with fırtınayı that izledi.",
			target:     "German",
		},
		{
			name:       "Exempt blocks are ignored",
			original:   `<a href="ch1.xhtml">Chapter One of the Long Journey Home</a>`,
			translated: `<a href="ch1.xhtml">Chapter One of the Long Journey Home</a>`,
			target:     "German",
		},
		{
			name:       "Good translation",
			original:   "<p>The <em>quiet</em> river wandered through a town.</p>",
			translated: "<p>Sessiz <em>nehir</em> kasabanın içinden dolaştı.</p>",
			target:     "Turkish",
		},
	}

	detector := translation.DefaultDetector()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reason, suspicious := detector.Check(tc.original, tc.translated, tc.target)
			if suspicious != (tc.reason != "") {
				t.Fatalf("suspicious = %v (%s), expected reason %q", suspicious, reason, tc.reason)
			}
			if reason != tc.reason {
				t.Errorf("reason = %q, expected %q", reason, tc.reason)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	testCases := []struct {
		unit string
		skip bool
	}{
		{`<img src="a.png"/>`, true},
		{`<img src="a.png"/> <img src="b.png"/>`, true},
		{`<table><tr><td>1</td></tr></table>`, true},
		{`<svg><path d="M0 0"/></svg>`, true},
		{"  ", true},
		{"&nbsp;", true},
		{`<a href="#n1">1</a>`, true},
		{`<a href="#n1">Note</a>`, false},
		{`Figure <img src="a.png"/>`, false},
		{"42", false},
		{"Plain prose.", false},
	}

	for _, tc := range testCases {
		if got := translation.ShouldSkip(tc.unit); got != tc.skip {
			t.Errorf("ShouldSkip(%q) = %v, expected %v", tc.unit, got, tc.skip)
		}
	}
}
