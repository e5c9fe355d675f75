package translation

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Reasons reported by Detector.Check.
const (
	ReasonEmpty      = "empty"
	ReasonTooShort   = "too_short"
	ReasonVerbatim   = "verbatim"
	ReasonRepetitive = "repetitive"
	ReasonSourceLeak = "source_leak"
)

const (
	emptyMinChars      = 5
	tooShortMinChars   = 50
	verbatimMinChars   = 30
	leakMinChars       = 80
	leakMarkerLimit    = 3
	loopMinWords       = 15
	loopMinPeriod      = 4
	loopRepeats        = 3
	loopMaxPeriod      = 200
	capitalizedRatio   = 0.6
	tooShortPercentage = 10
)

var (
	exemptBlocks = regexp.MustCompile(`(?is)<table\b.*?</table>|<a\b[^>]*>.*?</a>|<svg\b.*?</svg>|<figure\b.*?</figure>|<img\b[^>]*>`)
	anyTag       = regexp.MustCompile(`<[^>]*>`)
	numericOnly  = regexp.MustCompile(`^[\d\s.,:;()\[\]\-–]+$`)

	parenthesizedYear = regexp.MustCompile(`\(\d{4}\)`)
	bracketCitation   = regexp.MustCompile(`\[\d+\]`)
	numberedHeading   = regexp.MustCompile(`^\d+\.\s+\p{Lu}`)
)

// DefaultLeakMarkers are English function words that should not survive a
// translation into the leak-sensitive language.
var DefaultLeakMarkers = []string{"the", "and", "with", "that", "which", "this", "from", "have", "were", "would", "there", "their"}

// Detector scores a returned translation against its source.
type Detector struct {
	leakLanguages []string
	markers       []*regexp.Regexp
}

// NewDetector builds a detector whose source-leak rule applies when the
// target language matches one of leakLanguages (names or codes).
func NewDetector(leakLanguages []string, markers []string) *Detector {
	d := &Detector{}
	for _, lang := range leakLanguages {
		if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
			d.leakLanguages = append(d.leakLanguages, lang)
		}
	}
	for _, m := range markers {
		d.markers = append(d.markers, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`\b`))
	}
	return d
}

// DefaultDetector guards Turkish output against English leftovers.
func DefaultDetector() *Detector {
	return NewDetector([]string{"turkish", "türkçe", "tr"}, DefaultLeakMarkers)
}

// Check returns the first rule the translation trips, if any.
func (d *Detector) Check(original, translated, targetLanguage string) (string, bool) {
	orig := stripExempt(original)
	trans := stripExempt(translated)
	origLen := utf8.RuneCountInString(orig)
	transLen := utf8.RuneCountInString(trans)
	reference := isReferenceLike(orig)

	switch {
	case origLen > emptyMinChars && transLen == 0 && !numericOnly.MatchString(orig):
		return ReasonEmpty, true
	case origLen > tooShortMinChars && transLen*100 < origLen*tooShortPercentage:
		return ReasonTooShort, true
	case !reference && origLen > verbatimMinChars && strings.EqualFold(orig, trans):
		return ReasonVerbatim, true
	case len(strings.Fields(trans)) >= loopMinWords && hasRepeatedRun(trans, loopMinPeriod, loopMaxPeriod, loopRepeats):
		return ReasonRepetitive, true
	case !reference && d.leakSensitive(targetLanguage) && origLen > leakMinChars && d.countMarkers(trans) > leakMarkerLimit:
		return ReasonSourceLeak, true
	}
	return "", false
}

func (d *Detector) leakSensitive(target string) bool {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return false
	}
	for _, lang := range d.leakLanguages {
		if target == lang || (len(lang) > 2 && strings.Contains(target, lang)) {
			return true
		}
	}
	return false
}

func (d *Detector) countMarkers(text string) int {
	found := 0
	for _, m := range d.markers {
		if m.MatchString(text) {
			found++
		}
	}
	return found
}

func stripExempt(fragment string) string {
	text := exemptBlocks.ReplaceAllString(fragment, "")
	text = anyTag.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

// isReferenceLike flags bibliography entries, citations and table-of-contents
// lines. It is deliberately loose and may misclassify short factual prose.
func isReferenceLike(text string) bool {
	if parenthesizedYear.MatchString(text) || bracketCitation.MatchString(text) || numberedHeading.MatchString(text) {
		return true
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			capitalized++
		}
	}
	return float64(capitalized)/float64(len(words)) > capitalizedRatio
}

// hasRepeatedRun reports whether some substring of minPeriod to maxPeriod
// runes occurs repeats times back to back. A span with period L repeated n
// times has (n-1)*L consecutive positions where s[j] == s[j+L].
func hasRepeatedRun(s string, minPeriod, maxPeriod, repeats int) bool {
	runes := []rune(s)
	n := len(runes)
	for period := minPeriod; period <= maxPeriod && period*repeats <= n; period++ {
		need := (repeats - 1) * period
		run := 0
		for j := 0; j+period < n; j++ {
			if runes[j] != runes[j+period] {
				run = 0
				continue
			}
			run++
			if run >= need {
				return true
			}
		}
	}
	return false
}
