// Package textstat measures HTML fragments for progress and cost estimates.
package textstat

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var terminalPunct = regexp.MustCompile(`[.!?]+`)

// PlainText returns the text content of an HTML fragment with entities decoded,
// the same string a DOM would report as textContent.
func PlainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF on in-memory input; anything else still leaves usable text.
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte(' ')
			}
		}
	}
}

// CountSentences estimates the number of sentences in a fragment. Text without
// terminal punctuation counts as one sentence; empty text counts as zero.
func CountSentences(fragment string) int {
	text := strings.TrimSpace(PlainText(fragment))
	if text == "" {
		return 0
	}
	n := len(terminalPunct.FindAllStringIndex(text, -1))
	if n == 0 {
		return 1
	}
	return n
}

// CountWords returns the number of whitespace separated words in the fragment text.
func CountWords(fragment string) int {
	return len(strings.Fields(PlainText(fragment)))
}

// CountChars returns the rune length of the fragment's trimmed text.
func CountChars(fragment string) int {
	return utf8.RuneCountInString(strings.TrimSpace(PlainText(fragment)))
}
