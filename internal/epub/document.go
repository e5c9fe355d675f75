package epub

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an editable (X)HTML spine document. Elements are located by
// byte offset in the source and Render splices edited inner HTML back in, so
// every byte outside an edited unit is written out exactly as it was read.
type Document struct {
	original string
	spans    []span
	texts    []textRun
	edits    []*Element
}

// span is one non-void element of the source.
type span struct {
	name       string
	innerStart int
	innerEnd   int
	parent     int
	inHead     bool
}

// textRun is a non-blank text token and the innermost element holding it.
type textRun struct {
	parent int
}

// Element is a handle on one translatable element of a Document.
type Element struct {
	doc    *Document
	start  int
	end    int
	html   string
	edited bool
}

type openElement struct {
	name string
	span int
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "link": true, "meta": true, "param": true,
	"source": true, "track": true, "wbr": true,
}

// ParseDocument tokenizes a spine document. Self-closing tags are taken at
// their XHTML meaning and never open an element.
func ParseDocument(text string) (*Document, error) {
	d := &Document{original: text}
	z := html.NewTokenizer(strings.NewReader(text))

	var stack []openElement
	inHead := false
	pos := 0

	closeFrom := func(k, at int) {
		for j := len(stack) - 1; j >= k; j-- {
			if i := stack[j].span; i >= 0 {
				d.spans[i].innerEnd = at
			}
		}
		stack = stack[:k]
	}

	for {
		tt := z.Next()
		tokenStart := pos
		pos += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("failed to parse HTML: %w", err)
			}
			closeFrom(0, len(text))
			return d, nil

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "head" {
				inHead = true
			}
			if voidElements[tag] {
				continue
			}
			parent := -1
			if len(stack) > 0 {
				parent = stack[len(stack)-1].span
			}
			d.spans = append(d.spans, span{
				name:       tag,
				innerStart: pos,
				innerEnd:   pos,
				parent:     parent,
				inHead:     inHead,
			})
			stack = append(stack, openElement{name: tag, span: len(d.spans) - 1})

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "head" {
				inHead = false
			}
			for k := len(stack) - 1; k >= 0; k-- {
				if stack[k].name == tag {
					closeFrom(k, tokenStart)
					break
				}
			}

		case html.TextToken:
			if len(stack) == 0 || strings.TrimSpace(string(z.Text())) == "" {
				continue
			}
			top := stack[len(stack)-1]
			if top.name == "script" || top.name == "style" {
				continue
			}
			d.texts = append(d.texts, textRun{parent: top.span})
		}
	}
}

// Units returns the translatable elements for the given tag allow-list in
// document order. A matching element that holds other matches is a unit only
// when it carries text of its own; otherwise its matching descendants are.
// Elements whose trimmed inner HTML is empty are skipped.
func (d *Document) Units(tags []string) []*Element {
	allowed := tagSet(tags)
	if len(allowed) == 0 {
		return nil
	}

	match := func(i int) bool {
		return !d.spans[i].inHead && allowed[d.spans[i].name]
	}
	nearest := func(i int) int {
		for ; i >= 0; i = d.spans[i].parent {
			if match(i) {
				return i
			}
		}
		return -1
	}

	ownText := make(map[int]bool)
	for _, t := range d.texts {
		if owner := nearest(t.parent); owner >= 0 {
			ownText[owner] = true
		}
	}

	children := make(map[int][]int)
	var roots []int
	for i := range d.spans {
		if !match(i) {
			continue
		}
		if owner := nearest(d.spans[i].parent); owner >= 0 {
			children[owner] = append(children[owner], i)
		} else {
			roots = append(roots, i)
		}
	}

	var units []*Element
	var pick func(i int)
	pick = func(i int) {
		if ownText[i] || len(children[i]) == 0 {
			s := d.spans[i]
			if strings.TrimSpace(d.original[s.innerStart:s.innerEnd]) != "" {
				units = append(units, &Element{doc: d, start: s.innerStart, end: s.innerEnd})
			}
			return
		}
		for _, c := range children[i] {
			pick(c)
		}
	}
	for _, r := range roots {
		pick(r)
	}

	return units
}

// InnerHTML returns the element's inner HTML, as read or as last set.
func (e *Element) InnerHTML() string {
	if e.edited {
		return e.html
	}
	return e.doc.original[e.start:e.end]
}

// SetInnerHTML replaces the element's content. The fragment is balanced
// before it is stored so a stray tag cannot leak past the element.
func (e *Element) SetInnerHTML(fragment string) {
	e.html = balanceFragment(fragment)
	if !e.edited {
		e.edited = true
		e.doc.edits = append(e.doc.edits, e)
	}
}

// Render serializes the document with every edited unit spliced in.
func (d *Document) Render() (string, error) {
	edits := make([]*Element, len(d.edits))
	copy(edits, d.edits)
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(d.original))
	last := 0
	for _, e := range edits {
		if e.start < last {
			return "", fmt.Errorf("failed to render document: overlapping units at offset %d", e.start)
		}
		b.WriteString(d.original[last:e.start])
		b.WriteString(e.html)
		last = e.end
	}
	b.WriteString(d.original[last:])
	return b.String(), nil
}

// balanceFragment runs a fragment through the HTML parser so unclosed or
// stray tags are repaired. XHTML self-closing tags are expanded first, since
// the HTML parser would otherwise leave them open.
func balanceFragment(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + expandSelfClosing(fragment) + "</body>"))
	if err != nil {
		return fragment
	}
	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

func expandSelfClosing(fragment string) string {
	if !strings.Contains(fragment, "/>") {
		return fragment
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		raw := string(z.Raw())
		if tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			if tag := string(name); !voidElements[tag] {
				raw = strings.TrimSuffix(raw, "/>") + "></" + tag + ">"
			}
		}
		b.WriteString(raw)
	}
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = true
		}
	}
	return set
}
