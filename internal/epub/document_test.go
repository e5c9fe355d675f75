package epub

import (
	"reflect"
	"strings"
	"testing"

	"epub-translator/internal/epub/epubtest"
)

func TestRenderPreservesPrologAndHead(t *testing.T) {
	source := epubtest.Document(`<p class="x">Hello.</p><p>World.</p>`)
	doc, err := ParseDocument(source)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	units := doc.Units(DefaultTags)
	if len(units) != 2 {
		t.Fatalf("Expected 2 units, got %d", len(units))
	}
	units[0].SetInnerHTML("Merhaba.")

	rendered, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	prolog := source[:strings.Index(source, "<body>")+len("<body>")]
	if !strings.HasPrefix(rendered, prolog) {
		t.Errorf("Prolog and head changed:\n%s", rendered)
	}
	if !strings.HasSuffix(rendered, "</body>\n</html>") {
		t.Errorf("Trailer changed:\n%s", rendered)
	}
	if !strings.Contains(rendered, `<p class="x">Merhaba.</p>`) {
		t.Errorf("Translated unit missing:\n%s", rendered)
	}
	if !strings.Contains(rendered, "<p>World.</p>") {
		t.Errorf("Untouched unit changed:\n%s", rendered)
	}
}

func TestUnitsKeepsInlineMarkup(t *testing.T) {
	doc, err := ParseDocument(epubtest.Document(`<p>Read <em>this</em> now.</p>`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	units := doc.Units([]string{"p"})
	if len(units) != 1 {
		t.Fatalf("Expected 1 unit, got %d", len(units))
	}
	if got := units[0].InnerHTML(); got != "Read <em>this</em> now." {
		t.Fatalf("InnerHTML = %q", got)
	}
}

func TestUnitsWithEmptyTagList(t *testing.T) {
	doc, err := ParseDocument(epubtest.Document(`<p>x</p>`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if units := doc.Units(nil); len(units) != 0 {
		t.Fatalf("Expected no units, got %d", len(units))
	}
}

func TestRenderKeepsUntouchedMarkupVerbatim(t *testing.T) {
	body := `<p><a id="p1"/>First.</p><div class="c"><span>caf&eacute;&#160;x</span></div><p>Second.</p>`
	source := epubtest.Document(body)
	doc, err := ParseDocument(source)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}

	units := doc.Units([]string{"p", "div", "span"})
	var inner []string
	for _, u := range units {
		inner = append(inner, u.InnerHTML())
	}
	expectedUnits := []string{`<a id="p1"/>First.`, "caf&eacute;&#160;x", "Second."}
	if !reflect.DeepEqual(inner, expectedUnits) {
		t.Fatalf("Units = %q, expected %q", inner, expectedUnits)
	}

	units[0].SetInnerHTML("Erste.")
	rendered, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	expected := strings.Replace(source, `<p><a id="p1"/>First.</p>`, `<p>Erste.</p>`, 1)
	if rendered != expected {
		t.Fatalf("Render changed untouched markup:\n got: %s\nwant: %s", rendered, expected)
	}
}

func TestRenderWithoutEditsIsIdentity(t *testing.T) {
	source := `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>T</title></head>
<body><p>A &amp; B<br/>C</p><hr/><p class='q'>D</p></body></html>`
	doc, err := ParseDocument(source)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if n := len(doc.Units(DefaultTags)); n != 2 {
		t.Fatalf("Expected 2 units, got %d", n)
	}
	rendered, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if rendered != source {
		t.Fatalf("Render without edits changed the document:\n%s", rendered)
	}
}

func TestSetInnerHTMLBalancesFragment(t *testing.T) {
	doc, err := ParseDocument(epubtest.Document(`<p>One.</p><p>Two.</p>`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	units := doc.Units([]string{"p"})
	units[0].SetInnerHTML(`<a id="n"/>Bir <em>iki`)

	if got := units[0].InnerHTML(); got != `<a id="n"></a>Bir <em>iki</em>` {
		t.Fatalf("InnerHTML = %q", got)
	}
	rendered, err := doc.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(rendered, `<p><a id="n"></a>Bir <em>iki</em></p><p>Two.</p>`) {
		t.Errorf("Edited unit leaked into its neighbour:\n%s", rendered)
	}
}

func TestUnitsContainerSelection(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "Container with its own prose is one unit",
			body:     `<div>Loose narrative sentence in a div. <p>Inner paragraph.</p> Trailing prose.</div>`,
			expected: []string{"Loose narrative sentence in a div. <p>Inner paragraph.</p> Trailing prose."},
		},
		{
			name:     "Wrapper without prose yields its children",
			body:     `<div class="chapter"><p>A.</p>  <p>B.</p></div>`,
			expected: []string{"A.", "B."},
		},
		{
			name:     "Text inside a non-listed element counts for the container",
			body:     `<blockquote><span>Said she.</span><p>Quote.</p></blockquote>`,
			expected: []string{"<span>Said she.</span><p>Quote.</p>"},
		},
		{
			name:     "Nested wrappers",
			body:     `<div><div><h2>Title</h2><ul><li>One</li><li>Two</li></ul></div></div>`,
			expected: []string{"Title", "One", "Two"},
		},
		{
			name:     "Script text is not prose",
			body:     `<div><script>var x = 1;</script><p>Body.</p></div>`,
			expected: []string{"Body."},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseDocument(epubtest.Document(tc.body))
			if err != nil {
				t.Fatalf("ParseDocument failed: %v", err)
			}
			var got []string
			for _, u := range doc.Units(DefaultTags) {
				got = append(got, u.InnerHTML())
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Units = %q, expected %q", got, tc.expected)
			}
		})
	}
}
