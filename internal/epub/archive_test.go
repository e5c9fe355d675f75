package epub

import (
	"archive/zip"
	"bytes"
	"testing"

	"epub-translator/internal/epub/epubtest"
)

func TestSerializeWritesMimetypeFirst(t *testing.T) {
	a := openBook(t, epubtest.Book{
		Chapters: []epubtest.Chapter{{Href: "a.xhtml", Body: "<p>x</p>"}},
	})
	a.WriteText("OEBPS/extra.css", "p { margin: 0 }")

	data, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to reopen archive: %v", err)
	}
	if len(reader.File) == 0 {
		t.Fatal("Archive is empty")
	}

	first := reader.File[0]
	if first.Name != "mimetype" {
		t.Fatalf("First entry = %s, expected mimetype", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype should be stored uncompressed, method = %d", first.Method)
	}

	var names []string
	for _, f := range reader.File[1:] {
		if f.Name == "mimetype" {
			t.Fatal("mimetype written twice")
		}
		names = append(names, f.Name)
	}
	last := names[len(names)-1]
	if last != "OEBPS/extra.css" {
		t.Errorf("New entries should be appended, last = %s", last)
	}
}

func TestWriteTextRoundTrip(t *testing.T) {
	a := openBook(t, epubtest.Book{
		Chapters: []epubtest.Chapter{{Href: "a.xhtml", Body: "<p>x</p>"}},
	})
	a.WriteText("OEBPS/a.xhtml", "replaced")

	data, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	reopened, err := Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	text, ok := reopened.ReadText("OEBPS/a.xhtml")
	if !ok || text != "replaced" {
		t.Fatalf("ReadText = %q, %v", text, ok)
	}
	if !reopened.Has("META-INF/container.xml") {
		t.Error("Untouched entries should survive serialization")
	}
	if _, ok := reopened.ReadText("missing.xhtml"); ok {
		t.Error("ReadText should report missing entries")
	}
}

func TestOpenRejectsNonZip(t *testing.T) {
	if _, err := Open([]byte("not a zip")); err == nil {
		t.Fatal("Expected error for non-zip input")
	}
}
