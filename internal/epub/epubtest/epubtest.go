// Package epubtest builds small in-memory EPUB books for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// Chapter is one spine document. Body is placed verbatim inside <body>.
type Chapter struct {
	Href string
	Body string
}

// Book describes the archive to build.
type Book struct {
	Title       string
	Creator     string
	Description string
	Chapters    []Chapter
	// MissingHrefs are listed in the manifest and spine but not written to the archive.
	MissingHrefs []string
	// OmitContainer leaves META-INF/container.xml out.
	OmitContainer bool
}

type file struct {
	name    string
	content string
}

// Build returns the zipped book. The package document lives under OEBPS/.
func Build(b Book) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []file{{"mimetype", "application/epub+zip"}}
	if !b.OmitContainer {
		files = append(files, file{"META-INF/container.xml", containerXML})
	}
	files = append(files, file{"OEBPS/content.opf", packageXML(b)})
	for _, ch := range b.Chapters {
		files = append(files, file{"OEBPS/" + ch.Href, Document(ch.Body)})
	}

	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustBuild is Build for tests that cannot proceed without a book.
func MustBuild(b Book) []byte {
	data, err := Build(b)
	if err != nil {
		panic(err)
	}
	return data
}

// Document wraps body content in an XHTML document.
func Document(body string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>t</title><link rel="stylesheet" href="style.css"/></head>
<body>` + body + `</body>
</html>`
}

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func packageXML(b Book) string {
	var manifest, spine strings.Builder
	hrefs := make([]string, 0, len(b.Chapters)+len(b.MissingHrefs))
	for _, ch := range b.Chapters {
		hrefs = append(hrefs, ch.Href)
	}
	hrefs = append(hrefs, b.MissingHrefs...)

	for i, href := range hrefs {
		id := fmt.Sprintf("ch%d", i)
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=\"application/xhtml+xml\"/>\n", id, href)
		fmt.Fprintf(&spine, "    <itemref idref=%q/>\n", id)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package version="3.0" unique-identifier="uid" xmlns="http://www.idpf.org/2007/opf">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
    <dc:description>%s</dc:description>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, b.Title, b.Creator, b.Description, manifest.String(), spine.String())
}
