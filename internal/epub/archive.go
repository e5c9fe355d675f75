package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

const mimetypeName = "mimetype"

// Archive is an EPUB held in memory. Entries keep their original order so a
// serialized archive differs from the input only in the documents written back.
type Archive struct {
	names   []string
	entries map[string][]byte
}

// Open reads every entry of a zip archive into memory.
func Open(data []byte) (*Archive, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	a := &Archive{entries: make(map[string][]byte, len(reader.File))}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if _, seen := a.entries[file.Name]; !seen {
			a.names = append(a.names, file.Name)
		}
		a.entries[file.Name] = content
	}

	return a, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Has reports whether the archive contains an entry at path.
func (a *Archive) Has(path string) bool {
	_, ok := a.entries[path]
	return ok
}

// ReadText returns the entry at path as a string.
func (a *Archive) ReadText(path string) (string, bool) {
	content, ok := a.entries[path]
	if !ok {
		return "", false
	}
	return string(content), true
}

// WriteText replaces (or adds) the entry at path.
func (a *Archive) WriteText(path, text string) {
	if _, ok := a.entries[path]; !ok {
		a.names = append(a.names, path)
	}
	a.entries[path] = []byte(text)
}

// Serialize writes the archive as an EPUB container: the mimetype entry first
// and stored, everything else deflated in original order.
func (a *Archive) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	if err := writeMimetypeFile(zipWriter); err != nil {
		return nil, fmt.Errorf("failed to write mimetype: %w", err)
	}

	for _, name := range a.names {
		if name == mimetypeName {
			continue
		}
		writer, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := writer.Write(a.entries[name]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

func writeMimetypeFile(zipWriter *zip.Writer) error {
	writer, err := zipWriter.CreateHeader(&zip.FileHeader{
		Name:   mimetypeName,
		Method: zip.Store,
	})
	if err != nil {
		return err
	}

	_, err = writer.Write([]byte("application/epub+zip"))
	return err
}
