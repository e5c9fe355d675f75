package epub

import (
	"encoding/xml"
	"math"
	"net/url"
	"path"
	"strings"

	"epub-translator/internal/textstat"

	"github.com/sirupsen/logrus"
)

const (
	charsPerChunk  = 500
	charsPerToken  = 3.5
	freeRatePerMin = 10
	proRatePerMin  = 35
	containerPath  = "META-INF/container.xml"
	defaultTitle   = "Untitled"
	defaultCreator = "Unknown"
)

// Scanner resolves the reading order of a book and enumerates its units.
type Scanner struct {
	logger *logrus.Logger
}

// NewScanner creates a Scanner.
func NewScanner(logger *logrus.Logger) *Scanner {
	return &Scanner{logger: logger}
}

// Scan returns the spine documents in reading order. Items referenced by the
// spine but absent from the archive are dropped. A missing or malformed
// container or package document yields an empty list.
func (s *Scanner) Scan(a *Archive) []string {
	pkg, opfPath, ok := s.readPackage(a)
	if !ok {
		return nil
	}

	opfFolder := path.Dir(opfPath)
	if opfFolder == "." {
		opfFolder = ""
	}

	itemMap := make(map[string]Item, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		itemMap[item.ID] = item
	}

	var paths []string
	for _, itemRef := range pkg.Spine.ItemRefs {
		item, exists := itemMap[itemRef.IDRef]
		if !exists {
			s.logger.Debugf("Spine item not found in manifest: %s", itemRef.IDRef)
			continue
		}

		href := item.Href
		if decoded, err := url.PathUnescape(href); err == nil {
			href = decoded
		}
		docPath := href
		if opfFolder != "" {
			docPath = path.Join(opfFolder, href)
		}

		if !a.Has(docPath) {
			s.logger.Debugf("Spine document missing from archive: %s", docPath)
			continue
		}
		paths = append(paths, docPath)
	}

	return paths
}

// ListUnits returns the inner HTML of every unit of the document at docPath.
func (s *Scanner) ListUnits(a *Archive, docPath string, tags []string) []string {
	text, ok := a.ReadText(docPath)
	if !ok {
		return nil
	}

	doc, err := ParseDocument(text)
	if err != nil {
		s.logger.Warnf("Failed to parse %s: %v", docPath, err)
		return nil
	}

	elements := doc.Units(tags)
	units := make([]string, 0, len(elements))
	for _, el := range elements {
		units = append(units, el.InnerHTML())
	}
	return units
}

// ComputeStats performs a dry pass over the book.
func (s *Scanner) ComputeStats(a *Archive, tags []string) BookStats {
	var stats BookStats

	for _, docPath := range s.Scan(a) {
		docSentences := 0
		for _, unit := range s.ListUnits(a, docPath, tags) {
			stats.TotalUnits++
			stats.TotalChars += textstat.CountChars(unit)
			stats.TotalWords += textstat.CountWords(unit)
			n := textstat.CountSentences(unit)
			docSentences += n
			stats.TotalSentences += n
		}
		stats.DocumentSentences = append(stats.DocumentSentences, docSentences)
	}

	stats.EstimatedTokens = int(math.Ceil(float64(stats.TotalChars) / charsPerToken))
	stats.EstimatedChunks = ceilDiv(stats.TotalChars, charsPerChunk)
	stats.EstimatedMinutesFree = max(1, ceilDiv(stats.EstimatedChunks, freeRatePerMin))
	stats.EstimatedMinutesPro = max(1, ceilDiv(stats.EstimatedChunks, proRatePerMin))

	return stats
}

// ReadMetadata returns the Dublin Core fields the analyzer needs.
func (s *Scanner) ReadMetadata(a *Archive) BookMetadata {
	meta := BookMetadata{Title: defaultTitle, Creator: defaultCreator}

	pkg, _, ok := s.readPackage(a)
	if !ok {
		return meta
	}

	if title := strings.TrimSpace(pkg.Metadata.Title); title != "" {
		meta.Title = title
	}
	if creator := strings.TrimSpace(pkg.Metadata.Creator); creator != "" {
		meta.Creator = creator
	}
	meta.Description = strings.TrimSpace(pkg.Metadata.Description)
	meta.Language = strings.TrimSpace(pkg.Metadata.Language)

	return meta
}

func (s *Scanner) readPackage(a *Archive) (*Package, string, bool) {
	data, ok := a.ReadText(containerPath)
	if !ok {
		s.logger.Warn("container.xml not found")
		return nil, "", false
	}

	var container Container
	if err := xml.Unmarshal([]byte(data), &container); err != nil {
		s.logger.Warnf("Failed to parse container.xml: %v", err)
		return nil, "", false
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		s.logger.Warn("No rootfiles found in container.xml")
		return nil, "", false
	}

	opfPath := container.Rootfiles[0].FullPath
	opf, ok := a.ReadText(opfPath)
	if !ok {
		s.logger.Warnf("Package document not found: %s", opfPath)
		return nil, "", false
	}

	var pkg Package
	if err := xml.Unmarshal([]byte(opf), &pkg); err != nil {
		s.logger.Warnf("Failed to parse package document: %v", err)
		return nil, "", false
	}

	return &pkg, opfPath, true
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
