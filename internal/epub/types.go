package epub

import (
	"encoding/xml"
)

type Container struct {
	XMLName   xml.Name `xml:"container"`
	Version   string   `xml:"version,attr"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type Package struct {
	XMLName  xml.Name `xml:"package"`
	Version  string   `xml:"version,attr"`
	UniqueID string   `xml:"unique-identifier,attr"`
	Metadata Metadata `xml:"metadata"`
	Manifest Manifest `xml:"manifest"`
	Spine    Spine    `xml:"spine"`
}

type Metadata struct {
	Title       string `xml:"title"`
	Language    string `xml:"language"`
	Identifier  string `xml:"identifier"`
	Creator     string `xml:"creator"`
	Publisher   string `xml:"publisher"`
	Description string `xml:"description"`
	Subject     string `xml:"subject"`
}

type Manifest struct {
	Items []Item `xml:"item"`
}

type Item struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type Spine struct {
	TOC      string    `xml:"toc,attr"`
	ItemRefs []ItemRef `xml:"itemref"`
}

type ItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// BookMetadata is the subset of the package metadata handed to the book analyzer.
type BookMetadata struct {
	Title       string `json:"title"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// BookStats is the result of a dry pass over the book. Nothing in it requires a
// network call.
type BookStats struct {
	TotalChars           int   `json:"total_chars"`
	TotalWords           int   `json:"total_words"`
	TotalSentences       int   `json:"total_sentences"`
	TotalUnits           int   `json:"total_units"`
	EstimatedTokens      int   `json:"estimated_tokens"`
	EstimatedChunks      int   `json:"estimated_chunks"`
	EstimatedMinutesFree int   `json:"estimated_minutes_free"`
	EstimatedMinutesPro  int   `json:"estimated_minutes_pro"`
	DocumentSentences    []int `json:"document_sentences"`
}

// DefaultTags is the tag allow-list used when the settings do not name one.
var DefaultTags = []string{"p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "div"}
