package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"epub-translator/internal/config"
	"epub-translator/internal/epub"
	"epub-translator/internal/epub/epubtest"
	"epub-translator/internal/pipeline"
	"epub-translator/internal/session"
	"epub-translator/internal/translation"
	"epub-translator/internal/translation/translationtest"

	"github.com/sirupsen/logrus"
)

type testServer struct {
	*Server
	analyzer    *translationtest.Analyzer
	checkpoints *session.MemoryCheckpointStore
	history     *session.MemoryHistoryStore
}

func newTestServer(t *testing.T, tr translation.Translator) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.New()
	cfg.App.TempDir = t.TempDir()
	cfg.App.OutputDir = t.TempDir()
	cfg.Translation.SourceLanguage = "English"
	cfg.Translation.TargetLanguage = "German"

	ts := &testServer{
		analyzer:    &translationtest.Analyzer{JSON: translationtest.StrategyJSON},
		checkpoints: session.NewMemoryCheckpointStore(),
		history:     session.NewMemoryHistoryStore(),
	}
	ts.Server = New(cfg, Deps{
		Gate:        translation.NewGate(tr, translation.NewMemoryCache(), nil, nil, logger),
		Resolver:    translation.NewResolver(ts.analyzer, nil, logger),
		Checkpoints: ts.checkpoints,
		History:     ts.history,
	}, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(t *testing.T, filename string, data []byte) uploadResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("epub", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	rec := ts.do(t, http.MethodPost, "/api/books", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

var sampleBook = epubtest.Book{
	Title:   "Sample",
	Creator: "Someone",
	Chapters: []epubtest.Chapter{
		{Href: "ch1.xhtml", Body: "<p>It was a dark night. The wind howled.</p><p>Nobody slept.</p>"},
	},
}

func TestUploadTranslateDownload(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())
	uploaded := ts.upload(t, "My Book.epub", epubtest.MustBuild(sampleBook))

	if uploaded.Metadata.Title != "Sample" || uploaded.Stats.TotalUnits != 2 || uploaded.Stats.TotalSentences != 3 {
		t.Fatalf("Unexpected upload response: %+v", uploaded)
	}
	if uploaded.ResumeAvailable {
		t.Error("Resume reported for a fresh store")
	}

	rec := ts.do(t, http.MethodPost, "/api/books/"+uploaded.ID+"/translate", strings.NewReader(`{}`), "application/json")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Translate returned %d: %s", rec.Code, rec.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	var snap pipeline.Snapshot
	for {
		rec := ts.do(t, http.MethodGet, "/api/status", nil, "")
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		ready := ts.do(t, http.MethodGet, "/api/books/"+uploaded.ID+"/download", nil, "")
		if snap.Status == pipeline.StatusCompleted && ready.Code == http.StatusOK {
			archive, err := epub.Open(ready.Body.Bytes())
			if err != nil {
				t.Fatalf("Download is not an EPUB: %v", err)
			}
			text, _ := archive.ReadText("OEBPS/ch1.xhtml")
			if !strings.Contains(text, "TR: NOBODY SLEPT.") {
				t.Errorf("Downloaded book not translated:\n%s", text)
			}
			if got := ready.Header().Get("Content-Disposition"); !strings.Contains(got, "My_Book_German.epub") {
				t.Errorf("Content-Disposition = %q", got)
			}
			break
		}
		if snap.Status == pipeline.StatusError {
			t.Fatalf("Run failed: %s", snap.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("Run did not complete, last status %s", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	items, _ := ts.history.List()
	if len(items) != 1 || items[0].Filename != "My Book.epub" {
		t.Errorf("Unexpected history: %+v", items)
	}

	rec = ts.do(t, http.MethodGet, "/api/outputs", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "My_Book_German.epub") {
		t.Errorf("Outputs = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAnalyzeCredentialFailureReturns401(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())
	ts.analyzer.Err = translation.ErrCredentialRequired
	uploaded := ts.upload(t, "book.epub", epubtest.MustBuild(sampleBook))

	rec := ts.do(t, http.MethodPost, "/api/books/"+uploaded.ID+"/analyze", strings.NewReader(`{"feedback": "more formal"}`), "application/json")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Analyze returned %d, expected 401", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Title != TitleCredentialsRequired || resp.Message == "" {
		t.Errorf("Unexpected error body: %+v", resp)
	}
}

func TestAnalyzeStoresStrategy(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())
	uploaded := ts.upload(t, "book.epub", epubtest.MustBuild(sampleBook))

	rec := ts.do(t, http.MethodPost, "/api/books/"+uploaded.ID+"/analyze", strings.NewReader(`{"feedback": "keep it formal"}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("Analyze returned %d: %s", rec.Code, rec.Body.String())
	}
	var strategy translation.Strategy
	if err := json.Unmarshal(rec.Body.Bytes(), &strategy); err != nil {
		t.Fatal(err)
	}
	if strategy.GenreEN != "Mystery" {
		t.Errorf("Strategy = %+v", strategy)
	}

	prompts := ts.analyzer.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "keep it formal") {
		t.Errorf("Feedback not forwarded: %q", prompts)
	}

	rec = ts.do(t, http.MethodGet, "/api/books/"+uploaded.ID, nil, "")
	if !strings.Contains(rec.Body.String(), `"genre_en":"Mystery"`) {
		t.Errorf("Strategy not stored on the book: %s", rec.Body.String())
	}
}

func TestUploadReportsMatchingCheckpoint(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())
	if err := ts.checkpoints.Save(&session.Checkpoint{
		Filename:        "book.epub",
		TranslatedNodes: map[string][]string{"OEBPS/ch1.xhtml": {"Karanlık bir geceydi."}},
	}); err != nil {
		t.Fatal(err)
	}

	if got := ts.upload(t, "book.epub", epubtest.MustBuild(sampleBook)); !got.ResumeAvailable || got.Resume == nil {
		t.Errorf("Checkpoint for the same file not reported: %+v", got)
	}
	if got := ts.upload(t, "other.epub", epubtest.MustBuild(sampleBook)); got.ResumeAvailable {
		t.Error("Checkpoint reported for a different file")
	}

	rec := ts.do(t, http.MethodGet, "/api/resume", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"units":1`) {
		t.Errorf("GET /api/resume = %d %s", rec.Code, rec.Body.String())
	}
	if rec := ts.do(t, http.MethodDelete, "/api/resume", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("DELETE /api/resume = %d", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/resume", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/resume after discard = %d", rec.Code)
	}
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())

	tests := []struct {
		name   string
		method string
		path   string
		status int
		title  string
	}{
		{"Unknown book", http.MethodPost, "/api/books/missing/translate", http.StatusNotFound, TitleNotFound},
		{"Download unknown book", http.MethodGet, "/api/books/missing/download", http.StatusNotFound, TitleNotFound},
		{"Stop without run", http.MethodPost, "/api/stop", http.StatusConflict, TitleNotReady},
		{"Upload without file", http.MethodPost, "/api/books", http.StatusBadRequest, TitleBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, nil, "")
			if rec.Code != tt.status {
				t.Fatalf("Status = %d, expected %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec); got.Title != tt.title {
				t.Errorf("Title = %q, expected %q", got.Title, tt.title)
			}
		})
	}
}

func TestUploadRejectsInvalidArchive(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("epub", "broken.epub")
	_, _ = part.Write([]byte("not a zip"))
	_ = mw.Close()

	rec := ts.do(t, http.MethodPost, "/api/books", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, expected 400", rec.Code)
	}
}

func TestStatusIdleAndHistoryEmpty(t *testing.T) {
	ts := newTestServer(t, translationtest.Upper())

	rec := ts.do(t, http.MethodGet, "/api/status", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"idle"`) {
		t.Errorf("Status = %d %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(t, http.MethodGet, "/api/history", nil, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("History = %d %s", rec.Code, rec.Body.String())
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		filename, lang, want string
	}{
		{"My Book.epub", "Turkish", "My_Book_Turkish.epub"},
		{"çüş.epub", "tr", "translated_book_tr.epub"},
		{"a.b.EPUB", "German", "ab_German.epub"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.filename, tt.lang); got != tt.want {
			t.Errorf("OutputName(%q, %q) = %q, expected %q", tt.filename, tt.lang, got, tt.want)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:         "512 B",
		2048:        "2.0 KB",
		5 * 1 << 20: "5.0 MB",
	}
	for in, want := range tests {
		if got := formatFileSize(in); got != want {
			t.Errorf("formatFileSize(%d) = %q, expected %q", in, got, want)
		}
	}
}

// awaitDownload polls until the book's translation can be downloaded.
func (ts *testServer) awaitDownload(t *testing.T, id string) *httptest.ResponseRecorder {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var snap pipeline.Snapshot
		if err := json.Unmarshal(ts.do(t, http.MethodGet, "/api/status", nil, "").Body.Bytes(), &snap); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if snap.Status == pipeline.StatusError {
			t.Fatalf("Run failed: %s", snap.Error)
		}
		if snap.Status == pipeline.StatusCompleted {
			if ready := ts.do(t, http.MethodGet, "/api/books/"+id+"/download", nil, ""); ready.Code == http.StatusOK {
				return ready
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("Run did not complete, last status %s", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTranslateResumeKeepsCheckpointStrategyAndSettings(t *testing.T) {
	rec := translationtest.NewRecorder(translationtest.Upper())
	ts := newTestServer(t, rec)

	const done = "Karanlık bir geceydi. Rüzgar uludu."
	if err := ts.checkpoints.Save(&session.Checkpoint{
		Filename:        "book.epub",
		NodeIndex:       1,
		TranslatedNodes: map[string][]string{"OEBPS/ch1.xhtml": {done}},
		Settings:        translation.Settings{SourceLanguage: "English", TargetLanguage: "Turkish", Temperature: 0.3},
		Strategy:        &translation.Strategy{GenreEN: "Checkpoint Genre", CreativityLevel: 0.4},
	}); err != nil {
		t.Fatal(err)
	}
	uploaded := ts.upload(t, "book.epub", epubtest.MustBuild(sampleBook))

	body := `{"resume": true,
		"settings": {"source_language": "English", "target_language": "French"},
		"strategy": {"genre_en": "Request Genre", "detected_creativity_level": 0.9}}`
	if got := ts.do(t, http.MethodPost, "/api/books/"+uploaded.ID+"/translate", strings.NewReader(body), "application/json"); got.Code != http.StatusAccepted {
		t.Fatalf("Translate returned %d: %s", got.Code, got.Body.String())
	}
	ready := ts.awaitDownload(t, uploaded.ID)

	reqs := rec.Requests()
	if len(reqs) != 1 || reqs[0].Text != "Nobody slept." {
		t.Fatalf("Expected only the unfinished unit to be translated, got %+v", reqs)
	}
	if !strings.Contains(reqs[0].SystemInstruction, "Checkpoint Genre") || strings.Contains(reqs[0].SystemInstruction, "Request Genre") {
		t.Errorf("Resumed unit used the wrong strategy:\n%s", reqs[0].SystemInstruction)
	}
	if math.Abs(float64(reqs[0].Temperature)-0.4) > 1e-6 {
		t.Errorf("Temperature = %v, expected the checkpoint creativity 0.4", reqs[0].Temperature)
	}

	archive, err := epub.Open(ready.Body.Bytes())
	if err != nil {
		t.Fatalf("Download is not an EPUB: %v", err)
	}
	text, _ := archive.ReadText("OEBPS/ch1.xhtml")
	if !strings.Contains(text, "<p>"+done+"</p><p>TR: NOBODY SLEPT.</p>") {
		t.Errorf("Resumed book is wrong:\n%s", text)
	}
	if got := ready.Header().Get("Content-Disposition"); !strings.Contains(got, "book_Turkish.epub") {
		t.Errorf("Output should be named for the checkpoint language, got %q", got)
	}
}
