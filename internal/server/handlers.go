package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"epub-translator/internal/epub"
	"epub-translator/internal/pipeline"
	"epub-translator/internal/session"
	"epub-translator/internal/translation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSize = 50 * 1024 * 1024

// Error titles the UI switches on.
const (
	TitleCredentialsRequired = "credentials_required"
	TitleBadRequest          = "bad_request"
	TitleNotFound            = "not_found"
	TitleBusy                = "busy"
	TitleNotReady            = "not_ready"
	TitleInternal            = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Title: title, Message: message})
}

// respondFailure maps an operation error to a status and title.
func (s *Server) respondFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, translation.ErrCredentialRequired):
		respondError(c, http.StatusUnauthorized, TitleCredentialsRequired, "An API key is required to contact the translation service")
	case errors.Is(err, translation.ErrQuotaExceeded):
		respondError(c, http.StatusTooManyRequests, "quota_exceeded", "The translation service quota is exhausted; try again shortly")
	default:
		s.logger.Errorf("Request failed: %v", err)
		respondError(c, http.StatusInternalServerError, TitleInternal, err.Error())
	}
}

type uploadResponse struct {
	ID              string              `json:"id"`
	Filename        string              `json:"filename"`
	Metadata        epub.BookMetadata   `json:"metadata"`
	Stats           epub.BookStats      `json:"stats"`
	ResumeAvailable bool                `json:"resume_available"`
	Resume          *session.Checkpoint `json:"resume,omitempty"`
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("epub")
	if err != nil {
		respondError(c, http.StatusBadRequest, TitleBadRequest, "No file uploaded")
		return
	}

	if strings.ToLower(filepath.Ext(file.Filename)) != ".epub" {
		respondError(c, http.StatusBadRequest, TitleBadRequest, "File must be an EPUB")
		return
	}

	if file.Size > maxUploadSize {
		respondError(c, http.StatusBadRequest, TitleBadRequest, "File too large (max 50MB)")
		return
	}

	id := uuid.New().String()
	tempPath := filepath.Join(s.config.App.TempDir, id+".epub")
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		s.logger.Errorf("Failed to save uploaded file: %v", err)
		respondError(c, http.StatusInternalServerError, TitleInternal, "Failed to save file")
		return
	}

	data, err := os.ReadFile(tempPath)
	if err != nil {
		s.respondFailure(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	archive, err := epub.Open(data)
	if err != nil {
		_ = os.Remove(tempPath)
		respondError(c, http.StatusBadRequest, TitleBadRequest, "Invalid EPUB file")
		return
	}

	b := &book{
		ID:       id,
		Filename: file.Filename,
		Path:     tempPath,
		Metadata: s.scanner.ReadMetadata(archive),
		Stats:    s.scanner.ComputeStats(archive, s.defaultTags()),
	}

	s.mu.Lock()
	s.books[id] = b
	s.mu.Unlock()

	// A new book clears the previous run's progress.
	s.controller.Reset()

	resp := uploadResponse{ID: id, Filename: b.Filename, Metadata: b.Metadata, Stats: b.Stats}
	if cp, err := s.checkpoints.Load(); err != nil {
		s.logger.Warnf("Failed to read checkpoint: %v", err)
	} else if cp != nil && cp.Filename == b.Filename {
		resp.ResumeAvailable = true
		resp.Resume = cp
	}

	s.logger.Infof("Uploaded %s (ID: %s, %d units)", file.Filename, id, b.Stats.TotalUnits)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetBook(c *gin.Context) {
	b, ok := s.lookup(c)
	if !ok {
		return
	}
	s.mu.Lock()
	resp := gin.H{
		"id":       b.ID,
		"filename": b.Filename,
		"metadata": b.Metadata,
		"stats":    b.Stats,
		"strategy": b.Strategy,
		"ready":    b.OutputPath != "",
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteBook(c *gin.Context) {
	b, ok := s.lookup(c)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.active == b.ID {
		s.mu.Unlock()
		respondError(c, http.StatusConflict, TitleBusy, "The book is being translated")
		return
	}
	delete(s.books, b.ID)
	s.mu.Unlock()

	if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warnf("Failed to remove %s: %v", b.Path, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	b, ok := s.lookup(c)
	if !ok {
		return
	}

	var request struct {
		Feedback string                `json:"feedback"`
		Settings *translation.Settings `json:"settings"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			respondError(c, http.StatusBadRequest, TitleBadRequest, err.Error())
			return
		}
	}

	settings := s.config.Settings()
	if request.Settings != nil {
		settings = *request.Settings
	}

	strategy, err := s.resolver.Analyze(c.Request.Context(), b.Metadata, settings, strings.TrimSpace(request.Feedback))
	if err != nil {
		s.respondFailure(c, err)
		return
	}

	s.mu.Lock()
	b.Strategy = &strategy
	s.mu.Unlock()

	c.JSON(http.StatusOK, strategy)
}

func (s *Server) handleTranslate(c *gin.Context) {
	b, ok := s.lookup(c)
	if !ok {
		return
	}

	var request struct {
		Settings *translation.Settings `json:"settings"`
		Strategy *translation.Strategy `json:"strategy"`
		Resume   bool                  `json:"resume"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&request); err != nil {
			respondError(c, http.StatusBadRequest, TitleBadRequest, err.Error())
			return
		}
	}

	settings := s.config.Settings()
	if request.Settings != nil {
		settings = *request.Settings
	}
	if settings.TargetLanguage == "" {
		respondError(c, http.StatusBadRequest, TitleBadRequest, "A target language is required")
		return
	}

	var resume *session.Checkpoint
	if request.Resume {
		cp, err := s.checkpoints.Load()
		if err != nil {
			s.respondFailure(c, fmt.Errorf("failed to load checkpoint: %w", err))
			return
		}
		if cp == nil || cp.Filename != b.Filename {
			respondError(c, http.StatusNotFound, TitleNotFound, "No checkpoint for this book")
			return
		}
		// The checkpoint's settings and strategy win so the result matches
		// an uninterrupted run.
		resume = cp
		settings = cp.Settings
	}

	data, err := os.ReadFile(b.Path)
	if err != nil {
		s.respondFailure(c, fmt.Errorf("failed to read book: %w", err))
		return
	}

	in := pipeline.Input{
		Filename: b.Filename,
		Book:     data,
		Settings: settings,
		Strategy: request.Strategy,
		Resume:   resume,
	}

	s.mu.Lock()
	if in.Strategy == nil && b.Strategy != nil {
		strategy := *b.Strategy
		in.Strategy = &strategy
	}
	if slices.Equal(settings.TargetTags, s.config.Translation.TargetTags) {
		stats := b.Stats
		in.Stats = &stats
	}
	s.mu.Unlock()

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		respondError(c, http.StatusConflict, TitleBusy, "A translation is already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.active = b.ID
	b.OutputPath = ""
	s.mu.Unlock()

	go s.runTranslation(ctx, b, in)

	c.JSON(http.StatusAccepted, gin.H{
		"message":         "Translation started",
		"status_url":      "/api/status",
		"download_url":    fmt.Sprintf("/api/books/%s/download", b.ID),
		"source_language": settings.SourceLanguage,
		"target_language": settings.TargetLanguage,
	})
}

func (s *Server) runTranslation(ctx context.Context, b *book, in pipeline.Input) {
	defer func() {
		s.mu.Lock()
		s.cancel()
		s.cancel = nil
		s.active = ""
		s.mu.Unlock()
	}()

	out, err := s.controller.Run(ctx, in)
	if err != nil {
		if !errors.Is(err, pipeline.ErrStopped) {
			s.logger.Errorf("Translation of %s failed: %v", b.Filename, err)
		}
		return
	}

	outputPath := filepath.Join(s.config.App.OutputDir, OutputName(b.Filename, out.Settings.TargetLanguage))
	if err := os.WriteFile(outputPath, out.Book, 0644); err != nil {
		s.logger.Errorf("Failed to write %s: %v", outputPath, err)
		return
	}

	s.mu.Lock()
	b.OutputPath = outputPath
	s.mu.Unlock()
	s.logger.Infof("Translated book written to %s", outputPath)
}

func (s *Server) handleStop(c *gin.Context) {
	if !s.Stop() {
		respondError(c, http.StatusConflict, TitleNotReady, "No translation is running")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stopping translation"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.controller.Status())
}

func (s *Server) handleDownload(c *gin.Context) {
	b, ok := s.lookup(c)
	if !ok {
		return
	}

	s.mu.Lock()
	outputPath := b.OutputPath
	s.mu.Unlock()

	if outputPath == "" {
		respondError(c, http.StatusNotFound, TitleNotReady, "Translation not completed yet")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(outputPath)))
	c.Header("Content-Type", "application/epub+zip")
	c.File(outputPath)
}

func (s *Server) handleGetResume(c *gin.Context) {
	cp, err := s.checkpoints.Load()
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if cp == nil {
		respondError(c, http.StatusNotFound, TitleNotFound, "No saved progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filename":       cp.Filename,
		"document_index": cp.DocumentIndex,
		"node_index":     cp.NodeIndex,
		"units":          cp.Units(),
		"settings":       cp.Settings,
		"strategy":       cp.Strategy,
		"updated_at":     cp.UpdatedAt,
	})
}

func (s *Server) handleDiscardResume(c *gin.Context) {
	if err := s.checkpoints.Clear(); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Saved progress discarded"})
}

func (s *Server) handleListHistory(c *gin.Context) {
	items, err := s.history.List()
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	if items == nil {
		items = []session.HistoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.history.Clear(); err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// OutputFile describes a translated book in the output directory.
type OutputFile struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted"`
	Modified      time.Time `json:"modified"`
}

func (s *Server) handleListOutputs(c *gin.Context) {
	files, err := s.listOutputs()
	if err != nil {
		s.respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) listOutputs() ([]OutputFile, error) {
	entries, err := os.ReadDir(s.config.App.OutputDir)
	if os.IsNotExist(err) {
		return []OutputFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	files := []OutputFile{}
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".epub" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warnf("Failed to get info for file %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, OutputFile{
			Name:          entry.Name(),
			Size:          info.Size(),
			SizeFormatted: formatFileSize(info.Size()),
			Modified:      info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}

func (s *Server) lookup(c *gin.Context) (*book, bool) {
	s.mu.Lock()
	b, ok := s.books[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		respondError(c, http.StatusNotFound, TitleNotFound, "Book not found")
	}
	return b, ok
}

func (s *Server) defaultTags() []string {
	if len(s.config.Translation.TargetTags) > 0 {
		return s.config.Translation.TargetTags
	}
	return epub.DefaultTags
}

// OutputName builds "<title>_<language>.epub" from the uploaded file name.
func OutputName(filename, targetLanguage string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return sanitizeFilename(base) + "_" + sanitizeFilename(targetLanguage) + ".epub"
}

func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "translated_book"
	}
	return b.String()
}

func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
