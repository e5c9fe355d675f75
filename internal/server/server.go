package server

import (
	"context"
	"os"
	"sync"
	"time"

	"epub-translator/internal/config"
	"epub-translator/internal/epub"
	"epub-translator/internal/pipeline"
	"epub-translator/internal/session"
	"epub-translator/internal/translation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Gate        pipeline.Gate
	Resolver    pipeline.StrategyResolver
	Checkpoints session.CheckpointStore
	History     session.HistoryStore
}

// Server is the HTTP front end of the translator.
type Server struct {
	config      *config.Config
	logger      *logrus.Logger
	scanner     *epub.Scanner
	resolver    pipeline.StrategyResolver
	checkpoints session.CheckpointStore
	history     session.HistoryStore
	controller  *pipeline.Controller
	router      *gin.Engine
	wsHub       *Hub

	mu     sync.Mutex
	books  map[string]*book
	cancel context.CancelFunc
	active string
}

// book is an uploaded EPUB kept on disk under the temp directory.
type book struct {
	ID         string
	Filename   string
	Path       string
	Metadata   epub.BookMetadata
	Stats      epub.BookStats
	Strategy   *translation.Strategy
	OutputPath string
}

// New wires the server. Extra options are passed to the pipeline controller.
func New(cfg *config.Config, deps Deps, logger *logrus.Logger, opts ...pipeline.Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	for _, dir := range []string{cfg.App.TempDir, cfg.App.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Errorf("Failed to create %s: %v", dir, err)
		}
	}

	wsHub := NewHub(logger)
	go wsHub.Run()

	controllerOpts := []pipeline.Option{
		pipeline.WithEmitter(wsHub),
		pipeline.WithQuotaWait(int(cfg.Translation.QuotaWait.Duration/time.Second), time.Second),
		pipeline.WithPacing(cfg.Translation.PacingFloor.Duration),
	}

	s := &Server{
		config:      cfg,
		logger:      logger,
		scanner:     epub.NewScanner(logger),
		resolver:    deps.Resolver,
		checkpoints: deps.Checkpoints,
		history:     deps.History,
		controller: pipeline.New(deps.Gate, deps.Resolver, deps.Checkpoints, deps.History, logger,
			append(controllerOpts, opts...)...),
		wsHub: wsHub,
		books: make(map[string]*book),
	}

	s.setupRoutes()
	return s
}

// Handler returns the router for an http.Server.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Stop cancels a running translation. The checkpoint stays on disk.
func (s *Server) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Server) setupRoutes() {
	s.router = gin.New()

	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(gin.Recovery())

	api := s.router.Group("/api")
	api.POST("/books", s.handleUpload)
	api.GET("/books/:id", s.handleGetBook)
	api.DELETE("/books/:id", s.handleDeleteBook)
	api.POST("/books/:id/analyze", s.handleAnalyze)
	api.POST("/books/:id/translate", s.handleTranslate)
	api.GET("/books/:id/download", s.handleDownload)
	api.POST("/stop", s.handleStop)
	api.GET("/status", s.handleStatus)
	api.GET("/resume", s.handleGetResume)
	api.DELETE("/resume", s.handleDiscardResume)
	api.GET("/history", s.handleListHistory)
	api.DELETE("/history", s.handleClearHistory)
	api.GET("/outputs", s.handleListOutputs)

	s.router.GET("/ws", s.HandleWebSocket)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "websocket_clients": s.wsHub.GetClientCount()})
	})
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		s.logger.WithFields(logrus.Fields{
			"status":     param.StatusCode,
			"method":     param.Method,
			"path":       param.Path,
			"ip":         param.ClientIP,
			"user_agent": param.Request.UserAgent(),
			"latency":    param.Latency,
		}).Debug("HTTP Request")
		return ""
	})
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
