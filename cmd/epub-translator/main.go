package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"epub-translator/internal/config"
	"epub-translator/internal/epub"
	"epub-translator/internal/pipeline"
	"epub-translator/internal/server"
	"epub-translator/internal/session"
	"epub-translator/internal/translation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	logger  *logrus.Logger
)

func init() {
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Fatal(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "epub-translator",
	Short: "A literary EPUB translator backed by Gemini or OpenAI",
	Long: `EPUB Translator rewrites the text of an EPUB book in another language while keeping its
structure intact. It runs as a web server or as a one-shot command and can resume an
interrupted run from its last checkpoint.`,
	Run: runServer,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the web server",
	Run:   runServer,
}

var translateCmd = &cobra.Command{
	Use:   "translate <book.epub>",
	Short: "Translate a book from the command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranslate,
}

var statsCmd = &cobra.Command{
	Use:   "stats <book.epub>",
	Short: "Print unit, word and sentence counts for a book",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <book.epub>",
	Short: "Ask the model for a translation strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Inspect or discard the saved checkpoint",
}

var resumeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved checkpoint",
	RunE:  runResumeShow,
}

var resumeDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the saved checkpoint",
	RunE:  runResumeDiscard,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear finished translations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List finished translations",
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the history",
	RunE:  runHistoryClear,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached translation",
	RunE:  runCacheClear,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("EPUB Translator v%s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Manage application configuration including viewing current settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		showConfig(cmd)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		initConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().IntP("port", "p", 8080, "Port to run the web server on")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "API key for the selected provider")
	rootCmd.PersistentFlags().String("provider", "", "Model provider: gemini or openai")
	rootCmd.PersistentFlags().String("model", "", "Model name")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "output", "Output directory for translated EPUB files")
	rootCmd.PersistentFlags().StringP("temp-dir", "t", "tmp", "Temporary directory for processing files")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for the cache, checkpoint and history")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: config.json beside executable)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	translateCmd.Flags().String("source", "", "Source language (default from config)")
	translateCmd.Flags().String("target", "", "Target language (default from config)")
	translateCmd.Flags().StringSlice("tags", nil, "Element tags to translate")
	translateCmd.Flags().Bool("free-tier", false, "Pace requests for free-tier quotas")
	translateCmd.Flags().Bool("resume", false, "Continue from the saved checkpoint")
	translateCmd.Flags().String("feedback", "", "Reviewer guidance for the book analysis")
	translateCmd.Flags().String("out", "", "Output file (default: <output-dir>/<name>_<target>.epub)")

	statsCmd.Flags().StringSlice("tags", nil, "Element tags to count")
	statsCmd.Flags().Bool("json", false, "Print JSON")

	analyzeCmd.Flags().String("feedback", "", "Reviewer guidance for the analysis")
	analyzeCmd.Flags().String("target", "", "Target language (default from config)")

	rootCmd.AddCommand(serverCmd, translateCmd, statsCmd, analyzeCmd, resumeCmd, historyCmd, cacheCmd, versionCmd, configCmd)
	resumeCmd.AddCommand(resumeShowCmd, resumeDiscardCmd)
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)
}

// services bundles the collaborators built from configuration.
type services struct {
	provider    translation.Provider
	gate        *translation.Gate
	resolver    *translation.Resolver
	checkpoints *session.FileCheckpointStore
	history     *session.FileHistoryStore
}

func (s *services) Close() {
	if closer, ok := s.provider.(io.Closer); ok {
		_ = closer.Close()
	}
}

func buildServices(cmd *cobra.Command, cfg *config.Config) (*services, error) {
	flagKey, _ := cmd.Flags().GetString("api-key")

	provider, err := translation.NewProvider(cfg.ProviderOptions(), cfg.Credentials(flagKey), logger)
	if err != nil {
		return nil, err
	}

	cache, err := translation.NewFileCache(cfg.CacheDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	checkpoints, err := session.NewFileCheckpointStore(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	history, err := session.NewFileHistoryStore(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	usage := translation.NewUsageMeter()
	return &services{
		provider:    provider,
		gate:        translation.NewGate(provider, cache, nil, usage, logger),
		resolver:    translation.NewResolver(provider, usage, logger),
		checkpoints: checkpoints,
		history:     history,
	}, nil
}

func runServer(cmd *cobra.Command, _ []string) {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	svc, err := buildServices(cmd, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer svc.Close()

	srv := server.New(cfg, server.Deps{
		Gate:        svc.gate,
		Resolver:    svc.resolver,
		Checkpoints: svc.checkpoints,
		History:     svc.history,
	}, logger)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: max(cfg.Server.WriteTimeout.Duration, 2*time.Minute), // book downloads
	}

	go func() {
		logger.Infof("Starting EPUB Translator server on port %d", cfg.Server.Port)
		logger.Infof("Provider: %s (%s)", cfg.Provider.Name, cfg.Provider.Model)
		logger.Infof("Data directory: %s", cfg.App.DataDir)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited gracefully")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	settings := settingsFromFlags(cmd, cfg)

	bookPath := args[0]
	data, err := os.ReadFile(bookPath)
	if err != nil {
		return fmt.Errorf("failed to read book: %w", err)
	}

	svc, err := buildServices(cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := pipeline.Input{
		Filename: filepath.Base(bookPath),
		Book:     data,
		Settings: settings,
	}

	if resume, _ := cmd.Flags().GetBool("resume"); resume {
		cp, err := svc.checkpoints.Load()
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp == nil || cp.Filename != in.Filename {
			return fmt.Errorf("no checkpoint for %s", in.Filename)
		}
		logger.Infof("Resuming %s after %d units", cp.Filename, cp.Units())
		in.Resume = cp
	}

	if feedback, _ := cmd.Flags().GetString("feedback"); feedback != "" && in.Resume == nil {
		archive, err := epub.Open(data)
		if err != nil {
			return fmt.Errorf("failed to open book: %w", err)
		}
		meta := epub.NewScanner(logger).ReadMetadata(archive)
		strategy, err := svc.resolver.Analyze(ctx, meta, settings, feedback)
		if err != nil {
			return err
		}
		in.Strategy = &strategy
	}

	controller := pipeline.New(svc.gate, svc.resolver, svc.checkpoints, svc.history, logger,
		pipeline.WithEmitter(&progressPrinter{w: os.Stderr}),
		pipeline.WithQuotaWait(int(cfg.Translation.QuotaWait.Duration/time.Second), time.Second),
		pipeline.WithPacing(cfg.Translation.PacingFloor.Duration),
	)

	out, err := controller.Run(ctx, in)
	if err != nil {
		if errors.Is(err, pipeline.ErrStopped) {
			logger.Infof("Checkpoint kept in %s; rerun with --resume to continue", svc.checkpoints.Path())
		}
		if errors.Is(err, translation.ErrCredentialRequired) {
			return fmt.Errorf("%w: pass --api-key or set EPUB_TRANSLATOR_API_KEY", err)
		}
		return err
	}

	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		if err := os.MkdirAll(cfg.App.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outPath = filepath.Join(cfg.App.OutputDir, server.OutputName(in.Filename, out.Settings.TargetLanguage))
	}
	if err := os.WriteFile(outPath, out.Book, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	snap := out.Snapshot
	logger.Infof("Wrote %s (%d units, %d kept in the original, %d tokens)", outPath, snap.UnitsDone, snap.Fallbacks, snap.Usage.TotalTokens)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read book: %w", err)
	}
	archive, err := epub.Open(data)
	if err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}

	tags, _ := cmd.Flags().GetStringSlice("tags")
	if len(tags) == 0 {
		tags = epub.DefaultTags
	}
	scanner := epub.NewScanner(logger)
	meta := scanner.ReadMetadata(archive)
	stats := scanner.ComputeStats(archive, tags)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd.OutOrStdout(), struct {
			Metadata epub.BookMetadata `json:"metadata"`
			Stats    epub.BookStats    `json:"stats"`
		}{meta, stats})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s by %s\n", meta.Title, meta.Creator)
	fmt.Fprintf(w, "  Documents:  %d\n", len(stats.DocumentSentences))
	fmt.Fprintf(w, "  Units:      %d\n", stats.TotalUnits)
	fmt.Fprintf(w, "  Words:      %d\n", stats.TotalWords)
	fmt.Fprintf(w, "  Sentences:  %d\n", stats.TotalSentences)
	fmt.Fprintf(w, "  Characters: %d\n", stats.TotalChars)
	fmt.Fprintf(w, "  Tokens:     ~%d\n", stats.EstimatedTokens)
	fmt.Fprintf(w, "  Estimate:   %d min (free tier), %d min (paid)\n", stats.EstimatedMinutesFree, stats.EstimatedMinutesPro)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	settings := settingsFromFlags(cmd, cfg)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read book: %w", err)
	}
	archive, err := epub.Open(data)
	if err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}

	svc, err := buildServices(cmd, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	feedback, _ := cmd.Flags().GetString("feedback")
	strategy, err := svc.resolver.Analyze(cmd.Context(), epub.NewScanner(logger).ReadMetadata(archive), settings, feedback)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), strategy)
}

func runResumeShow(cmd *cobra.Command, _ []string) error {
	checkpoints, err := checkpointStore(cmd)
	if err != nil {
		return err
	}
	cp, err := checkpoints.Load()
	if err != nil {
		return err
	}
	if cp == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved progress")
		return nil
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Book:      %s\n", cp.Filename)
	fmt.Fprintf(w, "Position:  document %d, unit %d\n", cp.DocumentIndex+1, cp.NodeIndex)
	fmt.Fprintf(w, "Units:     %d translated\n", cp.Units())
	fmt.Fprintf(w, "Languages: %s -> %s\n", cp.Settings.SourceLanguage, cp.Settings.TargetLanguage)
	fmt.Fprintf(w, "Saved:     %s\n", cp.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runResumeDiscard(cmd *cobra.Command, _ []string) error {
	checkpoints, err := checkpointStore(cmd)
	if err != nil {
		return err
	}
	if err := checkpoints.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved progress discarded")
	return nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	history, err := historyStore(cmd)
	if err != nil {
		return err
	}
	items, err := history.List()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No finished translations")
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  %s (%s -> %s, %d words)\n",
			item.Timestamp.Format("2006-01-02 15:04"), item.Status, item.Filename,
			item.SourceLanguage, item.TargetLanguage, item.WordCount)
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	history, err := historyStore(cmd)
	if err != nil {
		return err
	}
	if err := history.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cache, err := translation.NewFileCache(cfg.CacheDir())
	if err != nil {
		return err
	}
	if err := cache.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
	return nil
}

func checkpointStore(cmd *cobra.Command) (*session.FileCheckpointStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return session.NewFileCheckpointStore(cfg.App.DataDir)
}

func historyStore(cmd *cobra.Command) (*session.FileHistoryStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return session.NewFileHistoryStore(cfg.App.DataDir)
}

// progressPrinter writes a line whenever the percentage or status changes.
type progressPrinter struct {
	w       io.Writer
	percent int
	status  pipeline.Status
}

func (p *progressPrinter) Emit(s pipeline.Snapshot) {
	if s.Status == pipeline.StatusWaiting {
		if s.WaitCountdown > 0 && s.WaitCountdown%10 == 0 {
			fmt.Fprintf(p.w, "waiting for quota: %ds\n", s.WaitCountdown)
		}
		p.status = s.Status
		return
	}
	if s.Percent == p.percent && s.Status == p.status {
		return
	}
	p.percent, p.status = s.Percent, s.Status
	fmt.Fprintf(p.w, "[%3d%%] %-10s document %d/%d  %.1f words/s  eta %s\n",
		s.Percent, s.Status, min(s.CurrentDocument+1, max(s.TotalDocuments, 1)), s.TotalDocuments,
		s.WordsPerSecond, time.Duration(s.ETASeconds)*time.Second)
}

func settingsFromFlags(cmd *cobra.Command, cfg *config.Config) translation.Settings {
	settings := cfg.Settings()
	if source, _ := cmd.Flags().GetString("source"); source != "" {
		settings.SourceLanguage = source
	}
	if target, _ := cmd.Flags().GetString("target"); target != "" {
		settings.TargetLanguage = target
	}
	if cmd.Flags().Lookup("tags") != nil {
		if tags, _ := cmd.Flags().GetStringSlice("tags"); len(tags) > 0 {
			settings.TargetTags = tags
		}
	}
	if freeTier, _ := cmd.Flags().GetBool("free-tier"); freeTier {
		settings.FreeTier = true
	}
	return settings
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	logger.Debugf("Loading configuration from: %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		logger.Debugf("Port overridden by flag: %d", cfg.Server.Port)
	}
	if cmd.Flags().Changed("provider") {
		name, _ := cmd.Flags().GetString("provider")
		if !cmd.Flags().Changed("model") {
			cfg.Provider.Model = config.DefaultModel(name)
		}
		cfg.Provider.Name = name
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Provider.Model = model
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.App.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("temp-dir") {
		cfg.App.TempDir, _ = cmd.Flags().GetString("temp-dir")
	}
	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.App.DataDir = dataDir
	}

	return cfg, nil
}

func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

func showConfig(cmd *cobra.Command) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	fmt.Printf("EPUB Translator Configuration\n")
	fmt.Printf("Configuration file: %s\n\n", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Configuration file does not exist\n")
		fmt.Printf("Run 'epub-translator config init' to create one\n")
		return
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return
	}

	fmt.Printf("Server Settings:\n")
	fmt.Printf("  Port: %d\n", cfg.Server.Port)
	fmt.Printf("  Read Timeout: %s\n", cfg.Server.ReadTimeout)
	fmt.Printf("  Write Timeout: %s\n", cfg.Server.WriteTimeout)
	fmt.Printf("\n")

	flagKey, _ := cmd.Flags().GetString("api-key")
	fmt.Printf("Provider Settings:\n")
	fmt.Printf("  Provider: %s\n", cfg.Provider.Name)
	if key, ok := cfg.Credentials(flagKey).Resolve(); ok {
		fmt.Printf("  API Key: %s\n", config.MaskKey(key))
	} else {
		fmt.Printf("  API Key: not set\n")
	}
	fmt.Printf("  Model: %s\n", cfg.Provider.Model)
	if cfg.Provider.BaseURL != "" {
		fmt.Printf("  Base URL: %s\n", cfg.Provider.BaseURL)
	}
	fmt.Printf("  Max Tokens: %d\n", cfg.Provider.MaxTokens)
	fmt.Printf("  Timeout: %s\n", cfg.Provider.Timeout)
	fmt.Printf("\n")

	fmt.Printf("Translation Settings:\n")
	fmt.Printf("  Languages: %s -> %s\n", cfg.Translation.SourceLanguage, cfg.Translation.TargetLanguage)
	fmt.Printf("  Temperature: %.2f\n", cfg.Translation.Temperature)
	fmt.Printf("  Free Tier: %t\n", cfg.Translation.FreeTier)
	fmt.Printf("  Quota Wait: %s\n", cfg.Translation.QuotaWait)
	fmt.Printf("  Pacing Floor: %s\n", cfg.Translation.PacingFloor)
	fmt.Printf("\n")

	fmt.Printf("Application Settings:\n")
	fmt.Printf("  Temp Directory: %s\n", cfg.App.TempDir)
	fmt.Printf("  Output Directory: %s\n", cfg.App.OutputDir)
	fmt.Printf("  Data Directory: %s\n", cfg.App.DataDir)
}

func initConfig(cmd *cobra.Command) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetConfigPath()
	}

	fmt.Printf("Initializing EPUB Translator Configuration\n")
	fmt.Printf("Configuration file: %s\n\n", configPath)

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Configuration file already exists\n")
		return
	}

	if _, err := config.Load(configPath); err != nil {
		fmt.Printf("Failed to initialize configuration: %v\n", err)
		return
	}

	fmt.Printf("Configuration initialized successfully!\n")
	fmt.Printf("Set EPUB_TRANSLATOR_API_KEY or add provider.api_key, then run 'epub-translator'\n")
}
