package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"image-compressor-go/internal/codec"
	"image-compressor-go/internal/compressor"
	"image-compressor-go/internal/config"
	"image-compressor-go/internal/enumerate"
	"image-compressor-go/internal/exifmeta"
	"image-compressor-go/internal/logger"
	"image-compressor-go/internal/pipeline"
	"image-compressor-go/internal/statistics"
	"image-compressor-go/internal/web"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile        string
	inputDir       string
	outputDir      string
	quality        int
	maxSize        int
	minCompression float64
	workers        int
	overwrite      bool
	failOnError    bool
	verbose        bool
	quiet          bool
	port           int
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "image-compressor",
	Short: "Batch-compress images in a directory tree",
	Long: `ImageCompressor walks an input directory, resizes and recompresses
every supported image, and writes results to an output directory using
a pool of concurrent workers.

Features:
- Recursive directory traversal with configurable formats
- Downscale-only resizing to a maximum dimension
- Minimum-compression-ratio threshold: files that do not shrink enough
  are copied through unchanged
- EXIF-aware: recognizes and skips its own previous output, optionally
  preserves metadata on compressed files
- Per-file progress logging and a final run summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompress(cmd, args)
	},
}

// scanCmd enumerates the input tree and reports what would be processed.
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Enumerate images and show statistics without compressing",
	Long: `Scan the specified directory (or the configured input directory) and
display counts and sizes of the image files that a compression run would
process. No files are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

// serveCmd starts the web interface server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web interface server",
	Long: `Starts an HTTP server exposing the compression pipeline:
- POST /api/compress starts a job
- GET /api/status reports progress
- /ws streams per-file outcomes over WebSocket

Access the API at http://localhost:<port> (default: 8080)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().StringVar(&inputDir, "input", "", "input directory containing images (default: images)")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "output directory for compressed images (default: images/compressed)")
	rootCmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality 1-100 (default: 85)")
	rootCmd.Flags().IntVar(&maxSize, "max-size", 0, "maximum dimension in pixels (default: 1920)")
	rootCmd.Flags().Float64Var(&minCompression, "min-compression", 0, "minimum compression percent required to keep the compressed file (default: 0)")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent workers (default: 4)")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing destination files instead of skipping them")
	rootCmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "exit non-zero when any file fails to compress")

	scanCmd.Flags().StringVar(&inputDir, "input", "", "input directory containing images")

	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run web server on")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads configuration file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.image-compressor")
		viper.AddConfigPath("/etc/image-compressor")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runCompress executes a full batch compression run.
func runCompress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	stats := statistics.NewStatistics()

	enumerator := enumerate.New(cfg.SupportedExtensions, log)
	files, err := enumerator.Enumerate(cfg.InputDirectory)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Infof("No image files found in %s", cfg.InputDirectory)
		return nil
	}

	log.Infof("Found %d image files, compressing with %d workers (quality %d, max %dpx)",
		len(files), cfg.Performance.Workers, cfg.Compression.Quality, cfg.Compression.MaxDimension)

	tasks, err := pipeline.BuildTasks(files, cfg.InputDirectory, cfg.OutputDirectory,
		cfg.Compression.Quality, cfg.Compression.MaxDimension, cfg.Compression.MinRatio)
	if err != nil {
		return fmt.Errorf("failed to build tasks: %w", err)
	}

	var meta *exifmeta.Manager
	if cfg.Metadata.Preserve {
		meta, err = exifmeta.NewManager()
		if err != nil {
			log.Warnf("Metadata preservation disabled: %v", err)
			meta = nil
		} else {
			defer meta.Close()
		}
	}

	proc := compressor.New(codec.NewImagingCodec(), meta, log, compressor.Options{
		Overwrite:        cfg.Overwrite,
		SkipMarked:       cfg.Metadata.SkipMarked,
		PreserveMetadata: cfg.Metadata.Preserve,
	})

	runner := pipeline.NewRunner(cfg.Performance.Workers, log, stats, nil)
	runner.Run(context.Background(), tasks, proc)

	if !quiet {
		fmt.Println("\n" + stats.GetSummary())
		if stats.GetFilesFailed() > 0 {
			fmt.Println("\n" + stats.GetErrorSummary())
		}
	}

	if cfg.FailOnError && stats.GetFilesFailed() > 0 {
		return fmt.Errorf("%d file(s) failed to compress", stats.GetFilesFailed())
	}
	return nil
}

// runScan enumerates the input tree and prints what would be processed.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	enumerator := enumerate.New(cfg.SupportedExtensions, log)
	files, err := enumerator.Enumerate(cfg.InputDirectory)
	if err != nil {
		return err
	}

	var totalBytes int64
	byType := make(map[string]int)
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			totalBytes += info.Size()
		}
		ext := strings.ToUpper(strings.TrimPrefix(strings.ToLower(filepath.Ext(f)), "."))
		byType[ext]++
	}

	if !quiet {
		fmt.Printf("Scanned %s: %d image files, %.1f MB total\n",
			cfg.InputDirectory, len(files), float64(totalBytes)/1024/1024)
		for ext, count := range byType {
			fmt.Printf("  %s: %d\n", ext, count)
		}
	}
	return nil
}

// runServe starts the web server and handles graceful shutdown.
func runServe() error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CONFIG LOAD ERROR: %v\n", err)
		cfg = config.DefaultConfig()
		cfg.InputDirectory = "."
	}

	log := setupLogger(cfg)
	server := web.NewServer(cfg, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	fmt.Printf("ImageCompressor web interface started on http://localhost:%d\n", port)
	fmt.Println("Press Ctrl+C to stop the server")

	<-sigChan
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Server stopped gracefully")
	return nil
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if inputDir != "" {
		cfg.InputDirectory = inputDir
	}
	if len(args) > 0 {
		cfg.InputDirectory = args[0]
	}
	if outputDir != "" {
		cfg.OutputDirectory = outputDir
	}
	if cmd.Flags().Changed("quality") {
		cfg.Compression.Quality = quality
	}
	if cmd.Flags().Changed("max-size") {
		cfg.Compression.MaxDimension = maxSize
	}
	if cmd.Flags().Changed("min-compression") {
		cfg.Compression.MinRatio = minCompression
	}
	if cmd.Flags().Changed("workers") {
		cfg.Performance.Workers = workers
	}
	if overwrite {
		cfg.Overwrite = true
	}
	if failOnError {
		cfg.FailOnError = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
