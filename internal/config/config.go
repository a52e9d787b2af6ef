package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	InputDirectory      string            `mapstructure:"input_directory"`
	OutputDirectory     string            `mapstructure:"output_directory"`
	Overwrite           bool              `mapstructure:"overwrite"`
	FailOnError         bool              `mapstructure:"fail_on_error"`
	SupportedExtensions []string          `mapstructure:"supported_extensions"`
	Compression         CompressionConfig `mapstructure:"compression"`
	Metadata            MetadataConfig    `mapstructure:"metadata"`
	Performance         PerformanceConfig `mapstructure:"performance"`
	Logging             LoggingConfig     `mapstructure:"logging"`
}

// CompressionConfig contains the per-file compression settings
type CompressionConfig struct {
	Quality      int     `mapstructure:"quality"`       // JPEG quality 1-100
	MaxDimension int     `mapstructure:"max_dimension"` // longest edge in pixels
	MinRatio     float64 `mapstructure:"min_ratio"`     // minimum savings percent to accept
}

// MetadataConfig contains EXIF handling settings
type MetadataConfig struct {
	SkipMarked bool `mapstructure:"skip_marked"` // skip JPEGs already stamped by this tool
	Preserve   bool `mapstructure:"preserve"`    // copy EXIF onto outputs (needs exiftool)
}

// PerformanceConfig contains worker pool tuning settings
type PerformanceConfig struct {
	Workers      int  `mapstructure:"workers"`
	BatchSize    int  `mapstructure:"batch_size"`
	ShowProgress bool `mapstructure:"show_progress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		InputDirectory:  "images",
		OutputDirectory: "images/compressed",
		Overwrite:       false,
		FailOnError:     false,
		SupportedExtensions: []string{
			".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".gif",
		},
		Compression: CompressionConfig{
			Quality:      85,
			MaxDimension: 1920,
			MinRatio:     0,
		},
		Metadata: MetadataConfig{
			SkipMarked: true,
			Preserve:   false,
		},
		Performance: PerformanceConfig{
			Workers:      4,
			BatchSize:    100,
			ShowProgress: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			FilePath:   "image-compressor.log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		// Look for config file in current directory and home directory
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.image-compressor")
		viper.AddConfigPath("/etc/image-compressor")
	}

	// Enable environment variable support
	viper.SetEnvPrefix("IMAGE_COMPRESSOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Try to read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal config
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate and normalize config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.InputDirectory == "" {
		return fmt.Errorf("input_directory is required")
	}

	if c.OutputDirectory == "" {
		return fmt.Errorf("output_directory is required")
	}

	if c.Compression.Quality < 1 || c.Compression.Quality > 100 {
		return fmt.Errorf("invalid quality: %d (valid: 1-100)", c.Compression.Quality)
	}

	if c.Compression.MaxDimension <= 0 {
		return fmt.Errorf("invalid max_dimension: %d (must be positive)", c.Compression.MaxDimension)
	}

	if c.Compression.MinRatio < 0 || c.Compression.MinRatio > 100 {
		return fmt.Errorf("invalid min_ratio: %v (valid: 0-100)", c.Compression.MinRatio)
	}

	if len(c.SupportedExtensions) == 0 {
		return fmt.Errorf("supported_extensions must not be empty")
	}
	c.SupportedExtensions = normalizeExtensions(c.SupportedExtensions)

	if c.Performance.Workers < 1 {
		return fmt.Errorf("invalid workers: %d (must be at least 1)", c.Performance.Workers)
	}
	if c.Performance.BatchSize <= 0 {
		c.Performance.BatchSize = 100
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}

// IsSupportedExtension checks if the extension is accepted for compression
func (c *Config) IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supportedExt := range c.SupportedExtensions {
		if ext == supportedExt {
			return true
		}
	}
	return false
}

// Helper functions

func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[i] = ext
	}
	return normalized
}
