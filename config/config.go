package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIntervalMinutes = 15
	DefaultTimeZone        = "Europe/Madrid"
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 5 * time.Second

	FormatCSV     = "csv"
	FormatParquet = "parquet"

	SourceSimulated = "simulated"
	SourceHTTP      = "http"
)

// DefaultOutputFolder is where reports land when nothing is configured.
var DefaultOutputFolder = filepath.Join("~", "avr", "PowerTradeReports")

type Config struct {
	PowerPosition PowerPositionConfig `yaml:"powerposition"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Report        ReportConfig        `yaml:"report"`
	Source        SourceConfig        `yaml:"source"`
	Storage       StorageConfig       `yaml:"storage"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type PowerPositionConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ScheduleConfig struct {
	IntervalMinutes int         `yaml:"interval_minutes"`
	Retry           RetryConfig `yaml:"retry"`
}

// Interval returns the wait between two cycles.
func (s ScheduleConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

type ReportConfig struct {
	OutputFolderPath string `yaml:"output_folder_path"`
	TimeZone         string `yaml:"time_zone"`
	Format           string `yaml:"format"`
	Compression      string `yaml:"compression"`
}

type SourceConfig struct {
	Type      string           `yaml:"type"`
	HTTP      HTTPSourceConfig `yaml:"http"`
	Simulated SimulatedConfig  `yaml:"simulated"`
}

type HTTPSourceConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond int           `yaml:"requests_per_second"`
	BurstSize         int           `yaml:"burst"`
}

type SimulatedConfig struct {
	MaxTrades   int     `yaml:"max_trades"`
	FailureRate float64 `yaml:"failure_rate"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		PowerPosition: PowerPositionConfig{Name: "powerposition", Version: "dev"},
		Schedule: ScheduleConfig{
			IntervalMinutes: DefaultIntervalMinutes,
			Retry:           RetryConfig{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay},
		},
		Report: ReportConfig{
			OutputFolderPath: DefaultOutputFolder,
			TimeZone:         DefaultTimeZone,
			Format:           FormatCSV,
			Compression:      "snappy",
		},
		Source: SourceConfig{
			Type: SourceSimulated,
			HTTP: HTTPSourceConfig{
				Timeout:           30 * time.Second,
				RequestsPerSecond: 5,
				BurstSize:         1,
			},
			Simulated: SimulatedConfig{MaxTrades: 5, FailureRate: 0.1},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "PowerPosition"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error: defaults and environment are used instead.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Report.Format = strings.ToLower(strings.TrimSpace(config.Report.Format))
	config.Source.Type = strings.ToLower(strings.TrimSpace(config.Source.Type))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnv(config *Config) error {
	if v := strings.TrimSpace(os.Getenv("POWER_INTERVAL_MINUTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid POWER_INTERVAL_MINUTES '%s': %w", v, err)
		}
		config.Schedule.IntervalMinutes = n
	}
	if v := strings.TrimSpace(os.Getenv("POWER_OUTPUT_FOLDER")); v != "" {
		config.Report.OutputFolderPath = v
	}
	if v := strings.TrimSpace(os.Getenv("POWER_TIME_ZONE")); v != "" {
		config.Report.TimeZone = v
	}
	if v := strings.TrimSpace(os.Getenv("POWER_SOURCE_URL")); v != "" {
		config.Source.HTTP.URL = v
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Schedule.IntervalMinutes < 1 {
		return fmt.Errorf("schedule.interval_minutes must be at least 1")
	}
	if cfg.Schedule.Retry.MaxAttempts < 1 {
		return fmt.Errorf("schedule.retry.max_attempts must be at least 1")
	}
	if cfg.Schedule.Retry.Delay < 0 {
		return fmt.Errorf("schedule.retry.delay cannot be negative")
	}

	if strings.TrimSpace(cfg.Report.OutputFolderPath) == "" {
		return fmt.Errorf("report.output_folder_path is required")
	}
	// The identifier itself is resolved per cycle; an unknown zone fails
	// cycles rather than startup.
	if strings.TrimSpace(cfg.Report.TimeZone) == "" {
		return fmt.Errorf("report.time_zone is required")
	}
	switch cfg.Report.Format {
	case FormatCSV, FormatParquet:
	default:
		return fmt.Errorf("report.format '%s' is not supported", cfg.Report.Format)
	}

	switch cfg.Source.Type {
	case SourceSimulated:
		if cfg.Source.Simulated.MaxTrades < 1 {
			return fmt.Errorf("source.simulated.max_trades must be at least 1")
		}
		if cfg.Source.Simulated.FailureRate < 0 || cfg.Source.Simulated.FailureRate > 1 {
			return fmt.Errorf("source.simulated.failure_rate must be between 0 and 1")
		}
	case SourceHTTP:
		if cfg.Source.HTTP.URL == "" {
			return fmt.Errorf("source.http.url is required when source.type is http")
		}
	default:
		return fmt.Errorf("source.type '%s' is not supported", cfg.Source.Type)
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
