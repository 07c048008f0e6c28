package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server looks for its configuration file.
const DefaultPath = "configs/config.yml"

// DefaultMaxRetries is used when stopwords.max_retries is absent. An explicit 0 disables retries.
const DefaultMaxRetries = 3

// DefaultStopwordsURL points to the NLTK stopwords corpus package.
const DefaultStopwordsURL = "https://raw.githubusercontent.com/nltk/nltk_data/gh-pages/packages/corpora/stopwords.zip"

// Config holds application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Stopwords StopwordsConfig `yaml:"stopwords"`
	Inference InferenceConfig `yaml:"inference"`
	Stats     StatsConfig     `yaml:"stats"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	StaticDir       string        `yaml:"static_dir"` // optional index.html / dashboard.html
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// ArtifactsConfig lists the files produced by the training pipeline.
type ArtifactsConfig struct {
	ModelPath      string `yaml:"model_path"`
	VectorizerPath string `yaml:"vectorizer_path"`
	ModelNamePath  string `yaml:"model_name_path"`
	ComparisonPath string `yaml:"comparison_path"` // optional
}

// StopwordsConfig controls how the stopword list is acquired at startup.
type StopwordsConfig struct {
	Language    string        `yaml:"language"`
	Path        string        `yaml:"path"`    // local word file, one word per line
	Builtin     bool          `yaml:"builtin"` // use the list compiled into the binary
	CachePath   string        `yaml:"cache_path"`
	DownloadURL string        `yaml:"download_url"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// InferenceConfig holds batch prediction limits.
type InferenceConfig struct {
	BatchConcurrency int `yaml:"batch_concurrency"`
	MaxBatchSize     int `yaml:"max_batch_size"`
}

// StatsConfig is the descriptive training summary served by /api/stats.
type StatsConfig struct {
	Dataset       string   `yaml:"dataset"`
	TotalSamples  string   `yaml:"total_samples"`
	Categories    int      `yaml:"categories"`
	Features      string   `yaml:"features"`
	Preprocessing []string `yaml:"preprocessing"`
	ModelsTrained int      `yaml:"models_trained"`
}

// LoadConfig loads configuration from YAML file. A missing file yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	config.Stopwords.MaxRetries = DefaultMaxRetries

	data, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	config.applyDefaults()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	config := &Config{}
	config.Stopwords.MaxRetries = DefaultMaxRetries
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == "" {
		c.Server.Port = "5000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Artifacts.ModelPath == "" {
		c.Artifacts.ModelPath = "artifacts/best_model.json"
	}
	if c.Artifacts.VectorizerPath == "" {
		c.Artifacts.VectorizerPath = "artifacts/tfidf_vectorizer.json"
	}
	if c.Artifacts.ModelNamePath == "" {
		c.Artifacts.ModelNamePath = "artifacts/best_model_name.txt"
	}
	if c.Artifacts.ComparisonPath == "" {
		c.Artifacts.ComparisonPath = "artifacts/model_comparison.csv"
	}

	if c.Stopwords.Language == "" {
		c.Stopwords.Language = "english"
	}
	if c.Stopwords.CachePath == "" {
		c.Stopwords.CachePath = "./data/resources.db"
	}
	if c.Stopwords.DownloadURL == "" {
		c.Stopwords.DownloadURL = DefaultStopwordsURL
	}
	if c.Stopwords.RetryDelay == 0 {
		c.Stopwords.RetryDelay = 2 * time.Second
	}
	if c.Stopwords.Timeout == 0 {
		c.Stopwords.Timeout = 30 * time.Second
	}

	if c.Inference.BatchConcurrency == 0 {
		c.Inference.BatchConcurrency = 4
	}
	if c.Inference.MaxBatchSize == 0 {
		c.Inference.MaxBatchSize = 64
	}

	if c.Stats.Dataset == "" {
		c.Stats.Dataset = "DBpedia"
	}
	if c.Stats.TotalSamples == "" {
		c.Stats.TotalSamples = "560,000"
	}
	if c.Stats.Categories == 0 {
		c.Stats.Categories = 14
	}
	if c.Stats.Features == "" {
		c.Stats.Features = "5,000 (TF-IDF)"
	}
	if len(c.Stats.Preprocessing) == 0 {
		c.Stats.Preprocessing = []string{"Lowercase", "Remove Punctuation", "Remove Stopwords"}
	}
	if c.Stats.ModelsTrained == 0 {
		c.Stats.ModelsTrained = 10
	}
}

// applyEnv expands ${VAR} references in paths and honours the PORT and LOG_LEVEL overrides.
func (c *Config) applyEnv() {
	c.Artifacts.ModelPath = os.ExpandEnv(c.Artifacts.ModelPath)
	c.Artifacts.VectorizerPath = os.ExpandEnv(c.Artifacts.VectorizerPath)
	c.Artifacts.ModelNamePath = os.ExpandEnv(c.Artifacts.ModelNamePath)
	c.Artifacts.ComparisonPath = os.ExpandEnv(c.Artifacts.ComparisonPath)
	c.Stopwords.Path = os.ExpandEnv(c.Stopwords.Path)
	c.Stopwords.CachePath = os.ExpandEnv(c.Stopwords.CachePath)
	c.Stopwords.DownloadURL = os.ExpandEnv(c.Stopwords.DownloadURL)
	c.Server.StaticDir = os.ExpandEnv(c.Server.StaticDir)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid server mode %q (must be debug, release or test)", c.Server.Mode)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format %q (must be json or console)", c.Log.Format)
	}
	if c.Artifacts.ModelPath == "" || c.Artifacts.VectorizerPath == "" || c.Artifacts.ModelNamePath == "" {
		return errors.New("model, vectorizer and model name paths are required")
	}
	if c.Inference.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be positive, got %d", c.Inference.BatchConcurrency)
	}
	if c.Inference.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.Inference.MaxBatchSize)
	}
	if c.Stopwords.MaxRetries < 0 {
		return fmt.Errorf("stopwords max_retries must not be negative, got %d", c.Stopwords.MaxRetries)
	}
	return nil
}

// Address returns host:port for the HTTP listener.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}
