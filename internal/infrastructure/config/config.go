// Package config loads the localrag configuration from YAML or TOML files,
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/0xcro3dile/localrag-fts/internal/adapters/index"
	"github.com/0xcro3dile/localrag-fts/internal/domain/chunker"
	"github.com/0xcro3dile/localrag-fts/internal/domain/usecases"
)

// Config holds the localrag configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" toml:"http"`
	Store       StoreConfig       `yaml:"store" toml:"store"`
	Documents   DocumentsConfig   `yaml:"documents" toml:"documents"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	Search      SearchConfig      `yaml:"search" toml:"search"`
	LLM         LLMConfig         `yaml:"llm" toml:"llm"`
	Translation TranslationConfig `yaml:"translation" toml:"translation"`
	Tools       ToolsConfig       `yaml:"tools" toml:"tools"`
	MCP         MCPConfig         `yaml:"mcp" toml:"mcp"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Addr            string `yaml:"addr" toml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec" toml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec" toml:"write_timeout_sec"` // must cover a streamed answer
	ShutdownSec     int    `yaml:"shutdown_timeout_sec" toml:"shutdown_timeout_sec"`
	MaxUploadMB     int    `yaml:"max_upload_mb" toml:"max_upload_mb"`
}

// StoreConfig holds index database settings.
type StoreConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	Path   string `yaml:"path" toml:"path"`
}

// DocumentsConfig holds the document source settings.
type DocumentsConfig struct {
	Dir           string   `yaml:"dir" toml:"dir"`
	Extensions    []string `yaml:"extensions" toml:"extensions"`
	IngestOnStart bool     `yaml:"ingest_on_start" toml:"ingest_on_start"`
	Watch         bool     `yaml:"watch" toml:"watch"`
	DebounceMS    int      `yaml:"debounce_ms" toml:"debounce_ms"`
}

// ChunkerConfig holds fragment window settings, in characters.
type ChunkerConfig struct {
	Size    int `yaml:"size" toml:"size"`
	Overlap int `yaml:"overlap" toml:"overlap"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	TopK           int    `yaml:"top_k" toml:"top_k"`
	ChatTopK       int    `yaml:"chat_top_k" toml:"chat_top_k"`
	MinQueryLength int    `yaml:"min_query_length" toml:"min_query_length"`
	MatchMode      string `yaml:"match_mode" toml:"match_mode"` // any, all
}

// LLMConfig holds chat model settings.
type LLMConfig struct {
	Provider     string  `yaml:"provider" toml:"provider"` // openai, ollama
	BaseURL      string  `yaml:"base_url" toml:"base_url"`
	APIKey       string  `yaml:"api_key" toml:"api_key"`
	Model        string  `yaml:"model" toml:"model"`
	TimeoutSec   int     `yaml:"timeout_sec" toml:"timeout_sec"`
	Temperature  *float32 `yaml:"temperature" toml:"temperature"` // unset means 0.7; 0 is allowed
	MaxTokens    int     `yaml:"max_tokens" toml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt" toml:"system_prompt"`
}

// TranslationConfig enables translation around search.
type TranslationConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	IndexLanguage string `yaml:"index_language" toml:"index_language"`
	UserLanguage  string `yaml:"user_language" toml:"user_language"`
}

// ToolsConfig holds filesystem.read and fetch.get settings.
type ToolsConfig struct {
	Enabled         bool     `yaml:"enabled" toml:"enabled"`
	MaxBytes        int64    `yaml:"max_bytes" toml:"max_bytes"`
	AllowedHosts    []string `yaml:"allowed_hosts" toml:"allowed_hosts"`
	FetchTimeoutSec int      `yaml:"fetch_timeout_sec" toml:"fetch_timeout_sec"`
	FetchPerSecond  float64  `yaml:"fetch_per_second" toml:"fetch_per_second"`
}

// MCPConfig holds MCP server settings. An empty Addr disables the HTTP transport.
type MCPConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Format string `yaml:"format" toml:"format"` // console, json
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() Config {
	cfg := Config{
		Documents: DocumentsConfig{IngestOnStart: true},
		Tools:     ToolsConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// DefaultFiles are tried in order when no config path is given.
var DefaultFiles = []string{"localrag.yaml", "localrag.yml", "localrag.toml"}

// Load reads configuration from path. An empty path tries DefaultFiles and
// falls back to defaults when none exists. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range DefaultFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv honours the variables understood by earlier deployments.
func (c *Config) applyEnv() {
	if v := os.Getenv("LLAMA_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("DOCS_DIR"); v != "" {
		c.Documents.Dir = v
	}
	if v := os.Getenv("RAG_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("LOCALRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8000"
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.Store.Driver == "" {
		c.Store.Driver = index.DriverPure
	}
	if c.Store.Path == "" {
		c.Store.Path = index.DefaultPath
	}
	if c.Documents.Dir == "" {
		c.Documents.Dir = "./docs"
	}
	if c.Documents.DebounceMS <= 0 {
		c.Documents.DebounceMS = 500
	}
	if c.Chunker.Size == 0 {
		c.Chunker.Size = chunker.DefaultSize
		if c.Chunker.Overlap == 0 {
			c.Chunker.Overlap = chunker.DefaultOverlap
		}
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = index.DefaultTopK
	}
	if c.Search.ChatTopK <= 0 {
		c.Search.ChatTopK = 4
	}
	if c.Search.MinQueryLength <= 0 {
		c.Search.MinQueryLength = 8
	}
	if c.Search.MatchMode == "" {
		c.Search.MatchMode = string(index.MatchAny)
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:8080"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "local"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 120
	}
	if c.LLM.Temperature == nil {
		t := usecases.DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 512
	}
	if c.Tools.MaxBytes <= 0 {
		c.Tools.MaxBytes = 200_000
	}
	if len(c.Tools.AllowedHosts) == 0 {
		c.Tools.AllowedHosts = []string{"localhost", "127.0.0.1"}
	}
	if c.Tools.FetchTimeoutSec <= 0 {
		c.Tools.FetchTimeoutSec = 5
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if _, err := chunker.New(c.Chunker.Size, c.Chunker.Overlap); err != nil {
		return fmt.Errorf("chunker: %w", err)
	}
	if _, err := index.ParseMatchMode(c.Search.MatchMode); err != nil {
		return fmt.Errorf("search.match_mode: %w", err)
	}
	if err := index.CheckDriver(c.Store.Driver); err != nil {
		return fmt.Errorf("store.driver: %w", err)
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"ollama\", got %q", c.LLM.Provider)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Translation.Enabled && c.Translation.IndexLanguage == "" && c.Translation.UserLanguage == "" {
		return errors.New("translation.enabled requires index_language or user_language")
	}
	return nil
}

// Debounce returns the watcher debounce as a duration.
func (c DocumentsConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
