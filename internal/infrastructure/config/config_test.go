package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/localrag-fts/internal/adapters/index"
	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"LLAMA_URL", "DOCS_DIR", "RAG_DB_PATH", "LOCALRAG_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1200, cfg.Chunker.Size)
	assert.Equal(t, 150, cfg.Chunker.Overlap)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 4, cfg.Search.ChatTopK)
	assert.Equal(t, 8, cfg.Search.MinQueryLength)
	assert.Equal(t, "./rag.db", cfg.Store.Path)
	assert.Equal(t, "./docs", cfg.Documents.Dir)
	assert.True(t, cfg.Documents.IngestOnStart)
	assert.Equal(t, int64(200_000), cfg.Tools.MaxBytes)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.Tools.AllowedHosts)
	require.NotNil(t, cfg.LLM.Temperature)
	assert.InDelta(t, 0.7, *cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 512, cfg.LLM.MaxTokens)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "localrag.yaml", `
http:
  addr: ":9000"
store:
  path: /var/lib/localrag/index.db
chunker:
  size: 600
  overlap: 100
search:
  match_mode: all
llm:
  provider: ollama
  base_url: http://gpu:11434
documents:
  ingest_on_start: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/localrag/index.db", cfg.Store.Path)
	assert.Equal(t, 600, cfg.Chunker.Size)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, "all", cfg.Search.MatchMode)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.False(t, cfg.Documents.IngestOnStart)
	assert.Equal(t, 4, cfg.Search.ChatTopK, "unset fields keep defaults")
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "localrag.toml", `
[documents]
dir = "/srv/docs"
watch = true

[tools]
allowed_hosts = ["localhost", "docs.internal"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Documents.Dir)
	assert.True(t, cfg.Documents.Watch)
	assert.Equal(t, []string{"localhost", "docs.internal"}, cfg.Tools.AllowedHosts)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOCALRAG_TEST_KEY", "secret")
	path := writeConfig(t, "c.yaml", `
llm:
  api_key: ${LOCALRAG_TEST_KEY}
  model: ${LOCALRAG_TEST_MODEL:-qwen2.5}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LLAMA_URL", "http://llama:8080")
	t.Setenv("DOCS_DIR", "/data/docs")
	t.Setenv("RAG_DB_PATH", "/data/rag.db")
	path := writeConfig(t, "c.yaml", "store:\n  path: ./ignored.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://llama:8080", cfg.LLM.BaseURL)
	assert.Equal(t, "/data/docs", cfg.Documents.Dir)
	assert.Equal(t, "/data/rag.db", cfg.Store.Path)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "c.yaml", "llm:\n  temperature: 0\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.LLM.Temperature)
	assert.Zero(t, *cfg.LLM.Temperature)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidChunker(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "c.yaml", "chunker:\n  size: 100\n  overlap: 100\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, entities.ErrInvalidChunkConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"match mode", func(c *Config) { c.Search.MatchMode = "fuzzy" }},
		{"driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"translation", func(c *Config) { c.Translation.Enabled = true }},
		{"negative overlap", func(c *Config) { c.Chunker.Overlap = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "c.json", "{}")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_CGODriverNeedsBuildTag(t *testing.T) {
	cfg := Default()
	cfg.Store.Driver = index.DriverCGO

	err := cfg.Validate()
	if index.CGOAvailable {
		assert.NoError(t, err)
		return
	}
	assert.ErrorIs(t, err, index.ErrDriverUnavailable)
}
