package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"database_url": "postgres://localhost/copilot",
		"vector_backend": "memory",
		"knowledge_dir": "kb",
		"match_batch_size": 25,
		"per_experience_manifestations": 5,
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/copilot", cfg.DatabaseURL)
	assert.Equal(t, BackendMemory, cfg.VectorBackend)
	assert.Equal(t, "kb", cfg.KnowledgeDir)
	assert.Equal(t, 25, cfg.MatchBatchSize)
	assert.Equal(t, 5, cfg.PerExperienceManifestations)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "empty config is valid", cfg: Config{}},
		{name: "defaults are valid", cfg: Defaults()},
		{name: "unknown backend", cfg: Config{VectorBackend: "chroma"}, wantField: "vector_backend"},
		{name: "negative tools limit", cfg: Config{PerSkillTools: -1}, wantField: "per_skill_tools"},
		{name: "negative scrape delay", cfg: Config{ScrapeDelayMillis: -5}, wantField: "scrape_delay_ms"},
		{name: "scrape delay disabled", cfg: Config{ScrapeDelayMillis: Disabled}},
		{name: "rate limit disabled", cfg: Config{LLMRequestsPerMinute: Disabled}},
		{name: "negative rate limit", cfg: Config{LLMRequestsPerMinute: -2}, wantField: "llm_requests_per_minute"},
		{name: "search url without placeholder", cfg: Config{ScrapeSearchURL: "https://example.com/search"}, wantField: "scrape_search_url"},
		{name: "absolute skills subdir", cfg: Config{SkillsSubdir: "/skills"}, wantField: "skills_subdir"},
		{name: "negative batch size means unbounded", cfg: Config{MatchBatchSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		KnowledgeDir:   "custom/kb",
		MatchBatchSize: 3,
		UseBrowser:     true,
	}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "custom/kb", merged.KnowledgeDir)
	assert.Equal(t, 3, merged.MatchBatchSize)
	assert.True(t, merged.UseBrowser)
	assert.Equal(t, BackendPostgres, merged.VectorBackend)
	assert.Equal(t, "skills", merged.SkillsSubdir)
	assert.Equal(t, "skills", merged.Collection)
	assert.Equal(t, 1, merged.PerSkillDefinitions)
	assert.Equal(t, 1, merged.PerSkillTools)
	assert.Equal(t, 3, merged.PerExperienceManifestations)
	assert.Equal(t, DefaultSearchURL, merged.ScrapeSearchURL)

	// original is untouched
	assert.Empty(t, cfg.SkillsSubdir)
}

func TestDurations(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 120*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 30*time.Second, cfg.ScrapeTimeout())
	assert.Equal(t, time.Second, cfg.ScrapeDelay())
	assert.Equal(t, filepath.Join("data", "knowledge", "skills"), cfg.SkillsDir())
}

func TestDisabledSurvivesMerge(t *testing.T) {
	cfg := Config{ScrapeDelayMillis: Disabled, LLMRequestsPerMinute: Disabled}

	merged := cfg.MergeWithDefaults(Defaults())
	require.NoError(t, merged.Validate())

	assert.Equal(t, time.Duration(0), merged.ScrapeDelay())
	assert.Equal(t, 0, merged.RequestsPerMinute())

	// zero still falls back to the defaults
	empty := Config{}
	merged = empty.MergeWithDefaults(Defaults())
	assert.Equal(t, time.Second, merged.ScrapeDelay())
	assert.Equal(t, 60, merged.RequestsPerMinute())
}
