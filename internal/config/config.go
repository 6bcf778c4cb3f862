// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Vector index backends
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Disabled switches off an int setting whose zero value means "use the default".
const Disabled = -1

// DefaultSearchURL is the LinkedIn guest job search endpoint. {start_index} is replaced per page.
const DefaultSearchURL = "https://linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search?keywords=AI&location=Greater%20Toronto%20Area,%20Canada&f_TPR=r84600&start={start_index}"

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Connections
	DatabaseURL   string `json:"database_url,omitempty"`   // PostgreSQL connection URL
	APIKey        string `json:"api_key,omitempty"`        // Gemini API key
	VectorBackend string `json:"vector_backend,omitempty"` // postgres or memory

	// Paths
	KnowledgeDir string `json:"knowledge_dir,omitempty"` // Root of the knowledge base
	SkillsSubdir string `json:"skills_subdir,omitempty"` // Subdirectory holding skill YAML files
	PromptDir    string `json:"prompt_dir,omitempty"`    // Optional override for embedded prompts
	ResumeFile   string `json:"resume_file,omitempty"`   // Resume to ingest during `run`

	// Models
	Collection      string `json:"collection,omitempty"`
	EmbeddingModel  string `json:"embedding_model,omitempty"`
	GenerationModel string `json:"generation_model,omitempty"`

	// Retrieval limits
	PerSkillDefinitions         int `json:"per_skill_definitions,omitempty"`
	PerSkillTools               int `json:"per_skill_tools,omitempty"`
	PerExperienceManifestations int `json:"per_experience_manifestations,omitempty"`
	MatchBatchSize              int `json:"match_batch_size,omitempty"` // Jobs scored per run, negative for all

	// Model guard
	LLMTimeoutSeconds    int `json:"llm_timeout_seconds,omitempty"`
	LLMRequestsPerMinute int `json:"llm_requests_per_minute,omitempty"` // Zero means the default, -1 means unlimited

	// Scraping
	ScrapeSearchURL      string `json:"scrape_search_url,omitempty"`
	ScrapeTimeoutSeconds int    `json:"scrape_timeout_seconds,omitempty"`
	ScrapeDelayMillis    int    `json:"scrape_delay_ms,omitempty"` // Zero means the default, -1 means no pause
	ScrapeMaxPages       int    `json:"scrape_max_pages,omitempty"`
	UseBrowser           bool   `json:"use_browser,omitempty"` // Render detail pages with headless Chrome when needed

	// Output
	Verbose bool `json:"verbose,omitempty"`
	LogJSON bool `json:"log_json,omitempty"`
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
}

// Defaults returns the values used for anything the config file and flags leave unset.
func Defaults() Config {
	return Config{
		VectorBackend:               BackendPostgres,
		KnowledgeDir:                filepath.Join("data", "knowledge"),
		SkillsSubdir:                "skills",
		Collection:                  "skills",
		EmbeddingModel:              "text-embedding-004",
		GenerationModel:             "gemini-2.5-flash",
		PerSkillDefinitions:         1,
		PerSkillTools:               1,
		PerExperienceManifestations: 3,
		MatchBatchSize:              10,
		LLMTimeoutSeconds:           120,
		LLMRequestsPerMinute:        60,
		ScrapeSearchURL:             DefaultSearchURL,
		ScrapeTimeoutSeconds:        30,
		ScrapeDelayMillis:           1000,
		ScrapeMaxPages:              1,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required credentials since those are resolved
// from flags and the environment after merging.
func (c *Config) Validate() error {
	if c.VectorBackend != "" && c.VectorBackend != BackendPostgres && c.VectorBackend != BackendMemory {
		return &ValidationError{Field: "vector_backend", Message: fmt.Sprintf("must be %q or %q, got %q", BackendPostgres, BackendMemory, c.VectorBackend)}
	}

	nonNegative := map[string]int{
		"per_skill_definitions":         c.PerSkillDefinitions,
		"per_skill_tools":               c.PerSkillTools,
		"per_experience_manifestations": c.PerExperienceManifestations,
		"llm_timeout_seconds":           c.LLMTimeoutSeconds,
		"scrape_timeout_seconds":        c.ScrapeTimeoutSeconds,
		"scrape_max_pages":              c.ScrapeMaxPages,
	}
	for field, value := range nonNegative {
		if value < 0 {
			return &ValidationError{Field: field, Message: "must be non-negative"}
		}
	}

	// zero is replaced by the default when merging, so -1 is how these are switched off
	disableable := map[string]int{
		"llm_requests_per_minute": c.LLMRequestsPerMinute,
		"scrape_delay_ms":         c.ScrapeDelayMillis,
	}
	for field, value := range disableable {
		if value < Disabled {
			return &ValidationError{Field: field, Message: fmt.Sprintf("must be non-negative, or %d to disable", Disabled)}
		}
	}

	if c.ScrapeSearchURL != "" && !strings.Contains(c.ScrapeSearchURL, "{start_index}") {
		return &ValidationError{Field: "scrape_search_url", Message: "must contain the {start_index} placeholder"}
	}

	if c.SkillsSubdir != "" && filepath.IsAbs(c.SkillsSubdir) {
		return &ValidationError{Field: "skills_subdir", Message: "must be relative to knowledge_dir"}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.VectorBackend, defaults.VectorBackend)
	mergeString(&result.KnowledgeDir, defaults.KnowledgeDir)
	mergeString(&result.SkillsSubdir, defaults.SkillsSubdir)
	mergeString(&result.PromptDir, defaults.PromptDir)
	mergeString(&result.ResumeFile, defaults.ResumeFile)
	mergeString(&result.Collection, defaults.Collection)
	mergeString(&result.EmbeddingModel, defaults.EmbeddingModel)
	mergeString(&result.GenerationModel, defaults.GenerationModel)
	mergeString(&result.ScrapeSearchURL, defaults.ScrapeSearchURL)

	// Int fields: use default if zero
	mergeInt(&result.PerSkillDefinitions, defaults.PerSkillDefinitions)
	mergeInt(&result.PerSkillTools, defaults.PerSkillTools)
	mergeInt(&result.PerExperienceManifestations, defaults.PerExperienceManifestations)
	mergeInt(&result.MatchBatchSize, defaults.MatchBatchSize)
	mergeInt(&result.LLMTimeoutSeconds, defaults.LLMTimeoutSeconds)
	mergeInt(&result.LLMRequestsPerMinute, defaults.LLMRequestsPerMinute)
	mergeInt(&result.ScrapeTimeoutSeconds, defaults.ScrapeTimeoutSeconds)
	mergeInt(&result.ScrapeDelayMillis, defaults.ScrapeDelayMillis)
	mergeInt(&result.ScrapeMaxPages, defaults.ScrapeMaxPages)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// LLMTimeout returns the per-call model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// ScrapeTimeout returns the per-request scraper timeout.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeoutSeconds) * time.Second
}

// ScrapeDelay returns the pause between job detail requests. Disabled yields zero.
func (c *Config) ScrapeDelay() time.Duration {
	if c.ScrapeDelayMillis <= 0 {
		return 0
	}
	return time.Duration(c.ScrapeDelayMillis) * time.Millisecond
}

// RequestsPerMinute returns the model rate limit. Zero means unlimited.
func (c *Config) RequestsPerMinute() int {
	return max(c.LLMRequestsPerMinute, 0)
}

// SkillsDir returns the directory the knowledge store reads skill files from.
func (c *Config) SkillsDir() string {
	return filepath.Join(c.KnowledgeDir, c.SkillsSubdir)
}

func mergeString(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

func mergeInt(field *int, fallback int) {
	if *field == 0 {
		*field = fallback
	}
}
