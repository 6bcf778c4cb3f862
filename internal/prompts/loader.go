// Package prompts provides a loader for externalized LLM prompt templates.
// Prompts are stored as JSON files mapping keys to templates. The defaults are embedded
// at compile time and can be replaced by a directory on disk.
package prompts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
)

// Prompt files and keys
const (
	MatchingFile = "matching.json"
	KeyJobMatch  = "job-matching"

	ExtractionFile   = "extraction.json"
	KeyExtractJob    = "extract-job"
	KeyExtractResume = "extract-resume"
)

//go:embed *.json
var promptFiles embed.FS

// NotFoundError reports a missing prompt file or key.
type NotFoundError struct {
	File  string
	Key   string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("prompt key %q not found in %s", e.Key, e.File)
	}
	if e.Cause != nil {
		return fmt.Sprintf("failed to read prompt file %s: %v", e.File, e.Cause)
	}
	return fmt.Sprintf("failed to read prompt file %s", e.File)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// Loader reads and caches prompt files from a file system.
type Loader struct {
	fsys fs.FS

	mu    sync.RWMutex
	cache map[string]map[string]string
}

// NewLoader returns a Loader reading from fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{
		fsys:  fsys,
		cache: make(map[string]map[string]string),
	}
}

// Embedded returns a Loader over the prompts compiled into the binary.
func Embedded() *Loader {
	return NewLoader(promptFiles)
}

// FromDir returns a Loader reading prompt files from dir. The directory must exist.
func FromDir(dir string) (*Loader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotFoundError{File: dir, Cause: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{File: dir, Cause: fmt.Errorf("not a directory")}
	}
	return NewLoader(os.DirFS(dir)), nil
}

// Get retrieves a prompt by filename and key.
// The filename should not include the path (e.g., "matching.json").
func (l *Loader) Get(filename, key string) (string, error) {
	prompts, err := l.loadFile(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := prompts[key]
	if !exists {
		return "", &NotFoundError{File: filename, Key: key}
	}

	return prompt, nil
}

// MustGet retrieves a prompt by filename and key, panicking if not found.
func (l *Loader) MustGet(filename, key string) string {
	prompt, err := l.Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Require checks that filename exists and contains every key.
// Components call it at construction so a missing template fails at startup.
func (l *Loader) Require(filename string, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if _, err := l.Get(filename, key); err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) && nf.Key == "" {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns all available prompt keys in a file, sorted.
func (l *Loader) List(filename string) ([]string, error) {
	prompts, err := l.loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(prompts))
	for key := range prompts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// loadFile loads and caches a prompt file.
func (l *Loader) loadFile(filename string) (map[string]string, error) {
	l.mu.RLock()
	if prompts, exists := l.cache[filename]; exists {
		l.mu.RUnlock()
		return prompts, nil
	}
	l.mu.RUnlock()

	data, err := fs.ReadFile(l.fsys, filename)
	if err != nil {
		return nil, &NotFoundError{File: filename, Cause: err}
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.cache[filename] = prompts
	l.mu.Unlock()

	return prompts, nil
}

// Format replaces template placeholders in the form {{.Key}} with values from data.
// Substitution is a single pass, so placeholder-like text inside values is left alone.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, fmt.Sprintf("{{.%s}}", key), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
