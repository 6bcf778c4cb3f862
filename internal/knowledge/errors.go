// Package knowledge builds and queries the skill knowledge base used to enrich matching prompts.
package knowledge

import "fmt"

// ConfigError reports a missing or unusable knowledge directory.
type ConfigError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("knowledge config error: %s (%s): %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("knowledge config error: %s (%s)", e.Message, e.Path)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// SkillFileError reports a skill file that could not be read or is malformed.
type SkillFileError struct {
	File    string
	Message string
	Cause   error
}

func (e *SkillFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("skill file %s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("skill file %s: %s", e.File, e.Message)
}

func (e *SkillFileError) Unwrap() error {
	return e.Cause
}
