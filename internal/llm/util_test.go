package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain array",
			input:    "  [1, 2]  ",
			expected: `[1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestCleanJSONBlock_PreambleText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "As requested, here is the JSON:\n{\"total_score\": 80}",
			expected: `{"total_score": 80}`,
		},
		{
			name:     "preamble and trailing note",
			input:    "Here's the evaluation:\n\n{\"recommendation\": \"GOOD MATCH\"}\nLet me know if you need more.",
			expected: `{"recommendation": "GOOD MATCH"}`,
		},
		{
			name:     "no JSON at all",
			input:    "I cannot evaluate this resume.",
			expected: "I cannot evaluate this resume.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, ExtractJSONObject(`text {"a": {"b": 1}} more`))
	assert.Equal(t, "", ExtractJSONObject("no braces"))
	assert.Equal(t, "", ExtractJSONObject("} reversed {"))
}
