package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	input := "# Title\n## Subtitle\nContent here"
	result := CleanText(input)

	assert.Contains(t, result, "# Title")
	assert.Contains(t, result, "## Subtitle")
	assert.Contains(t, result, "Content here")
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	input := "- Item 1\n- Item 2\n* Item 3"
	result := CleanText(input)

	assert.Contains(t, result, "- Item 1")
	assert.Contains(t, result, "- Item 2")
	assert.Contains(t, result, "* Item 3")
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	input := "Line    with    multiple    spaces"
	result := CleanText(input)

	assert.Contains(t, result, "Line with multiple spaces")
	assert.NotContains(t, result, "    ") // Should not have 4 spaces
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	input := "Line 1\n\n\n\n\nLine 2"
	result := CleanText(input)

	// Should have max 2 consecutive newlines
	assert.NotContains(t, result, "\n\n\n\n")
	// But should preserve up to 2
	assert.Contains(t, result, "\n\n")
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	input := "Line 1\r\nLine 2\rLine 3\nLine 4"
	result := CleanText(input)

	// All should be normalized to LF
	assert.NotContains(t, result, "\r\n")
	assert.NotContains(t, result, "\r")
	assert.Contains(t, result, "\n")
}

func TestCleanText_DeterministicOutput(t *testing.T) {
	input := "Test content   with   spaces\n\n\nMultiple   blank   lines"
	result1 := CleanText(input)
	result2 := CleanText(input)

	// Same input should produce identical output
	assert.Equal(t, result1, result2)
}

func TestCleanText_EmptyInput(t *testing.T) {
	result := CleanText("")
	assert.Empty(t, result)
}

func TestCleanText_OnlyWhitespace(t *testing.T) {
	result := CleanText("   \n  \n  ")
	assert.Empty(t, result)
}

func TestCleanText_SpecialCharacters(t *testing.T) {
	input := "Test with émojis 🚀 and spéciàl chàracters"
	result := CleanText(input)

	assert.Contains(t, result, "émojis")
	assert.Contains(t, result, "🚀")
	assert.Contains(t, result, "spéciàl chàracters")
}

func TestCleanText_PreserveIndentation(t *testing.T) {
	input := "    Indented line\n  Less indented"
	result := CleanText(input)

	// Should preserve relative indentation
	assert.Contains(t, result, "Indented")
	assert.Contains(t, result, "Less indented")
}

func TestCleanText_ComplexFormatting(t *testing.T) {
	content := "# Senior Software Engineer   \r\n\r\n\r\n\r\n## Responsibilities\n   - Go experience\n\tBuild    reliable   services\n\n## Skills\n* Go (5+ years)\n• Kubernetes\n"

	result := CleanText(content)

	assert.Equal(t,
		"# Senior Software Engineer\n\n## Responsibilities\n   - Go experience\n Build reliable services\n\n## Skills\n* Go (5+ years)\n• Kubernetes",
		result)
}

func TestContentHash(t *testing.T) {
	assert.Len(t, ContentHash("resume"), 64)
	assert.Equal(t, ContentHash("a"), ContentHash("a"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr string
	}{
		{name: "text file", path: write("resume.txt", "Jane Doe\nGo developer"), want: "Jane Doe\nGo developer"},
		{name: "markdown upper-case extension", path: write("resume.MD", "# Jane"), want: "# Jane"},
		{name: "missing file", path: filepath.Join(dir, "nope.pdf"), wantErr: "file not found"},
		{name: "unsupported type", path: write("resume.docx", "x"), wantErr: "unsupported file type"},
		{name: "not a pdf", path: write("resume.pdf", "plain text pretending"), wantErr: "resume.pdf"},
		{name: "directory", path: dir, wantErr: "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(context.Background(), tt.path)
			if tt.wantErr != "" {
				var fileErr *FileError
				require.ErrorAs(t, err, &fileErr)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
