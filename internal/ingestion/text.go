package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	runOfSpaces    = regexp.MustCompile(`\s+`)
	runOfBlankLine = regexp.MustCompile(`\n\n\n+`)
)

// maxResumeBytes bounds the size of a resume file.
const maxResumeBytes = 20 << 20

// CleanText normalizes line endings and whitespace while keeping headings,
// bullets and paragraph breaks.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := runOfBlankLine.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// headings and bullets keep their text untouched
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}
	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		return strings.Repeat(" ", indent) + trimmed
	}
	return strings.Repeat(" ", indent) + runOfSpaces.ReplaceAllString(trimmed, " ")
}

func isBulletLine(trimmed string) bool {
	for _, bullet := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(trimmed, bullet) {
			return true
		}
	}
	return false
}

// ContentHash returns the hex SHA-256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ExtractText reads the plain text of a resume file. PDF, plain text and
// Markdown files are supported.
func ExtractText(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &FileError{Path: path, Message: "file not found", Cause: err}
		}
		return "", &FileError{Path: path, Message: "failed to stat file", Cause: err}
	}
	if info.IsDir() {
		return "", &FileError{Path: path, Message: "is a directory"}
	}
	if info.Size() > maxResumeBytes {
		return "", &FileError{Path: path, Message: fmt.Sprintf("file larger than %d bytes", maxResumeBytes)}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return pdfText(ctx, path)
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", &FileError{Path: path, Message: "failed to read file", Cause: err}
		}
		return string(data), nil
	default:
		return "", &FileError{Path: path, Message: fmt.Sprintf("unsupported file type %q", ext)}
	}
}

func pdfText(ctx context.Context, path string) (text string, err error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &FileError{Path: path, Message: "failed to read file", Cause: err}
	}

	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &FileError{Path: path, Message: fmt.Sprintf("malformed PDF: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &FileError{Path: path, Message: "failed to open PDF", Cause: err}
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(make(map[string]*pdf.Font))
		if err != nil {
			return "", &FileError{Path: path, Message: fmt.Sprintf("failed to read page %d", i), Cause: err}
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pageText)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", &FileError{Path: path, Message: "no text found in PDF"}
	}
	return b.String(), nil
}
