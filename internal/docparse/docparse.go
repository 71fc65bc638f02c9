// Package docparse extracts title/body from a discovered file
// (spec.md §4.6). Small and dependency-free by design — pattern taken
// from internal/chunk/parser.go's single-purpose extraction style,
// not its markdown-structure-aware logic (which docbert doesn't need:
// title is just the first ATX heading or the file stem).
package docparse

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// Document is the parsed result ready for indexing.
type Document struct {
	Title string
	Body  string
}

// Parse reads absPath and extracts its title (first ATX heading, else
// the file stem) and body (lossily-decoded UTF-8 contents).
func Parse(absPath string) (Document, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return Document{}, docerrors.New(docerrors.ErrCodeIoRead, "cannot read document", err).
			WithDetail("path", absPath)
	}

	body := toValidUTF8(raw)
	return Document{Title: extractTitle(body, absPath), Body: body}, nil
}

func toValidUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "�")
}

// extractTitle returns the text of the first ATX heading ("# ...",
// "## ...", etc.) found in body, or the file's base name without
// extension if none is present.
func extractTitle(body, absPath string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		heading := strings.TrimLeft(trimmed, "#")
		heading = strings.TrimSpace(heading)
		if heading != "" {
			return heading
		}
	}
	base := filepath.Base(absPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
