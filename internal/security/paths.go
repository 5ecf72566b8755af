// Package security guards the file paths the occlusion tools read and write.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a relative path resolves outside its root.
var ErrPathEscape = errors.New("path escapes root directory")

// ResolveWithin joins rel onto root and rejects results that climb out of
// root. Absolute paths are returned cleaned and unchecked. The check is
// lexical so it works for in-memory file systems too.
func ResolveWithin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}
	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, rel)
	r, err := filepath.Rel(cleanRoot, joined)
	if err != nil {
		return "", fmt.Errorf("%s: %w", rel, ErrPathEscape)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", rel, ErrPathEscape)
	}
	return joined, nil
}

// SanitizeFilename turns a sample id into a file name. Runs of anything
// other than ASCII letters, digits, '.', '_' and '-' become one underscore;
// leading and trailing dots and underscores are trimmed.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	under := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			under = false
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
