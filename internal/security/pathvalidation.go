// Package security guards the file paths the engine derives from panel ids
// and sample names.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is returned when a path resolves outside its root.
var ErrOutsideDirectory = errors.New("path escapes directory")

// ValidatePathWithinDirectory checks that filePath stays inside dir once
// "..", absolute components and symlinks are resolved. filePath need not
// exist; its nearest existing ancestor is resolved instead.
func ValidatePathWithinDirectory(filePath, dir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", filePath, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	root, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}

	rel, err := filepath.Rel(root, canonical(absPath))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrOutsideDirectory, filePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrOutsideDirectory, filePath, dir)
	}
	return nil
}

// canonical resolves symlinks in the longest existing prefix of an
// absolute path and re-appends the remainder.
func canonical(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	for dir := filepath.Dir(absPath); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, absPath)
			return filepath.Join(resolved, rest)
		}
		if dir == filepath.Dir(dir) {
			return absPath
		}
	}
}

// SanitizeFilename makes a file name from a sample name. Characters other
// than ASCII letters, digits, dot, underscore and dash become a single
// underscore and the result is capped at 128 bytes.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
