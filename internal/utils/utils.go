// Package utils contains general helper functions used across dir2yaml.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GitDirectoryName is the name of the Git repository directory.
const GitDirectoryName = ".git"

// hardExcludedDirectoryNames lists directories that are reported but never entered.
var hardExcludedDirectoryNames = map[string]struct{}{
	GitDirectoryName: {},
	".venv":          {},
	"node_modules":   {},
	".idea":          {},
	".vscode":        {},
	".DS_Store":      {},
	".github":        {},
	"__pycache__":    {},
}

// contentDeniedFileNames lists files whose content is never captured.
var contentDeniedFileNames = map[string]struct{}{
	".env":      {},
	".htpasswd": {},
}

// contentDeniedSuffix marks log files, whose content is never captured.
const contentDeniedSuffix = ".log"

// DefaultIgnorePatterns are always unioned with caller supplied ignore patterns.
// Secrets and logs are handled by the content-skip rules instead, so every
// other file stays listed unless the caller ignores it.
var DefaultIgnorePatterns = []string{}

// IsHardExcludedDirectoryName reports whether a directory with this exact name is kept without contents.
func IsHardExcludedDirectoryName(name string) bool {
	_, excluded := hardExcludedDirectoryNames[name]
	return excluded
}

// IsContentDeniedFileName reports whether a file's content must be withheld because of its name.
func IsContentDeniedFileName(name string) bool {
	if _, denied := contentDeniedFileNames[name]; denied {
		return true
	}
	return strings.HasSuffix(name, contentDeniedSuffix)
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// CombineIgnorePatterns returns DefaultIgnorePatterns followed by the trimmed,
// non-empty caller patterns, without duplicates.
func CombineIgnorePatterns(callerPatterns []string) []string {
	combined := append([]string{}, DefaultIgnorePatterns...)
	for _, pattern := range callerPatterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		combined = append(combined, trimmedPattern)
	}
	return DeduplicatePatterns(combined)
}

// MatchesAnyPattern reports whether the bare entry name matches one of the
// shell-style glob patterns. Malformed patterns never match.
func MatchesAnyPattern(entryName string, patterns []string) bool {
	for _, pattern := range patterns {
		isMatched, matchError := doublestar.Match(pattern, entryName)
		if matchError == nil && isMatched {
			return true
		}
	}
	return false
}

// RelativeSlashPath returns fullPath relative to root in forward-slash form.
// It returns the empty string when both resolve to the same directory.
func RelativeSlashPath(fullPath, root string) string {
	relativePath, relativeError := filepath.Rel(filepath.Clean(root), filepath.Clean(fullPath))
	if relativeError != nil {
		return filepath.ToSlash(filepath.Base(fullPath))
	}
	if relativePath == "." {
		return EmptyString
	}
	return filepath.ToSlash(relativePath)
}
