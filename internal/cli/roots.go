package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	errorPathMissingFormat  = "path '%s' does not exist"
	errorStatFormat         = "stat failed for '%s': %w"
	errorNotDirectoryFormat = "path '%s' is not a directory"
	errorNestedRootsFormat  = "directory '%s' is inside '%s'; choose one of them"
	errorNoDirectories      = "no directories to snapshot: pass them as arguments or add them to the profile"
)

// resolveRoots makes every directory absolute relative to workingDirectory,
// drops repeats and rejects missing, non-directory, or nested roots.
func resolveRoots(workingDirectory string, inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return nil, errors.New(errorNoDirectories)
	}
	seen := make(map[string]struct{}, len(inputs))
	roots := make([]string, 0, len(inputs))
	for _, inputPath := range inputs {
		candidatePath := inputPath
		if !filepath.IsAbs(candidatePath) {
			candidatePath = filepath.Join(workingDirectory, candidatePath)
		}
		absolutePath, absolutePathError := filepath.Abs(candidatePath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, duplicate := seen[cleanPath]; duplicate {
			continue
		}
		directoryInfo, statError := os.Stat(cleanPath)
		if statError != nil {
			if os.IsNotExist(statError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, statError)
		}
		if !directoryInfo.IsDir() {
			return nil, fmt.Errorf(errorNotDirectoryFormat, inputPath)
		}
		for _, existingRoot := range roots {
			if isWithin(cleanPath, existingRoot) {
				return nil, fmt.Errorf(errorNestedRootsFormat, cleanPath, existingRoot)
			}
			if isWithin(existingRoot, cleanPath) {
				return nil, fmt.Errorf(errorNestedRootsFormat, existingRoot, cleanPath)
			}
		}
		seen[cleanPath] = struct{}{}
		roots = append(roots, cleanPath)
	}
	return roots, nil
}

// isWithin reports whether candidate lies strictly below parent.
func isWithin(candidate string, parent string) bool {
	relativePath, relativeError := filepath.Rel(parent, candidate)
	if relativeError != nil || relativePath == "." {
		return false
	}
	return relativePath != ".." && !strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) && !filepath.IsAbs(relativePath)
}
