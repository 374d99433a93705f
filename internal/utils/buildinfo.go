package utils

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	develBuildVersion  = "(devel)"
	gitExecutableName  = "git"
	gitDescribeCommand = "describe"
)

var errRepositoryNotFound = errors.New("no enclosing git repository")

// gitDescribeArgumentSets are tried in order; the first non-empty answer wins.
var gitDescribeArgumentSets = [][]string{
	{gitDescribeCommand, "--tags", "--exact-match"},
	{gitDescribeCommand, "--tags", "--long", "--dirty"},
}

// GetApplicationVersion returns the dir2yaml module version. Binaries built
// without module information fall back to git describe of the enclosing checkout.
func GetApplicationVersion() string {
	if buildInfo, available := debug.ReadBuildInfo(); available {
		if moduleVersion := buildInfo.Main.Version; moduleVersion != "" && moduleVersion != develBuildVersion {
			return moduleVersion
		}
	}
	repositoryRoot, repositoryError := enclosingRepositoryRoot(".")
	if repositoryError != nil {
		return unknownVersion
	}
	for _, describeArguments := range gitDescribeArgumentSets {
		if description := describeRepository(repositoryRoot, describeArguments); description != "" {
			return description
		}
	}
	return unknownVersion
}

func describeRepository(repositoryRoot string, describeArguments []string) string {
	// #nosec G204
	describeCommand := exec.Command(gitExecutableName, describeArguments...)
	describeCommand.Dir = repositoryRoot
	output, describeError := describeCommand.Output()
	if describeError != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// enclosingRepositoryRoot walks upward from startDirectory to the first
// directory holding a .git directory.
func enclosingRepositoryRoot(startDirectory string) (string, error) {
	currentDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", absoluteError
	}
	for {
		if information, statError := os.Stat(filepath.Join(currentDirectory, GitDirectoryName)); statError == nil && information.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", errRepositoryNotFound
		}
		currentDirectory = parentDirectory
	}
}
