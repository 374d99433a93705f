package snapshot_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/dir2yaml/internal/progress"
	"github.com/temirov/dir2yaml/internal/snapshot"
	"github.com/temirov/dir2yaml/internal/types"
)

const (
	textFileName    = "a.txt"
	textFileContent = "hi"
	gitConfigName   = "config"
)

type recordingSink struct {
	messages []progress.Message
}

func (sink *recordingSink) Notify(message progress.Message) {
	sink.messages = append(sink.messages, message)
}

func (sink *recordingSink) kinds() []progress.Kind {
	kinds := make([]progress.Kind, 0, len(sink.messages))
	for _, message := range sink.messages {
		kinds = append(kinds, message.Kind)
	}
	return kinds
}

func uint64Pointer(value uint64) *uint64 {
	return &value
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func childNames(children []types.TreeNode) []string {
	names := make([]string, 0, len(children))
	for _, child := range children {
		names = append(names, child.NodeName())
	}
	return names
}

func findFile(t *testing.T, children []types.TreeNode, name string) *types.FileNode {
	t.Helper()
	for _, child := range children {
		if fileNode, isFile := child.(*types.FileNode); isFile && fileNode.Name == name {
			return fileNode
		}
	}
	t.Fatalf("file %s not found among %v", name, childNames(children))
	return nil
}

func findDirectory(t *testing.T, children []types.TreeNode, name string) *types.DirectoryNode {
	t.Helper()
	for _, child := range children {
		if directoryNode, isDirectory := child.(*types.DirectoryNode); isDirectory && directoryNode.Name == name {
			return directoryNode
		}
	}
	t.Fatalf("directory %s not found among %v", name, childNames(children))
	return nil
}

func TestBuildCapturesTextAndHardExcludedDirectory(t *testing.T) {
	rootDirectory := filepath.Join(t.TempDir(), "proj")
	writeFile(t, filepath.Join(rootDirectory, textFileName), textFileContent)
	writeFile(t, filepath.Join(rootDirectory, ".git", gitConfigName), "[core]\n")

	trees := snapshot.Build([]string{rootDirectory}, nil, uint64Pointer(1000), nil)

	require.Len(t, trees, 1)
	assert.Equal(t, "proj", trees[0].RootLabel)
	assert.Equal(t, []string{".git", textFileName}, childNames(trees[0].Children))

	textFile := findFile(t, trees[0].Children, textFileName)
	assert.Equal(t, textFileName, textFile.RelativePath)
	assert.Equal(t, uint64(2), textFile.SizeBytes)
	assert.Equal(t, types.IncludedContent(textFileContent), textFile.Content)
	digest := sha256.Sum256([]byte(textFileContent))
	assert.Equal(t, hex.EncodeToString(digest[:]), textFile.ContentHash)

	gitDirectory := findDirectory(t, trees[0].Children, ".git")
	assert.Equal(t, ".git", gitDirectory.RelativePath)
	assert.Empty(t, gitDirectory.Children)
}

func TestBuildHardExclusionTakesPrecedenceOverPatterns(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, "node_modules", "lib", "index.js"), "module.exports = 1\n")
	writeFile(t, filepath.Join(rootDirectory, "keep.txt"), "keep")

	trees := snapshot.Build([]string{rootDirectory}, []string{"node_*"}, nil, nil)

	require.Len(t, trees, 1)
	dependencyDirectory := findDirectory(t, trees[0].Children, "node_modules")
	assert.Empty(t, dependencyDirectory.Children)
}

func TestBuildHardExclusionAppliesOnlyToDirectories(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, ".github"), "not a directory")

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	githubFile := findFile(t, trees[0].Children, ".github")
	assert.Equal(t, types.IncludedContent("not a directory"), githubFile.Content)
}

func TestBuildOmitsIgnoredEntries(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, "build", "out.bin"), "x")
	writeFile(t, filepath.Join(rootDirectory, "src", "main.go"), "package main\n")
	writeFile(t, filepath.Join(rootDirectory, "src", "main.tmp"), "tmp")
	writeFile(t, filepath.Join(rootDirectory, "src", "cache.pyc"), "pyc")

	sink := &recordingSink{}
	trees := snapshot.Build([]string{rootDirectory}, []string{"build", "*.tmp"}, nil, sink)

	require.Len(t, trees, 1)
	assert.Equal(t, []string{"src"}, childNames(trees[0].Children))
	sourceDirectory := findDirectory(t, trees[0].Children, "src")
	assert.Equal(t, []string{"cache.pyc", "main.go"}, childNames(sourceDirectory.Children))
	assert.Equal(t, "src/main.go", sourceDirectory.Children[1].NodeRelativePath())
	assert.Contains(t, sink.kinds(), progress.KindIgnoredEntry)
}

func TestBuildListsEditorAndCacheFilesWithoutCallerPatterns(t *testing.T) {
	rootDirectory := t.TempDir()
	for _, name := range []string{"Thumbs.db", "module.pyc", ".notes.swp", "server.log"} {
		writeFile(t, filepath.Join(rootDirectory, name), "x")
	}

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	assert.Equal(t, []string{".notes.swp", "Thumbs.db", "module.pyc", "server.log"}, childNames(trees[0].Children))
	assert.Equal(t, types.SkippedContent(types.ContentSkippedByName), findFile(t, trees[0].Children, "server.log").Content)
}

func TestBuildOrdersChildrenLexicographically(t *testing.T) {
	rootDirectory := t.TempDir()
	for _, name := range []string{"b.txt", "B.txt", "a.txt", "_x.txt", "z/inner.txt", "Z/inner.txt", "c/b", "c/a"} {
		writeFile(t, filepath.Join(rootDirectory, filepath.FromSlash(name)), name)
	}

	first := snapshot.Build([]string{rootDirectory}, nil, nil, nil)
	second := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, first, 1)
	assert.Equal(t, []string{"B.txt", "Z", "_x.txt", "a.txt", "b.txt", "c", "z"}, childNames(first[0].Children))
	assert.Equal(t, []string{"a", "b"}, childNames(findDirectory(t, first[0].Children, "c").Children))
	assert.Equal(t, first, second)
}

func TestBuildContentPolicy(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, ".env"), "A=1\n")
	writeFile(t, filepath.Join(rootDirectory, ".htpasswd"), "user:hash")
	writeFile(t, filepath.Join(rootDirectory, "server.log"), "line")
	writeFile(t, filepath.Join(rootDirectory, "exact.txt"), strings.Repeat("a", 10))
	writeFile(t, filepath.Join(rootDirectory, "over.txt"), strings.Repeat("a", 11))
	writeFile(t, filepath.Join(rootDirectory, "data.bin"), "ab\x00cd")
	writeFile(t, filepath.Join(rootDirectory, "latin1.txt"), "caf\xe9\n")
	writeFile(t, filepath.Join(rootDirectory, "multi.txt"), "line one\nline two\r\n")
	writeFile(t, filepath.Join(rootDirectory, "empty.txt"), "")

	trees := snapshot.Build([]string{rootDirectory}, nil, uint64Pointer(10), nil)
	require.Len(t, trees, 1)
	children := trees[0].Children

	testCases := []struct {
		name     string
		expected types.FileContent
	}{
		{name: ".env", expected: types.SkippedContent(types.ContentSkippedByName)},
		{name: ".htpasswd", expected: types.SkippedContent(types.ContentSkippedByName)},
		{name: "server.log", expected: types.SkippedContent(types.ContentSkippedByName)},
		{name: "exact.txt", expected: types.IncludedContent(strings.Repeat("a", 10))},
		{name: "over.txt", expected: types.SkippedContent(types.ContentSkippedBySize)},
		{name: "data.bin", expected: types.SkippedContent(types.ContentSkippedOrBinary)},
		{name: "latin1.txt", expected: types.IncludedContent("caf�\n")},
		{name: "multi.txt", expected: types.IncludedContent("line one\nline two\r\n")},
		{name: "empty.txt", expected: types.IncludedContent("")},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			fileNode := findFile(t, children, testCase.name)
			assert.Equal(t, testCase.expected, fileNode.Content)
			assert.Len(t, fileNode.ContentHash, 64)
		})
	}

	overLimit := findFile(t, children, "over.txt")
	assert.Equal(t, uint64(11), overLimit.SizeBytes)
}

func TestBuildWithoutSizeLimitIncludesLargeFiles(t *testing.T) {
	rootDirectory := t.TempDir()
	largeContent := strings.Repeat("x", 64*1024)
	writeFile(t, filepath.Join(rootDirectory, "large.txt"), largeContent)

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	assert.Equal(t, types.IncludedContent(largeContent), findFile(t, trees[0].Children, "large.txt").Content)
}

func TestBuildRecordsModificationTime(t *testing.T) {
	rootDirectory := t.TempDir()
	filePath := filepath.Join(rootDirectory, textFileName)
	writeFile(t, filePath, textFileContent)
	modificationTime := time.Unix(1700000000, int64(250*time.Millisecond))
	require.NoError(t, os.Chtimes(filePath, modificationTime, modificationTime))

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	assert.InDelta(t, 1700000000.25, findFile(t, trees[0].Children, textFileName).ModifiedTime, 0.001)
}

func TestBuildSkipsInvalidRootsAndKeepsOrder(t *testing.T) {
	workspace := t.TempDir()
	firstRoot := filepath.Join(workspace, "p1")
	secondRoot := filepath.Join(workspace, "p2")
	plainFile := filepath.Join(workspace, "plain.txt")
	writeFile(t, filepath.Join(firstRoot, "one.txt"), "1")
	writeFile(t, filepath.Join(secondRoot, "two.txt"), "2")
	writeFile(t, plainFile, "not a directory")

	trees := snapshot.Build([]string{secondRoot, filepath.Join(workspace, "missing"), plainFile, firstRoot + string(filepath.Separator)}, nil, nil, nil)

	require.Len(t, trees, 2)
	assert.Equal(t, "p2", trees[0].RootLabel)
	assert.Equal(t, "p1", trees[1].RootLabel)
	assert.Equal(t, "one.txt", trees[1].Children[0].NodeRelativePath())
}

func TestBuildKeepsNestedRelativePaths(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, "a", "b", "c.txt"), "c")

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	directoryA := findDirectory(t, trees[0].Children, "a")
	directoryB := findDirectory(t, directoryA.Children, "b")
	assert.Equal(t, "a", directoryA.RelativePath)
	assert.Equal(t, "a/b", directoryB.RelativePath)
	assert.Equal(t, "a/b/c.txt", findFile(t, directoryB.Children, "c.txt").RelativePath)
}

func TestBuildEmitsProgressInWalkOrder(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFile(t, filepath.Join(rootDirectory, "dir", "inner.txt"), "inner")
	writeFile(t, filepath.Join(rootDirectory, ".idea", "workspace.xml"), "<x/>")

	sink := &recordingSink{}
	snapshot.Build([]string{rootDirectory}, nil, nil, sink)

	assert.Equal(t, []progress.Kind{
		progress.KindScanRoot,
		progress.KindExcludedDirectory,
		progress.KindEnterDirectory,
		progress.KindReadFile,
	}, sink.kinds())
}

func TestBuildUnreadableDirectoryKeepsEmptyNode(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	rootDirectory := t.TempDir()
	lockedDirectory := filepath.Join(rootDirectory, "locked")
	writeFile(t, filepath.Join(lockedDirectory, "secret.txt"), "secret")
	writeFile(t, filepath.Join(rootDirectory, "open.txt"), "open")
	require.NoError(t, os.Chmod(lockedDirectory, 0o000))
	t.Cleanup(func() { _ = os.Chmod(lockedDirectory, 0o755) })

	sink := &recordingSink{}
	trees := snapshot.Build([]string{rootDirectory}, nil, nil, sink)

	require.Len(t, trees, 1)
	assert.Empty(t, findDirectory(t, trees[0].Children, "locked").Children)
	assert.Equal(t, types.IncludedContent("open"), findFile(t, trees[0].Children, "open.txt").Content)
	assert.Contains(t, sink.kinds(), progress.KindAccessDenied)
}

func TestBuildUnreadableFileKeepsMetadata(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	rootDirectory := t.TempDir()
	filePath := filepath.Join(rootDirectory, "private.txt")
	writeFile(t, filePath, "12345")
	require.NoError(t, os.Chmod(filePath, 0o000))
	t.Cleanup(func() { _ = os.Chmod(filePath, 0o644) })

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	privateFile := findFile(t, trees[0].Children, "private.txt")
	assert.Equal(t, uint64(5), privateFile.SizeBytes)
	assert.Empty(t, privateFile.ContentHash)
	assert.Equal(t, types.SkippedContent(types.ContentSkippedOrBinary), privateFile.Content)
}

func TestBuildBrokenSymlinkDegradesToSentinel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	rootDirectory := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(rootDirectory, "nowhere"), filepath.Join(rootDirectory, "dangling")))

	sink := &recordingSink{}
	trees := snapshot.Build([]string{rootDirectory}, nil, nil, sink)

	require.Len(t, trees, 1)
	danglingFile := findFile(t, trees[0].Children, "dangling")
	assert.Zero(t, danglingFile.SizeBytes)
	assert.Empty(t, danglingFile.ContentHash)
	assert.Equal(t, types.SkippedContent(types.ContentSkippedOrBinary), danglingFile.Content)
	assert.Contains(t, sink.kinds(), progress.KindStatFailed)
}

func TestBuildFollowsDirectorySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	workspace := t.TempDir()
	targetDirectory := filepath.Join(workspace, "target")
	rootDirectory := filepath.Join(workspace, "root")
	writeFile(t, filepath.Join(targetDirectory, "shared.txt"), "shared")
	require.NoError(t, os.MkdirAll(rootDirectory, 0o755))
	require.NoError(t, os.Symlink(targetDirectory, filepath.Join(rootDirectory, "linked")))

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)

	require.Len(t, trees, 1)
	linkedDirectory := findDirectory(t, trees[0].Children, "linked")
	assert.Equal(t, "linked/shared.txt", findFile(t, linkedDirectory.Children, "shared.txt").RelativePath)
}
