// Package snapshot walks root directories into in-memory trees of directories
// and files, applying the exclusion and content capture rules.
package snapshot

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/temirov/dir2yaml/internal/progress"
	"github.com/temirov/dir2yaml/internal/types"
	"github.com/temirov/dir2yaml/internal/utils"
)

// TreeBuilder builds root trees using configured options.
type TreeBuilder struct {
	// IgnorePatterns are caller patterns; the built-in defaults are always added.
	IgnorePatterns []string
	// MaxFileSizeBytes disables content capture for larger files. Nil means no limit.
	MaxFileSizeBytes *uint64
	Progress         progress.Sink
}

type walkContext struct {
	rootDirectoryPath string
	ignorePatterns    []string
	maxFileSizeBytes  *uint64
	sink              progress.Sink
}

// Build walks every root through a TreeBuilder configured with the given options.
func Build(roots []string, ignorePatterns []string, maxFileSizeBytes *uint64, sink progress.Sink) []types.RootTree {
	treeBuilder := &TreeBuilder{
		IgnorePatterns:   ignorePatterns,
		MaxFileSizeBytes: maxFileSizeBytes,
		Progress:         sink,
	}
	return treeBuilder.Build(roots)
}

// Build returns one RootTree per root that is a readable directory, in input order.
// Roots that are not directories are skipped without an error.
func (treeBuilder *TreeBuilder) Build(roots []string) []types.RootTree {
	combinedPatterns := utils.CombineIgnorePatterns(treeBuilder.IgnorePatterns)
	rootTrees := make([]types.RootTree, 0, len(roots))
	for _, rootDirectoryPath := range roots {
		rootInfo, rootStatError := os.Stat(rootDirectoryPath)
		if rootStatError != nil || !rootInfo.IsDir() {
			continue
		}
		cleanRootPath := filepath.Clean(rootDirectoryPath)
		progress.Notify(treeBuilder.Progress, progress.Message{Kind: progress.KindScanRoot, Path: cleanRootPath})

		walker := walkContext{
			rootDirectoryPath: cleanRootPath,
			ignorePatterns:    combinedPatterns,
			maxFileSizeBytes:  treeBuilder.MaxFileSizeBytes,
			sink:              treeBuilder.Progress,
		}
		rootNode := walker.walkDirectory(cleanRootPath)
		rootTrees = append(rootTrees, types.RootTree{
			RootLabel: filepath.Base(cleanRootPath),
			Children:  rootNode.Children,
		})
	}
	return rootTrees
}

// walkDirectory returns the node for currentDirectoryPath with its children.
// A directory that cannot be listed is returned with no children.
func (walker *walkContext) walkDirectory(currentDirectoryPath string) *types.DirectoryNode {
	relativePath := utils.RelativeSlashPath(currentDirectoryPath, walker.rootDirectoryPath)
	directoryName := filepath.Base(currentDirectoryPath)
	if relativePath == "" {
		directoryName = types.RootDirectoryName
	}
	directoryNode := &types.DirectoryNode{
		Name:         directoryName,
		RelativePath: relativePath,
		Children:     []types.TreeNode{},
	}

	// os.ReadDir returns entries sorted by file name.
	directoryEntries, readDirectoryError := os.ReadDir(currentDirectoryPath)
	if readDirectoryError != nil {
		walker.notify(progress.KindAccessDenied, currentDirectoryPath, readDirectoryError)
		return directoryNode
	}

	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		childPath := filepath.Join(currentDirectoryPath, entryName)
		isDirectory := isDirectoryEntry(directoryEntry, childPath)

		if isDirectory && utils.IsHardExcludedDirectoryName(entryName) {
			walker.notify(progress.KindExcludedDirectory, childPath, nil)
			directoryNode.Children = append(directoryNode.Children, &types.DirectoryNode{
				Name:         entryName,
				RelativePath: utils.RelativeSlashPath(childPath, walker.rootDirectoryPath),
				Children:     []types.TreeNode{},
			})
			continue
		}

		if utils.MatchesAnyPattern(entryName, walker.ignorePatterns) {
			walker.notify(progress.KindIgnoredEntry, childPath, nil)
			continue
		}

		if isDirectory {
			walker.notify(progress.KindEnterDirectory, childPath, nil)
			directoryNode.Children = append(directoryNode.Children, walker.walkDirectory(childPath))
			continue
		}

		walker.notify(progress.KindReadFile, childPath, nil)
		directoryNode.Children = append(directoryNode.Children, walker.inspectFile(childPath))
	}

	return directoryNode
}

func (walker *walkContext) notify(kind progress.Kind, path string, cause error) {
	message := progress.Message{Kind: kind, Path: path}
	if cause != nil {
		message.Detail = cause.Error()
	}
	progress.Notify(walker.sink, message)
}

// isDirectoryEntry reports whether the entry is a directory, following symbolic links.
func isDirectoryEntry(directoryEntry fs.DirEntry, entryPath string) bool {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		return directoryEntry.IsDir()
	}
	targetInfo, statError := os.Stat(entryPath)
	if statError != nil {
		return false
	}
	return targetInfo.IsDir()
}
