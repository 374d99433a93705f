package snapshot

import (
	"os"
	"path/filepath"

	"github.com/temirov/dir2yaml/internal/progress"
	"github.com/temirov/dir2yaml/internal/types"
	"github.com/temirov/dir2yaml/internal/utils"
)

// inspectFile captures metadata, hash and content state for the file at path.
// Failures degrade to zero metadata, an empty hash or a content sentinel.
func (walker *walkContext) inspectFile(path string) *types.FileNode {
	fileName := filepath.Base(path)
	fileNode := &types.FileNode{
		Name:         fileName,
		RelativePath: utils.RelativeSlashPath(path, walker.rootDirectoryPath),
	}

	fileInfo, statError := os.Stat(path)
	if statError != nil {
		walker.notify(progress.KindStatFailed, path, statError)
	} else {
		fileNode.SizeBytes = uint64(fileInfo.Size())
		fileNode.ModifiedTime = utils.PosixSeconds(fileInfo.ModTime())
	}

	if contentHash, hashError := utils.HashFile(path); hashError == nil {
		fileNode.ContentHash = contentHash
	}

	fileNode.Content = walker.captureContent(path, fileName, statError == nil, fileNode.SizeBytes)
	return fileNode
}

// captureContent applies the name rule, then the size limit, then the binary check.
func (walker *walkContext) captureContent(path string, fileName string, sizeKnown bool, sizeBytes uint64) types.FileContent {
	if utils.IsContentDeniedFileName(fileName) {
		return types.SkippedContent(types.ContentSkippedByName)
	}
	if sizeKnown && walker.maxFileSizeBytes != nil && sizeBytes > *walker.maxFileSizeBytes {
		return types.SkippedContent(types.ContentSkippedBySize)
	}
	fileBytes, readError := os.ReadFile(path)
	if readError != nil || utils.IsBinary(fileBytes) {
		return types.SkippedContent(types.ContentSkippedOrBinary)
	}
	return types.IncludedContent(utils.DecodeText(fileBytes))
}
