// Package types defines every cross‑package data structure used by dir2yaml.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	// RootDirectoryName is the name carried by the synthetic node of a scanned root.
	RootDirectoryName = "."

	SentinelSkippedByName   = "[SKIPPED by name]"
	SentinelSkippedBySize   = "[SKIPPED due to size]"
	SentinelSkippedOrBinary = "[SKIPPED or BINARY]"
)

// TreeNode is either a *DirectoryNode or a *FileNode.
type TreeNode interface {
	NodeName() string
	NodeRelativePath() string
	treeNode()
}

// DirectoryNode is a directory with its ordered children.
type DirectoryNode struct {
	Name         string
	RelativePath string
	Children     []TreeNode
}

// FileNode is a file with its captured metadata and content state.
type FileNode struct {
	Name         string
	RelativePath string
	SizeBytes    uint64
	// ModifiedTime is a POSIX timestamp in fractional seconds.
	ModifiedTime float64
	// ContentHash is the lowercase hex SHA-256 of the file bytes, or empty when the file could not be opened.
	ContentHash string
	Content     FileContent
}

func (node *DirectoryNode) NodeName() string         { return node.Name }
func (node *DirectoryNode) NodeRelativePath() string { return node.RelativePath }
func (*DirectoryNode) treeNode()                     {}

func (node *FileNode) NodeName() string         { return node.Name }
func (node *FileNode) NodeRelativePath() string { return node.RelativePath }
func (*FileNode) treeNode()                     {}

// ContentSkip tells why file content was withheld.
type ContentSkip int

const (
	ContentIncluded ContentSkip = iota
	ContentSkippedByName
	ContentSkippedBySize
	ContentSkippedOrBinary
)

// FileContent holds either literal text (Skip == ContentIncluded) or a skip reason.
type FileContent struct {
	Text string
	Skip ContentSkip
}

// IncludedContent wraps literal file text.
func IncludedContent(text string) FileContent {
	return FileContent{Text: text, Skip: ContentIncluded}
}

// SkippedContent returns a content state withheld for the given reason.
func SkippedContent(reason ContentSkip) FileContent {
	return FileContent{Skip: reason}
}

// Value returns the literal text or the sentinel standing in for it.
func (content FileContent) Value() string {
	switch content.Skip {
	case ContentSkippedByName:
		return SentinelSkippedByName
	case ContentSkippedBySize:
		return SentinelSkippedBySize
	case ContentSkippedOrBinary:
		return SentinelSkippedOrBinary
	default:
		return content.Text
	}
}

// ParseFileContent maps a serialized content value back to a content state.
// Text equal to a sentinel is indistinguishable from the sentinel itself.
func ParseFileContent(value string) FileContent {
	switch value {
	case SentinelSkippedByName:
		return SkippedContent(ContentSkippedByName)
	case SentinelSkippedBySize:
		return SkippedContent(ContentSkippedBySize)
	case SentinelSkippedOrBinary:
		return SkippedContent(ContentSkippedOrBinary)
	default:
		return IncludedContent(value)
	}
}

// RootTree is the captured content of one scanned root directory.
type RootTree struct {
	RootLabel string
	Children  []TreeNode
}

// Document is a project name plus its root trees in input order.
type Document struct {
	ProjectName string
	Trees       []RootTree
}
