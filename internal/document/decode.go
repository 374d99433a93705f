package document

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/dir2yaml/internal/types"
)

const (
	errorDecodeFormat       = "decoding document: %w"
	errorUnknownTypeFormat  = "node %q has unknown type %q"
	errorMissingProjectText = "document has no project section"
)

type serializedDocument struct {
	Project *serializedProject `yaml:"project"`
}

type serializedProject struct {
	Name      string           `yaml:"name"`
	Structure []serializedRoot `yaml:"structure"`
}

type serializedRoot struct {
	Root     string           `yaml:"root"`
	Children []serializedNode `yaml:"children"`
}

type serializedNode struct {
	Type     string           `yaml:"type"`
	Name     string           `yaml:"name"`
	RelPath  string           `yaml:"rel_path"`
	Size     uint64           `yaml:"size"`
	Mtime    float64          `yaml:"mtime"`
	SHA256   *string          `yaml:"sha256"`
	Content  string           `yaml:"content"`
	Children []serializedNode `yaml:"children"`
}

// Decode parses a document produced by Write back into the typed model.
func Decode(reader io.Reader) (types.Document, error) {
	var decoded serializedDocument
	if decodeError := yaml.NewDecoder(reader).Decode(&decoded); decodeError != nil {
		return types.Document{}, fmt.Errorf(errorDecodeFormat, decodeError)
	}
	if decoded.Project == nil {
		return types.Document{}, fmt.Errorf(errorDecodeFormat, errors.New(errorMissingProjectText))
	}

	document := types.Document{
		ProjectName: decoded.Project.Name,
		Trees:       make([]types.RootTree, 0, len(decoded.Project.Structure)),
	}
	for _, root := range decoded.Project.Structure {
		children, childrenError := decodeChildren(root.Children)
		if childrenError != nil {
			return types.Document{}, fmt.Errorf(errorDecodeFormat, childrenError)
		}
		document.Trees = append(document.Trees, types.RootTree{RootLabel: root.Root, Children: children})
	}
	return document, nil
}

func decodeChildren(serializedChildren []serializedNode) ([]types.TreeNode, error) {
	children := make([]types.TreeNode, 0, len(serializedChildren))
	for _, child := range serializedChildren {
		switch child.Type {
		case types.NodeTypeDirectory:
			grandChildren, childrenError := decodeChildren(child.Children)
			if childrenError != nil {
				return nil, childrenError
			}
			children = append(children, &types.DirectoryNode{
				Name:         child.Name,
				RelativePath: child.RelPath,
				Children:     grandChildren,
			})
		case types.NodeTypeFile:
			fileNode := &types.FileNode{
				Name:         child.Name,
				RelativePath: child.RelPath,
				SizeBytes:    child.Size,
				ModifiedTime: child.Mtime,
				Content:      types.ParseFileContent(child.Content),
			}
			if child.SHA256 != nil {
				fileNode.ContentHash = *child.SHA256
			}
			children = append(children, fileNode)
		default:
			return nil, fmt.Errorf(errorUnknownTypeFormat, child.RelPath, child.Type)
		}
	}
	return children, nil
}
