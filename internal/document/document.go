// Package document renders snapshot trees as an ordered YAML document and
// reads such documents back.
package document

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/dir2yaml/internal/types"
)

const (
	indentWidth = 2

	// UnnamedProject is the project name used when no roots are known.
	UnnamedProject = "UnnamedProject"

	projectNameSeparator = "_"

	keyProject   = "project"
	keyName      = "name"
	keyStructure = "structure"
	keyRoot      = "root"
	keyChildren  = "children"
	keyType      = "type"
	keyRelPath   = "rel_path"
	keySize      = "size"
	keyMtime     = "mtime"
	keySHA256    = "sha256"
	keyContent   = "content"

	tagString = "!!str"
	tagInt    = "!!int"
	tagFloat  = "!!float"
	tagNull   = "!!null"

	errorEncodeFormat      = "encoding document: %w"
	errorUnknownNodeFormat = "unsupported tree node %T"
)

// Serialize renders the trees under projectName as YAML text.
func Serialize(trees []types.RootTree, projectName string) (string, error) {
	var buffer bytes.Buffer
	if writeError := Write(&buffer, types.Document{ProjectName: projectName, Trees: trees}); writeError != nil {
		return "", writeError
	}
	return buffer.String(), nil
}

// Write encodes document to writer. Keys keep their insertion order and
// non-ASCII text is written literally.
func Write(writer io.Writer, document types.Document) error {
	rootNode, buildError := documentNode(document)
	if buildError != nil {
		return fmt.Errorf(errorEncodeFormat, buildError)
	}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(indentWidth)
	if encodeError := encoder.Encode(rootNode); encodeError != nil {
		return fmt.Errorf(errorEncodeFormat, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(errorEncodeFormat, closeError)
	}
	return nil
}

// DefaultProjectName joins the root base names with underscores.
func DefaultProjectName(roots []string) string {
	if len(roots) == 0 {
		return UnnamedProject
	}
	names := make([]string, 0, len(roots))
	for _, root := range roots {
		names = append(names, filepath.Base(filepath.Clean(root)))
	}
	return strings.Join(names, projectNameSeparator)
}

func documentNode(document types.Document) (*yaml.Node, error) {
	structureNode := sequenceNode()
	for _, rootTree := range document.Trees {
		childrenNode, childrenError := childrenSequence(rootTree.Children)
		if childrenError != nil {
			return nil, childrenError
		}
		structureNode.Content = append(structureNode.Content, mappingNode(
			keyRoot, stringNode(rootTree.RootLabel),
			keyChildren, childrenNode,
		))
	}
	projectNode := mappingNode(
		keyName, stringNode(document.ProjectName),
		keyStructure, structureNode,
	)
	return mappingNode(keyProject, projectNode), nil
}

func childrenSequence(children []types.TreeNode) (*yaml.Node, error) {
	childrenNode := sequenceNode()
	for _, child := range children {
		childNode, childError := treeNode(child)
		if childError != nil {
			return nil, childError
		}
		childrenNode.Content = append(childrenNode.Content, childNode)
	}
	return childrenNode, nil
}

func treeNode(node types.TreeNode) (*yaml.Node, error) {
	switch typedNode := node.(type) {
	case *types.DirectoryNode:
		childrenNode, childrenError := childrenSequence(typedNode.Children)
		if childrenError != nil {
			return nil, childrenError
		}
		return mappingNode(
			keyType, stringNode(types.NodeTypeDirectory),
			keyName, stringNode(typedNode.Name),
			keyRelPath, stringNode(typedNode.RelativePath),
			keyChildren, childrenNode,
		), nil
	case *types.FileNode:
		return mappingNode(
			keyType, stringNode(types.NodeTypeFile),
			keyName, stringNode(typedNode.Name),
			keyRelPath, stringNode(typedNode.RelativePath),
			keySize, unsignedNode(typedNode.SizeBytes),
			keyMtime, floatNode(typedNode.ModifiedTime),
			keySHA256, optionalStringNode(typedNode.ContentHash),
			keyContent, stringNode(typedNode.Content.Value()),
		), nil
	default:
		return nil, fmt.Errorf(errorUnknownNodeFormat, node)
	}
}

// mappingNode builds a mapping from alternating string keys and value nodes.
func mappingNode(keysAndValues ...any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for index := 0; index+1 < len(keysAndValues); index += 2 {
		node.Content = append(node.Content, stringNode(keysAndValues[index].(string)), keysAndValues[index+1].(*yaml.Node))
	}
	return node
}

func sequenceNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{}}
}

// stringNode leaves multi-line text in literal style, except text opening with
// a line break: the literal header yaml.v3 emits for it loses that break on parse.
func stringNode(value string) *yaml.Node {
	node := &yaml.Node{}
	node.SetString(value)
	if strings.HasPrefix(value, "\n") {
		node.Style = yaml.DoubleQuotedStyle
	}
	return node
}

func optionalStringNode(value string) *yaml.Node {
	if value == "" {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
	}
	return stringNode(value)
}

func unsignedNode(value uint64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: strconv.FormatUint(value, 10)}
}

func floatNode(value float64) *yaml.Node {
	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(formatted, ".eE") {
		formatted += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagFloat, Value: formatted}
}
