package document_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/dir2yaml/internal/document"
	"github.com/temirov/dir2yaml/internal/snapshot"
	"github.com/temirov/dir2yaml/internal/types"
)

const sampleHash = "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"

func sampleTrees() []types.RootTree {
	return []types.RootTree{
		{
			RootLabel: "proj",
			Children: []types.TreeNode{
				&types.FileNode{
					Name:         "a.txt",
					RelativePath: "a.txt",
					SizeBytes:    2,
					ModifiedTime: 1700000000.5,
					ContentHash:  sampleHash,
					Content:      types.IncludedContent("hi"),
				},
				&types.DirectoryNode{Name: ".git", RelativePath: ".git", Children: []types.TreeNode{}},
				&types.DirectoryNode{
					Name:         "docs",
					RelativePath: "docs",
					Children: []types.TreeNode{
						&types.FileNode{
							Name:         "readme.md",
							RelativePath: "docs/readme.md",
							SizeBytes:    24,
							ModifiedTime: 1700000001,
							ContentHash:  sampleHash,
							Content:      types.IncludedContent("# 日本語\nline two\n"),
						},
						&types.FileNode{
							Name:         ".env",
							RelativePath: "docs/.env",
							SizeBytes:    5,
							ModifiedTime: 0,
							Content:      types.SkippedContent(types.ContentSkippedByName),
						},
					},
				},
			},
		},
		{RootLabel: "second", Children: []types.TreeNode{}},
	}
}

func mappingKeys(node *yaml.Node) []string {
	var keys []string
	for index := 0; index+1 < len(node.Content); index += 2 {
		keys = append(keys, node.Content[index].Value)
	}
	return keys
}

func TestSerializePreservesKeyOrder(t *testing.T) {
	text, serializeError := document.Serialize(sampleTrees(), "demo")
	require.NoError(t, serializeError)

	var parsed yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &parsed))
	rootMapping := parsed.Content[0]
	assert.Equal(t, []string{"project"}, mappingKeys(rootMapping))

	projectMapping := rootMapping.Content[1]
	assert.Equal(t, []string{"name", "structure"}, mappingKeys(projectMapping))

	structure := projectMapping.Content[3]
	require.Len(t, structure.Content, 2)
	firstRoot := structure.Content[0]
	assert.Equal(t, []string{"root", "children"}, mappingKeys(firstRoot))

	children := firstRoot.Content[3]
	require.Len(t, children.Content, 3)
	assert.Equal(t, []string{"type", "name", "rel_path", "size", "mtime", "sha256", "content"}, mappingKeys(children.Content[0]))
	assert.Equal(t, []string{"type", "name", "rel_path", "children"}, mappingKeys(children.Content[1]))
}

func TestSerializeRendersScalars(t *testing.T) {
	text, serializeError := document.Serialize(sampleTrees(), "demo")
	require.NoError(t, serializeError)

	assert.True(t, strings.HasPrefix(text, "project:\n"))
	for _, expectedFragment := range []string{
		"name: demo",
		"root: proj",
		"size: 2",
		"mtime: 1700000000.5",
		"mtime: 1700000001.0",
		"mtime: 0.0",
		"sha256: " + sampleHash,
		"sha256: null",
		"content: hi",
		"children: []",
		"# 日本語",
		"content: " + "'" + types.SentinelSkippedByName + "'",
	} {
		assert.Contains(t, text, expectedFragment)
	}
	assert.NotContains(t, text, "\\u")
}

func TestSerializeIsIdempotent(t *testing.T) {
	first, firstError := document.Serialize(sampleTrees(), "demo")
	require.NoError(t, firstError)
	second, secondError := document.Serialize(sampleTrees(), "demo")
	require.NoError(t, secondError)
	assert.Equal(t, first, second)
}

func TestSerializeRoundTrip(t *testing.T) {
	trees := sampleTrees()
	text, serializeError := document.Serialize(trees, "demo")
	require.NoError(t, serializeError)

	decoded, decodeError := document.Decode(strings.NewReader(text))
	require.NoError(t, decodeError)
	assert.Equal(t, types.Document{ProjectName: "demo", Trees: trees}, decoded)
}

func TestSerializeRoundTripsAwkwardStrings(t *testing.T) {
	awkwardValues := []string{
		"",
		"true",
		"123",
		"null",
		"- item",
		"key: value",
		"  leading spaces\n",
		"trailing spaces   \nnext",
		"tabs\tand\r\nwindows",
		"\n\nblank lines first",
		"\n",
		"\n\n",
		"\n\nx",
		"\n x",
		"ends with many newlines\n\n\n",
		"#comment",
		"quote ' and \" mix",
		"emoji 🚀 and accents é",
		"[SKIPPED by name] is text here",
	}
	children := make([]types.TreeNode, 0, len(awkwardValues))
	for index, value := range awkwardValues {
		children = append(children, &types.FileNode{
			Name:         value,
			RelativePath: "dir/" + value,
			SizeBytes:    uint64(index),
			ModifiedTime: float64(index) + 0.125,
			ContentHash:  sampleHash,
			Content:      types.IncludedContent(value),
		})
	}
	trees := []types.RootTree{{RootLabel: "weird: root", Children: children}}

	text, serializeError := document.Serialize(trees, "project: with colon")
	require.NoError(t, serializeError)
	decoded, decodeError := document.Decode(strings.NewReader(text))
	require.NoError(t, decodeError)
	assert.Equal(t, types.Document{ProjectName: "project: with colon", Trees: trees}, decoded)
}

func TestSerializeQuotesTextOpeningWithLineBreak(t *testing.T) {
	trees := []types.RootTree{{RootLabel: "root", Children: []types.TreeNode{&types.FileNode{
		Name:         "blank.txt",
		RelativePath: "blank.txt",
		ContentHash:  sampleHash,
		Content:      types.IncludedContent("\n\nbody\n"),
	}}}}

	text, serializeError := document.Serialize(trees, "quoted")
	require.NoError(t, serializeError)
	assert.Contains(t, text, `content: "\n\nbody\n"`)

	decoded, decodeError := document.Decode(strings.NewReader(text))
	require.NoError(t, decodeError)
	assert.Equal(t, trees, decoded.Trees)
}

func TestSerializeEmptyDocument(t *testing.T) {
	text, serializeError := document.Serialize(nil, "empty")
	require.NoError(t, serializeError)
	assert.Equal(t, "project:\n  name: empty\n  structure: []\n", text)
}

func TestSerializeBuiltTreeRoundTrip(t *testing.T) {
	rootDirectory := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(rootDirectory, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rootDirectory, "src", "main.go"), []byte("package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rootDirectory, ".env"), []byte("TOKEN"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(rootDirectory, ".git"), 0o755))

	trees := snapshot.Build([]string{rootDirectory}, nil, nil, nil)
	text, serializeError := document.Serialize(trees, document.DefaultProjectName([]string{rootDirectory}))
	require.NoError(t, serializeError)

	decoded, decodeError := document.Decode(strings.NewReader(text))
	require.NoError(t, decodeError)
	assert.Equal(t, "proj", decoded.ProjectName)
	assert.Equal(t, trees, decoded.Trees)
}

func TestDecodeRejectsUnknownNodeType(t *testing.T) {
	input := "project:\n  name: x\n  structure:\n    - root: r\n      children:\n        - type: socket\n          name: s\n"
	_, decodeError := document.Decode(strings.NewReader(input))
	assert.Error(t, decodeError)

	_, missingError := document.Decode(strings.NewReader("other: 1\n"))
	assert.Error(t, missingError)
}

func TestDefaultProjectName(t *testing.T) {
	testCases := []struct {
		name     string
		roots    []string
		expected string
	}{
		{name: "no roots", roots: nil, expected: document.UnnamedProject},
		{name: "single root", roots: []string{"/work/alpha/"}, expected: "alpha"},
		{name: "several roots", roots: []string{"/work/alpha", "/srv/beta"}, expected: "alpha_beta"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, document.DefaultProjectName(filepathSlice(testCase.roots)))
		})
	}
}

func filepathSlice(roots []string) []string {
	converted := make([]string, 0, len(roots))
	for _, root := range roots {
		converted = append(converted, filepath.FromSlash(root))
	}
	return converted
}
