package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-split/skill-split/internal/section"
)

func TestExtractFrontmatter(t *testing.T) {
	content := []byte("---\ntitle: x\n---\nbody\n")
	raw, rest := ExtractFrontmatter(content)
	assert.Equal(t, "---\ntitle: x\n---\n", string(raw))
	assert.Equal(t, "body\n", string(rest))
}

func TestExtractFrontmatterAbsent(t *testing.T) {
	content := []byte("# heading\nbody\n")
	raw, rest := ExtractFrontmatter(content)
	assert.Empty(t, raw)
	assert.Equal(t, content, rest)
}

func TestDetectByExtension(t *testing.T) {
	det, err := Detect("SKILL.md", []byte("# Title\nbody\n"))
	require.NoError(t, err)
	assert.Equal(t, section.FormatMarkdownHeadings, det.Format)

	det, err = Detect("plugin.json", []byte(`{"name":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, section.FormatJSONUnit, det.Format)
	assert.Equal(t, section.KindPlugin, det.Kind)

	det, err = Detect("tool.py", []byte("def f():\n    pass\n"))
	require.NoError(t, err)
	assert.Equal(t, section.FormatScriptPython, det.Format)
}

func TestDetectSniffsXMLTags(t *testing.T) {
	det, err := Detect("command.md", []byte("<instructions>\ndo the thing\n</instructions>\n"))
	require.NoError(t, err)
	assert.Equal(t, section.FormatXMLTags, det.Format)
}

func TestParseMarkdownHierarchy(t *testing.T) {
	content := []byte("# One\nintro\n## Two\nnested\n# Three\nlast\n")
	secs := ParseMarkdown(content)
	require.Len(t, secs, 2)
	assert.Equal(t, "One", secs[0].Title)
	assert.Equal(t, 1, secs[0].Level)
	require.Len(t, secs[0].Children, 1)
	assert.Equal(t, "Two", secs[0].Children[0].Title)
	assert.Equal(t, 2, secs[0].Children[0].Level)
	assert.Equal(t, "Three", secs[1].Title)
}

func TestParseMarkdownFencedCodeIgnoresHeadings(t *testing.T) {
	content := []byte("# Real\n```\n# not a heading\n```\nmore\n")
	secs := ParseMarkdown(content)
	require.Len(t, secs, 1)
	assert.Equal(t, "Real", secs[0].Title)
	assert.Contains(t, secs[0].Content, "# not a heading")
}

func TestParseMarkdownLeadingContent(t *testing.T) {
	content := []byte("preamble text\n# First\nbody\n")
	secs := ParseMarkdown(content)
	require.Len(t, secs, 2)
	assert.Equal(t, 0, secs[0].Level)
	assert.Equal(t, "preamble text\n", secs[0].Content)
}

func TestParseXMLTagsNesting(t *testing.T) {
	content := []byte("<outer>\n  <inner>\n    body\n  </inner>\n</outer>\n")
	secs := ParseXMLTags(content)
	require.Len(t, secs, 1)
	assert.Equal(t, "outer", secs[0].Title)
	require.Len(t, secs[0].Children, 1)
	assert.Equal(t, "inner", secs[0].Children[0].Title)
	assert.Equal(t, "    body\n", secs[0].Children[0].Content)
	assert.Equal(t, "  ", secs[0].Children[0].ClosingTagPrefix)
}

func TestParseScriptPython(t *testing.T) {
	content := []byte("import os\n\ndef foo():\n    return 1\n\n\ndef bar():\n    return 2\n")
	secs := ParseScript(section.FormatScriptPython, content)
	require.Len(t, secs, 3)
	assert.Equal(t, "module", secs[0].Title)
	assert.Equal(t, "foo", secs[1].Title)
	assert.Equal(t, "bar", secs[2].Title)
}

func TestParseScriptJSBraceDepth(t *testing.T) {
	content := []byte("function foo() {\n  if (true) {\n    return 1;\n  }\n}\nconst x = 1;\n")
	secs := ParseScript(section.FormatScriptJS, content)
	require.GreaterOrEqual(t, len(secs), 2)
	var foundFoo bool
	for _, s := range secs {
		if s.Title == "foo" {
			foundFoo = true
			assert.Contains(t, s.Content, "return 1;")
		}
	}
	assert.True(t, foundFoo)
}

func TestParseNoSymbolsIsSingleModule(t *testing.T) {
	content := []byte("echo hello\nexit 0\n")
	secs := ParseScript(section.FormatScriptShell, content)
	require.Len(t, secs, 1)
	assert.Equal(t, "module", secs[0].Title)
	assert.Equal(t, string(content), secs[0].Content)
}

func TestParseJSONUnitIsOpaque(t *testing.T) {
	content := []byte(`{"name": "demo", "nested": {"a": 1}}`)
	doc, err := Parse("plugin.json", content)
	require.NoError(t, err)
	assert.Empty(t, doc.Sections)
	assert.Equal(t, content, doc.File.FrontmatterRaw)
}

func TestParseEndToEndMarkdownWithFrontmatter(t *testing.T) {
	content := []byte("---\nname: demo\n---\n# Title\nbody\n")
	doc, err := Parse("SKILL.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "---\nname: demo\n---\n", string(doc.File.FrontmatterRaw))
	assert.Equal(t, "Title", doc.Sections[0].Title)
}
