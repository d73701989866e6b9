package parse

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/section"
)

// Parse runs format detection, frontmatter extraction, and the
// matching structural parser over content, producing an in-memory
// Document ready for the Store. path drives detection and is recorded
// as the Document's File.Path; nothing is persisted here.
func Parse(path string, content []byte) (section.Document, error) {
	head := content
	det, err := Detect(path, head)
	if err != nil {
		return section.Document{}, err
	}

	sum := sha256.Sum256(content)
	file := section.File{
		Path:        path,
		Kind:        det.Kind,
		Format:      det.Format,
		ContentHash: hex.EncodeToString(sum[:]),
	}

	if det.Format == section.FormatJSONUnit {
		raw, err := ParseJSONUnit(content)
		if err != nil {
			return section.Document{}, diag.New(diag.KindParseError, "parse", path, err)
		}
		file.FrontmatterRaw = raw
		return section.Document{File: file, Sections: nil}, nil
	}

	raw, remainder := ExtractFrontmatter(content)
	file.FrontmatterRaw = raw

	var sections []*section.Section
	switch det.Format {
	case section.FormatMarkdownHeadings:
		sections = ParseMarkdown(remainder)
	case section.FormatXMLTags:
		sections = ParseXMLTags(remainder)
	case section.FormatScriptPython, section.FormatScriptJS, section.FormatScriptTS, section.FormatScriptShell:
		sections = ParseScript(det.Format, remainder)
	default:
		return section.Document{}, diag.New(diag.KindUnsupportedFormat, "parse", path, nil)
	}

	assignOrder(sections)
	return section.Document{File: file, Sections: sections}, nil
}

// assignOrder recursively sets dense, gap-free OrderIndex values, per
// spec.md §3 invariant I2 — parsers append in encounter order but a
// defensive re-numbering keeps the invariant true regardless of how a
// given parser built its slice.
func assignOrder(secs []*section.Section) {
	for i, s := range secs {
		s.OrderIndex = i
		assignOrder(s.Children)
	}
}
