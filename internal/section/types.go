// Package section defines the File/Section data model shared by the
// parsers, the recomposer, and the store. Parsers produce value trees
// of these types; the store is the only thing that persists them.
package section

import "time"

// Kind enumerates what a File represents.
type Kind string

const (
	KindSkill         Kind = "skill"
	KindCommand       Kind = "command"
	KindReference     Kind = "reference"
	KindAgent         Kind = "agent"
	KindPlugin        Kind = "plugin"
	KindHook          Kind = "hook"
	KindOutputStyle   Kind = "output_style"
	KindConfig        Kind = "config"
	KindDocumentation Kind = "documentation"
	KindScript        Kind = "script"
)

// Format enumerates the parse strategy used for a File.
type Format string

const (
	FormatMarkdownHeadings Format = "markdown_headings"
	FormatXMLTags          Format = "xml_tags"
	FormatJSONUnit         Format = "json_unit"
	FormatScriptPython     Format = "script_python"
	FormatScriptJS         Format = "script_js"
	FormatScriptTS         Format = "script_ts"
	FormatScriptShell      Format = "script_shell"
)

// IsScript reports whether a format is one of the script_* variants.
func (f Format) IsScript() bool {
	switch f {
	case FormatScriptPython, FormatScriptJS, FormatScriptTS, FormatScriptShell:
		return true
	}
	return false
}

// SectionKind distinguishes the sentinel "level" values from genuine
// markdown heading depths, per spec.md §3's sentinel-level note and
// §9's suggestion to model it as its own enum instead of magic numbers.
type SectionKind string

const (
	SectionKindHeading SectionKind = "heading" // markdown_headings, level is 1..N (0 = synthetic leading section)
	SectionKindTag     SectionKind = "tag"     // xml_tags
	SectionKindSymbol  SectionKind = "symbol"  // script_* function/class/etc.
	SectionKindModule  SectionKind = "module"  // script_* leading bytes before first symbol
	SectionKindFooter  SectionKind = "footer"  // script_* trailing bytes after last symbol
	SectionKindUnit    SectionKind = "unit"    // json_unit (never actually materialized as a Section)
)

// File is a parsed, addressable source document.
type File struct {
	ID              string
	Path            string
	Kind            Kind
	Format          Format
	ContentHash     string // hex SHA-256 of the original bytes
	FrontmatterRaw  []byte // possibly empty; exact bytes including delimiters
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Section is an ordered, hierarchical node in a File's section tree.
type Section struct {
	ID                string
	FileID            string
	ParentID          string // empty string = root
	OrderIndex        int    // 0-based, dense within (FileID, ParentID)
	Kind              SectionKind
	Level             int // heading depth for SectionKindHeading; 0 for sentinels
	Title             string
	Content           string
	OpeningTagPrefix  string // xml_tags only: exact whitespace before <tag>
	ClosingTagPrefix  string // xml_tags only: exact whitespace before </tag>
	LineStart         int
	LineEnd           int
	FileType          Kind // denormalized, populated on read

	// ContentParts holds, for SectionKindTag sections only, the text
	// fragments interleaved between this section's children: len ==
	// len(Children)+1. A tag section's bytes may legally surround a
	// nested tag on either side ("intro<inner>x</inner>outro"), which a
	// single Content string cannot represent without losing the
	// children's position. Non-tag sections leave this nil and use
	// Content alone.
	ContentParts []string

	// Children is populated by parsers building an in-memory tree; the
	// store flattens it to (ParentID, OrderIndex) pairs on persist and
	// rebuilds it on read.
	Children []*Section
}

// Document is the full parse result for one File: the File metadata
// plus its ordered, hierarchical Sections (root-level only; use
// Section.Children to descend).
type Document struct {
	File     File
	Sections []*Section
}
