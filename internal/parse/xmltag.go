package parse

import (
	"regexp"
	"strings"

	"github.com/skill-split/skill-split/internal/section"
)

// openTagRe matches a top-of-line opening tag like `<instructions>` or
// `<step name="1">`. Self-closing tags (`<br/>`) and closing tags
// (`</foo>`) are excluded on purpose: those never start a section.
var openTagRe = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9_-]*)((?:\s+[a-zA-Z0-9_-]+(?:="[^"]*"|='[^']*')?)*)\s*>`)

var closeTagRe = regexp.MustCompile(`^(\s*)</([a-zA-Z][a-zA-Z0-9_-]*)\s*>`)

// openingTagName returns the tag name if line opens with an XML-style
// tag, or "" otherwise. Self-closing tags do not count.
func openingTagName(line string) string {
	if strings.HasPrefix(line, "</") {
		return ""
	}
	m := openTagRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	if strings.HasSuffix(strings.TrimSpace(line[:len(m[0])]), "/>") {
		return ""
	}
	return m[1]
}

// ParseXMLTags builds the section hierarchy for a FormatXMLTags file.
// Tags are matched purely by name at the start of a line — this is not
// a general XML parser, it is a structural scanner over a small,
// predictable set of skill markup tags (<instructions>, <step>, ...),
// grounded on the teacher's internal/skills dual-format convention of
// tolerating hand-written, not-quite-XML skill files.
//
// A section's bytes may legally surround a nested tag on either side
// ("intro<inner>x</inner>outro"), so each frame tracks its content as
// a growing list of fragments rather than one string: one fragment per
// gap between children, finalized into Section.ContentParts on close.
func ParseXMLTags(content []byte) []*section.Section {
	lines := splitKeepEnds(content)

	type frame struct {
		sec      *section.Section
		name     string
		fragment *strings.Builder
		parts    []string
	}
	var root []*section.Section
	var stack []frame

	appendChild := func(sec *section.Section) {
		if len(stack) == 0 {
			sec.OrderIndex = len(root)
			root = append(root, sec)
			return
		}
		parent := &stack[len(stack)-1]
		sec.OrderIndex = len(parent.sec.Children)
		parent.sec.Children = append(parent.sec.Children, sec)
		// The fragment accumulated so far belongs before this child.
		parent.parts = append(parent.parts, parent.fragment.String())
		parent.fragment = &strings.Builder{}
	}

	lineNo := 0
	for _, raw := range lines {
		lineNo++
		trimmed := strings.TrimRight(raw, "\r\n")
		lead := strings.TrimLeft(trimmed, " \t")

		if name := openingTagName(lead); name != "" {
			prefix := trimmed[:len(trimmed)-len(lead)]
			sec := &section.Section{
				Kind:             section.SectionKindTag,
				Title:            name,
				OpeningTagPrefix: prefix,
				LineStart:        lineNo,
			}
			appendChild(sec)
			stack = append(stack, frame{sec: sec, name: name, fragment: &strings.Builder{}})
			continue
		}

		if m := closeTagRe.FindStringSubmatch(trimmed); m != nil && len(stack) > 0 && stack[len(stack)-1].name == m[2] {
			top := &stack[len(stack)-1]
			top.parts = append(top.parts, top.fragment.String())
			top.sec.ContentParts = top.parts
			top.sec.Content = strings.Join(top.parts, "")
			top.sec.ClosingTagPrefix = m[1]
			top.sec.LineEnd = lineNo
			stack = stack[:len(stack)-1]
			continue
		}

		if len(stack) > 0 {
			stack[len(stack)-1].fragment.WriteString(raw)
		}
	}

	// Unclosed tags at EOF: close them where the content ends, rather
	// than dropping their accumulated body.
	for i := len(stack) - 1; i >= 0; i-- {
		top := &stack[i]
		top.parts = append(top.parts, top.fragment.String())
		top.sec.ContentParts = top.parts
		top.sec.Content = strings.Join(top.parts, "")
		top.sec.LineEnd = lineNo
	}

	return root
}
