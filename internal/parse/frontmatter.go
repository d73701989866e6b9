package parse

import "regexp"

// frontmatterRegex matches a leading `---` fenced block. Grounded on the
// teacher's internal/skills/skillmd.go frontmatterRegex, generalized
// from SKILL.md only to any file. The block is treated as opaque bytes:
// we never unmarshal it here, so round-trip holds even for malformed
// YAML inside it.
var frontmatterRegex = regexp.MustCompile(`(?s)^---[ \t]*\r?\n(.*?\r?\n)?---[ \t]*\r?\n`)

// ExtractFrontmatter splits content into its leading frontmatter block
// (including both delimiter lines and the trailing newline) and the
// remainder. If content does not begin with a well-formed `---` fence,
// raw is empty and remainder is the full input.
func ExtractFrontmatter(content []byte) (raw []byte, remainder []byte) {
	loc := frontmatterRegex.FindIndex(content)
	if loc == nil || loc[0] != 0 {
		return nil, content
	}
	return content[:loc[1]], content[loc[1]:]
}
