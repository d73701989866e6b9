package parse

import (
	"path/filepath"
	"strings"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/section"
)

// Detection is the output of the Format Detector: what kind of file
// this is and which parse strategy applies to it.
type Detection struct {
	Kind   section.Kind
	Format section.Format
}

// jsonKindByName maps well-known JSON config filenames to a Kind,
// grounded on the teacher's manifest.json / SKILL.md precedence idiom
// in internal/skills/loader.go.
var jsonKindByName = map[string]section.Kind{
	"plugin.json": section.KindPlugin,
	"hooks.json":  section.KindHook,
	"manifest.json": section.KindPlugin,
}

// Detect decides {kind, format} from a path and up to the first 8KiB of
// its content, per spec.md §4.1's decision order: extension first, then
// content sniffing when the extension is ambiguous.
func Detect(path string, head []byte) (Detection, error) {
	if len(head) > 8192 {
		head = head[:8192]
	}
	base := strings.ToLower(filepath.Base(path))
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		return Detection{Kind: jsonKind(base), Format: section.FormatJSONUnit}, nil
	case ".py":
		return Detection{Kind: section.KindScript, Format: section.FormatScriptPython}, nil
	case ".js", ".mjs", ".cjs":
		return Detection{Kind: section.KindScript, Format: section.FormatScriptJS}, nil
	case ".ts", ".tsx":
		return Detection{Kind: section.KindScript, Format: section.FormatScriptTS}, nil
	case ".sh", ".bash", ".zsh":
		return Detection{Kind: section.KindScript, Format: section.FormatScriptShell}, nil
	case ".md", ".markdown":
		if looksLikeXMLTags(head) {
			return Detection{Kind: defaultKindForXML(base), Format: section.FormatXMLTags}, nil
		}
		return Detection{Kind: section.KindDocumentation, Format: section.FormatMarkdownHeadings}, nil
	}

	// No recognized extension: sniff content before giving up.
	if looksLikeXMLTags(head) {
		return Detection{Kind: section.KindReference, Format: section.FormatXMLTags}, nil
	}
	if len(strings.TrimSpace(string(head))) > 0 {
		return Detection{Kind: section.KindDocumentation, Format: section.FormatMarkdownHeadings}, nil
	}

	return Detection{}, diag.New(diag.KindUnsupportedFormat, "detect", path, nil)
}

func jsonKind(base string) section.Kind {
	if k, ok := jsonKindByName[base]; ok {
		return k
	}
	if strings.HasSuffix(base, ".mcp.json") {
		return section.KindConfig
	}
	return section.KindConfig
}

func defaultKindForXML(base string) section.Kind {
	switch {
	case strings.Contains(base, "command"):
		return section.KindCommand
	case strings.Contains(base, "agent"):
		return section.KindAgent
	case strings.Contains(base, "output"):
		return section.KindOutputStyle
	default:
		return section.KindSkill
	}
}

// looksLikeXMLTags reports whether the first non-blank, non-frontmatter
// line at depth 0 opens with a lowercase tag name, per spec.md §4.1's
// sniffing rule.
func looksLikeXMLTags(head []byte) bool {
	_, body := ExtractFrontmatter(head)
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if name := openingTagName(trimmed); name != "" {
			return name == strings.ToLower(name)
		}
		return false
	}
	return false
}
