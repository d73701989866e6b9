package parse

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/skill-split/skill-split/internal/section"
)

// symbolPattern is a per-language regex (with its language) tried
// against the start of a line to recognize a new top-level symbol.
// The patterns are anchored at the line start and only accept
// declaration forms (function/class/const-style bindings and the like),
// so an arrow function assigned as an object property (`foo: () => {}`)
// never matches. None of them uses lookaround.
type symbolPattern struct {
	re *regexp2.Regexp
}

var (
	pythonSymbolRe = mustRegexp2(`^(?:def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)

	jsSymbolRe = mustRegexp2(
		`^(?:export\s+(?:default\s+)?)?(?:async\s+)?(?:function\s*\*?\s+([A-Za-z_$][\w$]*)|class\s+([A-Za-z_$][\w$]*)|interface\s+([A-Za-z_$][\w$]*)|enum\s+([A-Za-z_$][\w$]*)|type\s+([A-Za-z_$][\w$]*)|namespace\s+([A-Za-z_$][\w$]*)|(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?(?:function|\([^)]*\)\s*=>)|exports\.([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?function)`,
	)

	shellSymbolRe = mustRegexp2(`^(?:function\s+([A-Za-z_][\w.:-]*)\s*(?:\(\s*\))?\s*\{?|([A-Za-z_][\w.:-]*)\s*\(\s*\)\s*\{?)`)
)

func mustRegexp2(pattern string) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.None)
	return re
}

func symbolName(m *regexp2.Match) string {
	for i := 1; i < len(m.Groups()); i++ {
		g := m.GroupByNumber(i)
		if g != nil && g.Length > 0 {
			return g.String()
		}
	}
	return ""
}

// ParseScript builds module/symbol/footer sections for a script_*
// format, per spec.md §4.5. Python symbols terminate when indentation
// returns to the symbol's own column; JS/TS and shell symbols
// terminate on brace-depth return to zero (tolerating a trailing `;`).
func ParseScript(format section.Format, content []byte) []*section.Section {
	lines := splitKeepEnds(content)

	type sym struct {
		name      string
		lineStart int
		indent    int
		braceDone bool // true once brace depth has returned to 0 at least once
		sawBrace  bool
	}

	var symbols []sym
	var lineBuilders []*strings.Builder
	var braceDepth int
	inSymbol := false

	isNewSymbol := func(line string) (string, bool) {
		lead := strings.TrimLeft(line, " \t")
		switch format {
		case section.FormatScriptPython:
			if m, _ := pythonSymbolRe.FindStringMatch(lead); m != nil {
				return symbolName(m), true
			}
		case section.FormatScriptJS, section.FormatScriptTS:
			if m, _ := jsSymbolRe.FindStringMatch(lead); m != nil {
				return symbolName(m), true
			}
		case section.FormatScriptShell:
			if m, _ := shellSymbolRe.FindStringMatch(lead); m != nil {
				return symbolName(m), true
			}
		}
		return "", false
	}

	indentOf := func(line string) int {
		n := 0
		for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
			n++
		}
		return n
	}

	var moduleBuilder strings.Builder
	var footerBuilder strings.Builder
	inFooter := false

	for lineNo := 1; lineNo <= len(lines); lineNo++ {
		raw := lines[lineNo-1]
		plain := strings.TrimRight(raw, "\r\n")

		if !inSymbol {
			if name, ok := isNewSymbol(plain); ok && !inFooter {
				symbols = append(symbols, sym{name: name, lineStart: lineNo, indent: indentOf(plain)})
				lineBuilders = append(lineBuilders, &strings.Builder{})
				lineBuilders[len(lineBuilders)-1].WriteString(raw)
				braceDepth = strings.Count(plain, "{") - strings.Count(plain, "}")
				inSymbol = true
				if format != section.FormatScriptPython && braceDepth <= 0 && strings.ContainsAny(plain, "{};") {
					// one-liner: `const x = () => {}` or a bare declaration ending in `;`
					inSymbol = false
				}
				continue
			}
			if len(symbols) == 0 {
				moduleBuilder.WriteString(raw)
			} else {
				footerBuilder.WriteString(raw)
				inFooter = true
			}
			continue
		}

		// inSymbol == true: decide whether this line still belongs to
		// the current symbol or starts a new one / the footer.
		cur := &symbols[len(symbols)-1]
		switch format {
		case section.FormatScriptPython:
			if strings.TrimSpace(plain) == "" {
				lineBuilders[len(lineBuilders)-1].WriteString(raw)
				continue
			}
			if indentOf(plain) <= cur.indent {
				// This line terminates the symbol; re-process it as a
				// fresh top-level line (module/footer/new-symbol).
				inSymbol = false
				lineNo--
				continue
			}
			lineBuilders[len(lineBuilders)-1].WriteString(raw)
		default:
			lineBuilders[len(lineBuilders)-1].WriteString(raw)
			braceDepth += strings.Count(plain, "{") - strings.Count(plain, "}")
			_ = cur
			if braceDepth <= 0 {
				inSymbol = false
			}
		}
	}

	root := make([]*section.Section, 0, len(symbols)+2)
	if moduleBuilder.Len() > 0 || len(symbols) == 0 {
		root = append(root, &section.Section{
			Kind:       section.SectionKindModule,
			Title:      "module",
			Content:    moduleBuilder.String(),
			OrderIndex: len(root),
			LineStart:  1,
		})
	}
	for i, s := range symbols {
		root = append(root, &section.Section{
			Kind:       section.SectionKindSymbol,
			Title:      s.name,
			Content:    lineBuilders[i].String(),
			OrderIndex: len(root),
			LineStart:  s.lineStart,
		})
	}
	if footerBuilder.Len() > 0 {
		root = append(root, &section.Section{
			Kind:       section.SectionKindFooter,
			Title:      "footer",
			Content:    footerBuilder.String(),
			OrderIndex: len(root),
		})
	}
	return root
}
