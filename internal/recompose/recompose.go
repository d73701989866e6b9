// Package recompose reassembles a File's Sections back into the exact
// original byte sequence. It is the load-bearing half of the
// round-trip law: the Store verifies Recompose's output against the
// File's SHA-256 content hash before accepting it,
// grounded on the teacher's pervasive use of crypto/sha256 in
// internal/memory/content_store.go's hashContent.
package recompose

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/section"
)

// Recompose serializes a File + its ordered Sections back to bytes,
// dispatching on format per spec.md §4.7.
func Recompose(file section.File, sections []*section.Section) ([]byte, error) {
	var body strings.Builder

	switch file.Format {
	case section.FormatJSONUnit:
		return file.FrontmatterRaw, nil

	case section.FormatMarkdownHeadings:
		body.Write(file.FrontmatterRaw)
		writeMarkdown(&body, sections)

	case section.FormatXMLTags:
		body.Write(file.FrontmatterRaw)
		writeXMLTags(&body, sections)

	case section.FormatScriptPython, section.FormatScriptJS, section.FormatScriptTS, section.FormatScriptShell:
		body.Write(file.FrontmatterRaw)
		for _, s := range sections {
			body.WriteString(s.Content)
		}

	default:
		return nil, diag.New(diag.KindUnsupportedFormat, "recompose", file.Path, nil)
	}

	return []byte(body.String()), nil
}

func writeMarkdown(w *strings.Builder, sections []*section.Section) {
	for _, s := range sections {
		if s.Level > 0 {
			w.WriteString(strings.Repeat("#", s.Level))
			w.WriteString(" ")
			w.WriteString(s.Title)
			w.WriteString("\n")
		}
		w.WriteString(s.Content)
		writeMarkdown(w, s.Children)
	}
}

func writeXMLTags(w *strings.Builder, sections []*section.Section) {
	for _, s := range sections {
		w.WriteString(s.OpeningTagPrefix)
		w.WriteString("<")
		w.WriteString(s.Title)
		w.WriteString(">\n")

		parts := s.ContentParts
		if len(parts) == 0 {
			// No children: the whole body is a single fragment.
			parts = []string{s.Content}
		}
		for i, child := range s.Children {
			w.WriteString(parts[i])
			writeXMLTags(w, []*section.Section{child})
		}
		w.WriteString(parts[len(parts)-1])

		w.WriteString(s.ClosingTagPrefix)
		w.WriteString("</")
		w.WriteString(s.Title)
		w.WriteString(">\n")
	}
}

// Verify recomposes file+sections and compares the SHA-256 of the
// result against file.ContentHash, raising RoundTripViolation on
// mismatch per spec.md §4.7 and invariant I1.
func Verify(file section.File, sections []*section.Section) ([]byte, error) {
	out, err := Recompose(file, sections)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(out)
	got := hex.EncodeToString(sum[:])
	if got != file.ContentHash {
		return out, diag.New(diag.KindRoundTripViolation, "recompose_verify", file.Path, nil)
	}
	return out, nil
}
