// Package compose assembles a new markdown_headings File from an
// ordered list of existing section ids, generating fresh frontmatter
// the way the teacher's internal/skills/skillmd.go emits SKILL.md
// metadata, and rebuilding hierarchy with the monotonic-stack
// technique.
package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/recompose"
	"github.com/skill-split/skill-split/internal/section"
)

// SectionLookup resolves a section id to its Section and owning File,
// the minimal read surface the Composer needs from the Store.
type SectionLookup interface {
	GetSection(id string) (*section.Section, error)
	FilePathOf(fileID string) (string, error)
}

// Options carries the caller-supplied metadata overrides for
// Compose, per spec.md §4.10 item 2.
type Options struct {
	Title       string
	Description string
	Author      string
	Tags        []string
}

// Result is a composed document ready to be written to disk or
// passed to Store.StoreFile.
type Result struct {
	File     section.File
	Sections []*section.Section
	Bytes    []byte
	Hash     string
}

// frontmatterDoc is marshaled with yaml.v3 to produce the frontmatter
// block; field order here is field declaration order, which yaml.v3
// preserves.
type frontmatterDoc struct {
	Title            string   `yaml:"title"`
	Description      string   `yaml:"description,omitempty"`
	Author           string   `yaml:"author,omitempty"`
	CreatedAt        string   `yaml:"created_at"`
	SourceFiles      []string `yaml:"source_files"`
	SourceSectionIDs []string `yaml:"source_section_ids"`
	Tags             []string `yaml:"tags,omitempty"`
}

// Compose assembles path out of the given section ids in the order
// supplied (order_index from the originals is explicitly ignored),
// rebuilds a hierarchy by scanning level (each section becomes a child
// of the nearest preceding section with strictly smaller level, root
// otherwise), generates frontmatter, serializes, and computes the
// result's SHA-256 content hash.
func Compose(lookup SectionLookup, ids []string, targetPath string, opts Options) (Result, error) {
	if len(ids) == 0 {
		return Result{}, diag.New(diag.KindInvariantViolation, "compose", targetPath, errEmptyComposition{})
	}

	secs := make([]*section.Section, 0, len(ids))
	sourceFiles := map[string]struct{}{}
	kindCounts := map[section.Kind]int{}

	for _, id := range ids {
		sec, err := lookup.GetSection(id)
		if err != nil {
			return Result{}, diag.New(diag.KindNotFound, "compose", id, err)
		}
		secs = append(secs, cloneForComposition(sec))
		if sec.FileType != "" {
			kindCounts[sec.FileType]++
		}
		if path, err := lookup.FilePathOf(sec.FileID); err == nil {
			sourceFiles[path] = struct{}{}
		}
	}

	roots := rebuildHierarchy(secs)

	frontmatterBytes, err := buildFrontmatter(opts, sourceFilesList(sourceFiles), ids)
	if err != nil {
		return Result{}, diag.New(diag.KindIOFailure, "compose", targetPath, err)
	}

	// Verify the generated frontmatter itself round-trips through the
	// Frontmatter Extractor, per spec.md §4.10 item 2.
	extractedRaw, _ := parse.ExtractFrontmatter(frontmatterBytes)
	if len(extractedRaw) != len(frontmatterBytes) {
		return Result{}, diag.New(diag.KindInvariantViolation, "compose", targetPath, errFrontmatterRoundTrip{})
	}

	file := section.File{
		Path:           targetPath,
		Kind:           dominantKind(kindCounts),
		Format:         section.FormatMarkdownHeadings,
		FrontmatterRaw: frontmatterBytes,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	out, err := recompose.Recompose(file, roots)
	if err != nil {
		return Result{}, err
	}

	sum := sha256.Sum256(out)
	file.ContentHash = hex.EncodeToString(sum[:])

	return Result{File: file, Sections: roots, Bytes: out, Hash: file.ContentHash}, nil
}

func cloneForComposition(sec *section.Section) *section.Section {
	clone := *sec
	clone.Children = nil
	clone.ParentID = ""
	clone.ID = ""
	return &clone
}

// rebuildHierarchy assigns Children using a monotonic stack over the
// caller-supplied order: each section becomes a child of the nearest
// preceding section with strictly smaller level, or a root if none
// qualifies, per spec.md §4.10 item 1.
func rebuildHierarchy(ordered []*section.Section) []*section.Section {
	var root []*section.Section
	var stack []*section.Section

	for _, sec := range ordered {
		for len(stack) > 0 && stack[len(stack)-1].Level >= sec.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			sec.OrderIndex = len(root)
			root = append(root, sec)
		} else {
			parent := stack[len(stack)-1]
			sec.OrderIndex = len(parent.Children)
			parent.Children = append(parent.Children, sec)
		}
		stack = append(stack, sec)
	}
	return root
}

func buildFrontmatter(opts Options, sourceFiles []string, sectionIDs []string) ([]byte, error) {
	doc := frontmatterDoc{
		Title:            opts.Title,
		Description:      opts.Description,
		Author:           opts.Author,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
		SourceFiles:      sourceFiles,
		SourceSectionIDs: sectionIDs,
		Tags:             opts.Tags,
	}
	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := append([]byte("---\n"), body...)
	out = append(out, []byte("---\n")...)
	return out, nil
}

func sourceFilesList(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func dominantKind(counts map[section.Kind]int) section.Kind {
	var best section.Kind
	bestN := -1
	for k, n := range counts {
		if n > bestN {
			best, bestN = k, n
		}
	}
	if best == "" {
		return section.KindDocumentation
	}
	return best
}

type errEmptyComposition struct{}

func (errEmptyComposition) Error() string { return "no section ids supplied" }

type errFrontmatterRoundTrip struct{}

func (errFrontmatterRoundTrip) Error() string { return "generated frontmatter failed to round-trip" }
