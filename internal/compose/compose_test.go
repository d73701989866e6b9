package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/recompose"
	"github.com/skill-split/skill-split/internal/store"
)

func newStoreFixture(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(db)

	content := []byte("# Setup\nInstall the dependencies.\n# Deploy\nRoll it out.\n")
	doc, err := parse.Parse("SKILL.md", content)
	require.NoError(t, err)
	sum := sha256.Sum256(content)
	doc.File.ContentHash = hex.EncodeToString(sum[:])
	_, err = s.StoreFile(doc, content)
	require.NoError(t, err)
	return s
}

func TestComposeProducesRoundTrippableDocument(t *testing.T) {
	s := newStoreFixture(t)
	_, secs, err := s.GetFile("SKILL.md")
	require.NoError(t, err)

	result, err := Compose(s, []string{secs[1].ID, secs[0].ID}, "OUT.md", Options{
		Title:       "Combined",
		Description: "assembled from two sections",
		Author:      "composer",
		Tags:        []string{"ops"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Hash)

	out, err := recompose.Verify(result.File, result.Sections)
	require.NoError(t, err)
	assert.Equal(t, result.Bytes, out)

	assert.Contains(t, string(result.Bytes), "title: Combined")
	assert.Contains(t, string(result.Bytes), "# Deploy")
	assert.Contains(t, string(result.Bytes), "# Setup")
}

func TestComposeHonorsCallerOrderNotOriginalOrder(t *testing.T) {
	s := newStoreFixture(t)
	_, secs, err := s.GetFile("SKILL.md")
	require.NoError(t, err)

	result, err := Compose(s, []string{secs[1].ID, secs[0].ID}, "OUT.md", Options{Title: "x"})
	require.NoError(t, err)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, "Deploy", result.Sections[0].Title)
	assert.Equal(t, "Setup", result.Sections[1].Title)
}

func TestComposeEmptyCompositionFails(t *testing.T) {
	s := newStoreFixture(t)
	_, err := Compose(s, nil, "OUT.md", Options{})
	require.Error(t, err)
}

func TestComposeUnknownSectionFails(t *testing.T) {
	s := newStoreFixture(t)
	_, err := Compose(s, []string{"does-not-exist"}, "OUT.md", Options{})
	require.Error(t, err)
}

func TestRebuildHierarchyKeepsEqualLevelsAsSiblings(t *testing.T) {
	s := newStoreFixture(t)
	_, secs, err := s.GetFile("SKILL.md")
	require.NoError(t, err)

	// Both originals are level 1; a section only nests under a
	// preceding one of strictly smaller level, so both stay at the root.
	result, err := Compose(s, []string{secs[0].ID, secs[1].ID}, "OUT.md", Options{Title: "x"})
	require.NoError(t, err)
	require.Len(t, result.Sections, 2)
	assert.Empty(t, result.Sections[0].Children)
}
