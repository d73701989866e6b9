package query

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-split/skill-split/internal/parse"
	"github.com/skill-split/skill-split/internal/store"
)

func newTestLayer(t *testing.T) (*Layer, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := store.New(db)
	return New(s, nil), s
}

func storeFixture(t *testing.T, s *store.Store, path string, content []byte) {
	t.Helper()
	doc, err := parse.Parse(path, content)
	require.NoError(t, err)
	sum := sha256.Sum256(content)
	doc.File.ContentHash = hex.EncodeToString(sum[:])
	_, err = s.StoreFile(doc, content)
	require.NoError(t, err)
}

func TestSearchDelegatesToStore(t *testing.T) {
	l, s := newTestLayer(t)
	storeFixture(t, s, "SKILL.md", []byte("# Deploy\nRoll out the kubernetes cluster.\n# Bake\nmix flour and water.\n"))

	results, err := l.Search("kubernetes", "", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Deploy", results[0].Title)
}

func TestHybridDegradesToTextWithoutEmbedder(t *testing.T) {
	l, s := newTestLayer(t)
	storeFixture(t, s, "SKILL.md", []byte("# Deploy\nRoll out the kubernetes cluster.\n"))

	results, err := l.Hybrid("kubernetes", 0.7, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Deploy", results[0].Title)
}

type fakeEmbedder struct {
	vec   []float32
	model string
}

func (f fakeEmbedder) EmbedQuery(string) ([]float32, error) { return f.vec, nil }
func (f fakeEmbedder) ModelName() string                    { return f.model }

func TestHybridFusesVectorAndText(t *testing.T) {
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer db.Close()
	s := store.New(db)

	storeFixture(t, s, "SKILL.md", []byte("# Deploy\nRoll out the kubernetes cluster.\n# Bake\nmix flour and water.\n"))
	_, secs, err := s.GetFile("SKILL.md")
	require.NoError(t, err)

	require.NoError(t, s.PutSectionEmbedding(secs[0].ID, "fake", []float32{1, 0}))
	require.NoError(t, s.PutSectionEmbedding(secs[1].ID, "fake", []float32{0, 1}))

	l := New(s, fakeEmbedder{vec: []float32{1, 0}, model: "fake"})
	results, err := l.Hybrid("kubernetes", 0.7, 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Deploy", results[0].Title)
}

func TestProgressiveDisclosure(t *testing.T) {
	l, s := newTestLayer(t)
	storeFixture(t, s, "SKILL.md", []byte("# One\nintro\n## Child\nbody\n"))
	_, secs, err := s.GetFile("SKILL.md")
	require.NoError(t, err)

	sec, err := l.GetSection(secs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "One", sec.Title)

	child, err := l.Next(secs[0].ID, true)
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "Child", child.Title)
}
