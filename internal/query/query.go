// Package query is the thin facade spec.md §4.9 describes: progressive
// disclosure and ranked/hybrid search delegating to the Store.
// Grounded on internal/memory/hybrid.go's HybridSearcher /
// VectorSearcher / FTSSearcher interfaces and fetch-then-merge
// structure (here the text and vector fetches run one after the
// other), adapted from that file's RRF fusion to the weighted-sum
// fusion this spec mandates.
package query

import (
	"sort"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/section"
	"github.com/skill-split/skill-split/internal/store"
)

// Embedder produces a single query embedding, used by Hybrid to place
// the user's text into the same vector space as stored sections.
type Embedder interface {
	EmbedQuery(text string) ([]float32, error)
	ModelName() string
}

// Result is a ranked text-search hit.
type Result struct {
	SectionID string
	Score     float64
	Title     string
	Level     int
	FilePath  string
}

// Layer is the query facade over one Store.
type Layer struct {
	store    *store.Store
	embedder Embedder // nil when no embedding provider is configured
}

// New builds a Layer. embedder may be nil; hybrid search then always
// degrades to pure text.
func New(s *store.Store, embedder Embedder) *Layer {
	return &Layer{store: s, embedder: embedder}
}

// GetSection retrieves one section by id.
func (l *Layer) GetSection(id string) (*section.Section, error) {
	return l.store.GetSection(id)
}

// Next implements progressive disclosure.
func (l *Layer) Next(id string, firstChild bool) (*section.Section, error) {
	return l.store.GetNextSection(id, firstChild)
}

// Search runs ranked BM25 text search, optionally scoped to one file.
func (l *Layer) Search(query string, filePath string, limit int) ([]Result, error) {
	hits, err := l.store.SearchSectionsRanked(query, filePath, limit)
	if err != nil {
		return nil, err
	}
	return toResults(hits), nil
}

func toResults(hits []store.Hit) []Result {
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = Result{SectionID: h.SectionID, Score: h.Score, Title: h.Title, Level: h.Level, FilePath: h.FilePath}
	}
	return out
}

// defaultVectorWeight is the w in score = w*vector + (1-w)*text when
// the caller does not specify one, per spec.md §4.9.
const defaultVectorWeight = 0.7

// Hybrid combines ranked text search with vector similarity search
// using weighted-sum fusion: score = w*vector_similarity +
// (1-w)*text_score. Candidate pools are 2*limit from each side, unioned
// by section id, missing sides score 0, sorted by combined score and
// truncated to limit. With no embeddings configured, or none stored
// for the embedder's model, this degrades silently to pure text
// search.
func (l *Layer) Hybrid(queryText string, vectorWeight float64, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	if vectorWeight < 0 || vectorWeight > 1 {
		vectorWeight = defaultVectorWeight
	}

	textHits, err := l.store.SearchSectionsRanked(queryText, "", 2*limit)
	if err != nil {
		return nil, err
	}

	if l.embedder == nil {
		return truncate(toResults(textHits), limit), nil
	}

	has, err := l.store.HasEmbeddings(l.embedder.ModelName())
	if err != nil {
		return nil, err
	}
	if !has {
		return truncate(toResults(textHits), limit), nil
	}

	queryVec, err := l.embedder.EmbedQuery(queryText)
	if err != nil {
		return nil, diag.New(diag.KindRemoteFailure, "search_semantic", queryText, err)
	}

	vecHits, err := l.store.SearchVectors(l.embedder.ModelName(), queryVec, 2*limit)
	if err != nil {
		return nil, err
	}

	return truncate(fuse(textHits, vecHits, vectorWeight, l.store), limit), nil
}

func fuse(textHits []store.Hit, vecHits []store.VectorHit, w float64, s *store.Store) []Result {
	type combined struct {
		text   float64
		vector float64
		hit    *store.Hit
	}
	byID := make(map[string]*combined)

	for i := range textHits {
		h := textHits[i]
		byID[h.SectionID] = &combined{text: h.Score, hit: &h}
	}
	for _, v := range vecHits {
		c, ok := byID[v.SectionID]
		if !ok {
			c = &combined{}
			byID[v.SectionID] = c
		}
		c.vector = v.Score
	}

	out := make([]Result, 0, len(byID))
	for id, c := range byID {
		score := w*c.vector + (1-w)*c.text
		res := Result{SectionID: id, Score: score}
		if c.hit != nil {
			res.Title = c.hit.Title
			res.Level = c.hit.Level
			res.FilePath = c.hit.FilePath
		} else if sec, err := s.GetSection(id); err == nil {
			res.Title = sec.Title
			res.Level = sec.Level
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func truncate(results []Result, limit int) []Result {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
