package store

import (
	"database/sql"
	"encoding/binary"
	"math"
	"sort"

	"github.com/skill-split/skill-split/internal/diag"
)

// PutSectionEmbedding stores (or replaces) a section's embedding vector
// for a given model, keyed by the (section_id, model_name) unique
// constraint spec.md §4.9 requires.
func (s *Store) PutSectionEmbedding(sectionID, modelName string, vector []float32) error {
	blob := encodeVector(vector)
	_, err := s.db.Exec(`
		INSERT INTO section_embeddings (section_id, model_name, embedding)
		VALUES (?, ?, ?)
		ON CONFLICT(section_id, model_name) DO UPDATE SET embedding = excluded.embedding, created_at = CURRENT_TIMESTAMP
	`, sectionID, modelName, blob)
	if err != nil {
		return diag.New(diag.KindIOFailure, "put_embedding", sectionID, err)
	}
	return nil
}

// PutEmbeddingMetadata records a model's vector dimensionality and
// provider, one row per model. Nothing in the Store reads these rows
// back.
func (s *Store) PutEmbeddingMetadata(modelName, provider string, dimensions int) error {
	_, err := s.db.Exec(`
		INSERT INTO embedding_metadata (model_name, dimensions, provider, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(model_name) DO UPDATE SET dimensions = excluded.dimensions, provider = excluded.provider, updated_at = CURRENT_TIMESTAMP
	`, modelName, dimensions, provider)
	if err != nil {
		return diag.New(diag.KindIOFailure, "put_embedding_metadata", modelName, err)
	}
	return nil
}

// VectorHit pairs a section id with a cosine-similarity score against
// a query vector.
type VectorHit struct {
	SectionID string
	Score     float64
}

// SearchVectors computes cosine similarity between queryVector and
// every stored embedding for modelName, returning the top limit
// matches sorted by descending similarity. With ~20k sections this
// brute-force scan is acceptable; there is no ANN index.
func (s *Store) SearchVectors(modelName string, queryVector []float32, limit int) ([]VectorHit, error) {
	rows, err := s.db.Query(`SELECT section_id, embedding FROM section_embeddings WHERE model_name = ?`, modelName)
	if err != nil {
		return nil, diag.New(diag.KindIOFailure, "search_vectors", modelName, err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, diag.New(diag.KindIOFailure, "search_vectors", modelName, err)
		}
		vec := decodeVector(blob)
		hits = append(hits, VectorHit{SectionID: id, Score: cosineSimilarity(queryVector, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, diag.New(diag.KindIOFailure, "search_vectors", modelName, err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// HasEmbeddings reports whether any section embeddings exist for
// modelName, used by the query layer to decide whether hybrid search
// can run or must degrade to pure text, per spec.md §4.9.
func (s *Store) HasEmbeddings(modelName string) (bool, error) {
	var exists int
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM section_embeddings WHERE model_name = ?)`, modelName).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, diag.New(diag.KindIOFailure, "has_embeddings", modelName, err)
	}
	return exists == 1, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
