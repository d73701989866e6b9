package store

import (
	"regexp"
	"strings"

	"github.com/skill-split/skill-split/internal/diag"
)

// Hit is one ranked search result: a section id with its normalized
// relevance score in [0, 1].
type Hit struct {
	SectionID string
	Score     float64
	Title     string
	Level     int
	FilePath  string
}

// fts5OperatorRe detects whether a query already uses FTS5 grammar
// (AND/OR/NEAR or a quoted phrase), in which case it is passed through
// unmodified rather than rewritten by the preprocessor.
var fts5OperatorRe = regexp.MustCompile(`\b(AND|OR|NEAR)\b|"`)

// preprocessQuery implements spec.md §4.8's FTS grammar preprocessor:
// empty input stays empty (caller must skip execution); a query that
// already looks like it uses FTS5 operators is used as-is; a single
// token is used as-is; otherwise tokens are OR-joined with each one
// quoted for exact-term matching, biasing multi-word queries toward
// recall.
func preprocessQuery(query string) string {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ""
	}
	if fts5OperatorRe.MatchString(trimmed) {
		return trimmed
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) <= 1 {
		return trimmed
	}
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// SearchSectionsRanked runs a BM25-ranked full-text search over
// sections_fts, optionally restricted to one file's path, returning
// hits sorted by descending normalized score.
//
// SQLite FTS5's bm25() is smaller-is-better (it is a cost, not a
// similarity), so scores are negated to larger-is-better and then
// rescaled per query to [0, 1] by dividing by the maximum positive
// score — 0 when there are no results — per spec.md §4.8.
func (s *Store) SearchSectionsRanked(query string, filePath string, limit int) ([]Hit, error) {
	fq := preprocessQuery(query)
	if fq == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	sqlText := `
		SELECT sec.id, -bm25(sections_fts) AS raw_score, sec.title, sec.level, f.path
		FROM sections_fts
		JOIN sections sec ON sec.id = sections_fts.section_id
		JOIN files f ON f.id = sec.file_id
		WHERE sections_fts MATCH ?
	`
	args := []any{fq}
	if filePath != "" {
		sqlText += ` AND f.path = ?`
		args = append(args, filePath)
	}
	sqlText += ` ORDER BY raw_score DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, diag.New(diag.KindIOFailure, "search", query, err)
	}
	defer rows.Close()

	type raw struct {
		id    string
		score float64
		title string
		level int
		path  string
	}
	var all []raw
	maxScore := 0.0
	for rows.Next() {
		var r raw
		if err := rows.Scan(&r.id, &r.score, &r.title, &r.level, &r.path); err != nil {
			return nil, diag.New(diag.KindIOFailure, "search", query, err)
		}
		if r.score > maxScore {
			maxScore = r.score
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, diag.New(diag.KindIOFailure, "search", query, err)
	}

	hits := make([]Hit, 0, len(all))
	for _, r := range all {
		normalized := 0.0
		if maxScore > 0 {
			normalized = r.score / maxScore
		}
		hits = append(hits, Hit{SectionID: r.id, Score: normalized, Title: r.title, Level: r.level, FilePath: r.path})
	}
	return hits, nil
}
