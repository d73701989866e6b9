package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/recompose"
	"github.com/skill-split/skill-split/internal/section"
)

// Store is the relational index over Files and Sections. State is
// {uninitialized, ready} per connection; schema creation happens once
// in Open and is idempotent, so Store itself carries no extra state
// beyond the DB handle.
type Store struct {
	db *DB
}

// New wraps an opened DB as a Store.
func New(db *DB) *Store {
	return &Store{db: db}
}

// StoreFile upserts path's parsed document: in one transaction it
// deletes any existing sections for the file, inserts the new ones,
// re-syncs the FTS mirror (sweeping the FTS rows of deleted sections),
// and writes the files row. The recomposed bytes are verified against
// doc.File.ContentHash
// before anything is written — a RoundTripViolation aborts before the
// transaction even opens.
func (s *Store) StoreFile(doc section.Document, original []byte) (section.File, error) {
	if _, err := recompose.Verify(doc.File, doc.Sections); err != nil {
		return section.File{}, err
	}

	file := doc.File
	now := time.Now().UTC()

	err := s.db.WithTx(func(tx *Tx) error {
		var existingID string
		row := tx.QueryRow(`SELECT id, created_at FROM files WHERE path = ?`, file.Path)
		var createdAt time.Time
		switch err := row.Scan(&existingID, &createdAt); err {
		case nil:
			file.ID = existingID
			file.CreatedAt = createdAt
			if _, err := tx.Exec(`DELETE FROM sections WHERE file_id = ?`, file.ID); err != nil {
				return fmt.Errorf("delete old sections: %w", err)
			}
		case sql.ErrNoRows:
			file.ID = uuid.NewString()
			file.CreatedAt = now
		default:
			return fmt.Errorf("lookup existing file: %w", err)
		}
		file.UpdatedAt = now

		if _, err := tx.Exec(`
			INSERT INTO files (id, path, kind, format, frontmatter_raw, content_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				kind = excluded.kind,
				format = excluded.format,
				frontmatter_raw = excluded.frontmatter_raw,
				content_hash = excluded.content_hash,
				updated_at = excluded.updated_at
		`, file.ID, file.Path, string(file.Kind), string(file.Format), file.FrontmatterRaw, file.ContentHash, file.CreatedAt, file.UpdatedAt); err != nil {
			return fmt.Errorf("upsert file: %w", err)
		}

		if err := insertSections(tx, file.ID, "", doc.Sections); err != nil {
			return err
		}

		return syncOrphanFTS(tx)
	})
	if err != nil {
		return section.File{}, diag.New(diag.KindIOFailure, "store_file", file.Path, err)
	}

	return file, nil
}

func insertSections(tx *Tx, fileID, parentID string, secs []*section.Section) error {
	for _, sec := range secs {
		sec.ID = uuid.NewString()
		sec.FileID = fileID
		sec.ParentID = parentID

		var partsJSON sql.NullString
		if len(sec.ContentParts) > 0 {
			b, err := json.Marshal(sec.ContentParts)
			if err != nil {
				return fmt.Errorf("marshal content_parts: %w", err)
			}
			partsJSON = sql.NullString{String: string(b), Valid: true}
		}

		var parent sql.NullString
		if parentID != "" {
			parent = sql.NullString{String: parentID, Valid: true}
		}

		if _, err := tx.Exec(`
			INSERT INTO sections (
				id, file_id, parent_id, order_index, kind, level, title, content,
				content_parts, opening_tag_prefix, closing_tag_prefix, line_start, line_end
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, sec.ID, fileID, parent, sec.OrderIndex, string(sec.Kind), sec.Level, sec.Title, sec.Content,
			partsJSON, sec.OpeningTagPrefix, sec.ClosingTagPrefix, sec.LineStart, sec.LineEnd); err != nil {
			return fmt.Errorf("insert section: %w", err)
		}

		if _, err := tx.Exec(`
			INSERT INTO sections_fts (section_id, title, content) VALUES (?, ?, ?)
		`, sec.ID, sec.Title, sec.Content); err != nil {
			return fmt.Errorf("insert fts row: %w", err)
		}

		if err := insertSections(tx, fileID, sec.ID, sec.Children); err != nil {
			return err
		}
	}
	return nil
}

// syncOrphanFTS deletes any sections_fts row whose section_id no
// longer has a matching sections row, per spec.md §3 invariant I6.
func syncOrphanFTS(tx *Tx) error {
	_, err := tx.Exec(`
		DELETE FROM sections_fts
		WHERE section_id NOT IN (SELECT id FROM sections)
	`)
	return err
}

// GetFile retrieves a File and its full, hierarchically-rebuilt
// Sections by path.
func (s *Store) GetFile(path string) (section.File, []*section.Section, error) {
	var file section.File
	var kind, format string
	row := s.db.QueryRow(`
		SELECT id, path, kind, format, frontmatter_raw, content_hash, created_at, updated_at
		FROM files WHERE path = ?
	`, path)
	if err := row.Scan(&file.ID, &file.Path, &kind, &format, &file.FrontmatterRaw, &file.ContentHash, &file.CreatedAt, &file.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return section.File{}, nil, diag.New(diag.KindNotFound, "get_file", path, nil)
		}
		return section.File{}, nil, diag.New(diag.KindIOFailure, "get_file", path, err)
	}
	file.Kind = section.Kind(kind)
	file.Format = section.Format(format)

	secs, err := s.sectionsForFile(file.ID)
	if err != nil {
		return section.File{}, nil, err
	}
	return file, secs, nil
}

func (s *Store) sectionsForFile(fileID string) ([]*section.Section, error) {
	rows, err := s.db.Query(`
		SELECT id, parent_id, order_index, kind, level, title, content, content_parts,
			opening_tag_prefix, closing_tag_prefix, line_start, line_end
		FROM sections WHERE file_id = ? ORDER BY order_index
	`, fileID)
	if err != nil {
		return nil, diag.New(diag.KindIOFailure, "get_file", fileID, err)
	}
	defer rows.Close()

	byID := make(map[string]*section.Section)
	var flat []*section.Section
	var parentOf = make(map[string]string)

	for rows.Next() {
		sec := &section.Section{FileID: fileID}
		var parentID sql.NullString
		var kind string
		var partsJSON sql.NullString
		if err := rows.Scan(&sec.ID, &parentID, &sec.OrderIndex, &kind, &sec.Level, &sec.Title, &sec.Content,
			&partsJSON, &sec.OpeningTagPrefix, &sec.ClosingTagPrefix, &sec.LineStart, &sec.LineEnd); err != nil {
			return nil, diag.New(diag.KindIOFailure, "get_file", fileID, err)
		}
		sec.Kind = section.SectionKind(kind)
		if partsJSON.Valid {
			var parts []string
			if err := json.Unmarshal([]byte(partsJSON.String), &parts); err != nil {
				return nil, diag.New(diag.KindIOFailure, "get_file", fileID, err)
			}
			sec.ContentParts = parts
		}
		if parentID.Valid {
			sec.ParentID = parentID.String
			parentOf[sec.ID] = parentID.String
		}
		byID[sec.ID] = sec
		flat = append(flat, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, diag.New(diag.KindIOFailure, "get_file", fileID, err)
	}

	var roots []*section.Section
	for _, sec := range flat {
		if pid, ok := parentOf[sec.ID]; ok {
			if parent, ok := byID[pid]; ok {
				parent.Children = append(parent.Children, sec)
				continue
			}
		}
		roots = append(roots, sec)
	}
	return roots, nil
}

// GetSection retrieves a single Section by id with its file_type
// denormalized from the owning File.
func (s *Store) GetSection(id string) (*section.Section, error) {
	sec := &section.Section{}
	var parentID sql.NullString
	var kind, fileKind string
	var partsJSON sql.NullString
	row := s.db.QueryRow(`
		SELECT s.id, s.file_id, s.parent_id, s.order_index, s.kind, s.level, s.title, s.content,
			s.content_parts, s.opening_tag_prefix, s.closing_tag_prefix, s.line_start, s.line_end, f.kind
		FROM sections s JOIN files f ON f.id = s.file_id
		WHERE s.id = ?
	`, id)
	if err := row.Scan(&sec.ID, &sec.FileID, &parentID, &sec.OrderIndex, &kind, &sec.Level, &sec.Title, &sec.Content,
		&partsJSON, &sec.OpeningTagPrefix, &sec.ClosingTagPrefix, &sec.LineStart, &sec.LineEnd, &fileKind); err != nil {
		if err == sql.ErrNoRows {
			return nil, diag.New(diag.KindNotFound, "get_section", id, nil)
		}
		return nil, diag.New(diag.KindIOFailure, "get_section", id, err)
	}
	sec.Kind = section.SectionKind(kind)
	sec.FileType = section.Kind(fileKind)
	if parentID.Valid {
		sec.ParentID = parentID.String
	}
	if partsJSON.Valid {
		var parts []string
		if err := json.Unmarshal([]byte(partsJSON.String), &parts); err == nil {
			sec.ContentParts = parts
		}
	}
	return sec, nil
}

// FilePathOf returns the path of the file owning fileID, used by the
// Composer to list source file paths in generated frontmatter.
func (s *Store) FilePathOf(fileID string) (string, error) {
	var path string
	err := s.db.QueryRow(`SELECT path FROM files WHERE id = ?`, fileID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", diag.New(diag.KindNotFound, "file_path_of", fileID, nil)
	}
	if err != nil {
		return "", diag.New(diag.KindIOFailure, "file_path_of", fileID, err)
	}
	return path, nil
}

// ListFilePaths returns every stored file's path, ordered for
// deterministic iteration by callers such as the Backup dump.
func (s *Store) ListFilePaths() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, diag.New(diag.KindIOFailure, "list_file_paths", "", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, diag.New(diag.KindIOFailure, "list_file_paths", "", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// GetNextSection implements progressive disclosure: if firstChild is
// true it returns the first child of id by order_index, falling back
// to the next sibling if id has no children; otherwise it returns the
// next sibling directly. Returns (nil, nil) when exhausted.
func (s *Store) GetNextSection(id string, firstChild bool) (*section.Section, error) {
	cur, err := s.GetSection(id)
	if err != nil {
		return nil, err
	}

	if firstChild {
		child, err := s.firstChild(cur)
		if err != nil {
			return nil, err
		}
		if child != nil {
			return child, nil
		}
	}

	return s.nextSibling(cur)
}

func (s *Store) firstChild(cur *section.Section) (*section.Section, error) {
	var id string
	row := s.db.QueryRow(`
		SELECT id FROM sections WHERE file_id = ? AND parent_id = ? ORDER BY order_index LIMIT 1
	`, cur.FileID, cur.ID)
	switch err := row.Scan(&id); err {
	case nil:
		return s.GetSection(id)
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, diag.New(diag.KindIOFailure, "next", cur.ID, err)
	}
}

func (s *Store) nextSibling(cur *section.Section) (*section.Section, error) {
	var parentFilter any
	if cur.ParentID != "" {
		parentFilter = cur.ParentID
	}

	var id string
	row := s.db.QueryRow(`
		SELECT id FROM sections
		WHERE file_id = ? AND order_index = ? AND (
			(parent_id IS NULL AND ? IS NULL) OR parent_id = ?
		)
	`, cur.FileID, cur.OrderIndex+1, parentFilter, parentFilter)
	switch err := row.Scan(&id); err {
	case nil:
		return s.GetSection(id)
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, diag.New(diag.KindIOFailure, "next", cur.ID, err)
	}
}

// DeleteFile removes a file and cascades to its sections; any
// resulting orphan FTS rows are swept up explicitly, per spec.md
// §4.8's delete_file guarantee.
func (s *Store) DeleteFile(path string) error {
	return s.db.WithTx(func(tx *Tx) error {
		res, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path)
		if err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return diag.New(diag.KindNotFound, "delete_file", path, nil)
		}
		return syncOrphanFTS(tx)
	})
}
