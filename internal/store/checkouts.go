package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/skill-split/skill-split/internal/diag"
)

// Checkout is one row of the checkouts log: a record of a file having
// been deployed to a filesystem target.
type Checkout struct {
	ID            string
	FileID        string
	TargetPath    string
	DeployedPaths []string
	User          string
	Status        string // active | checked_in | rolled_back
	CheckedOutAt  time.Time
	CheckedInAt   *time.Time
}

// RecordCheckout inserts a new active checkout row.
func (s *Store) RecordCheckout(fileID, targetPath, user string, deployedPaths []string) (Checkout, error) {
	b, err := json.Marshal(deployedPaths)
	if err != nil {
		return Checkout{}, diag.New(diag.KindIOFailure, "checkout", targetPath, err)
	}
	c := Checkout{
		ID:            uuid.NewString(),
		FileID:        fileID,
		TargetPath:    targetPath,
		DeployedPaths: deployedPaths,
		User:          user,
		Status:        "active",
		CheckedOutAt:  time.Now().UTC(),
	}
	_, err = s.db.Exec(`
		INSERT INTO checkouts (id, file_id, target_path, deployed_paths, checkout_user, status, checked_out_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.FileID, c.TargetPath, string(b), c.User, c.Status, c.CheckedOutAt)
	if err != nil {
		return Checkout{}, diag.New(diag.KindIOFailure, "checkout", targetPath, err)
	}
	return c, nil
}

// MarkCheckedIn transitions a checkout row to checked_in.
func (s *Store) MarkCheckedIn(targetPath string) error {
	res, err := s.db.Exec(`
		UPDATE checkouts SET status = 'checked_in', checked_in_at = CURRENT_TIMESTAMP
		WHERE target_path = ? AND status = 'active'
	`, targetPath)
	if err != nil {
		return diag.New(diag.KindIOFailure, "checkin", targetPath, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return diag.New(diag.KindNotFound, "checkin", targetPath, nil)
	}
	return nil
}

// MarkRolledBack transitions a checkout row to rolled_back. The
// Checkout Manager does not call it.
func (s *Store) MarkRolledBack(id string) error {
	_, err := s.db.Exec(`UPDATE checkouts SET status = 'rolled_back' WHERE id = ?`, id)
	if err != nil {
		return diag.New(diag.KindIOFailure, "rollback", id, err)
	}
	return nil
}

// ActiveCheckouts lists every checkout currently in the active state,
// for the `status` CLI command.
func (s *Store) ActiveCheckouts() ([]Checkout, error) {
	rows, err := s.db.Query(`
		SELECT id, file_id, target_path, deployed_paths, checkout_user, status, checked_out_at, checked_in_at
		FROM checkouts WHERE status = 'active' ORDER BY checked_out_at
	`)
	if err != nil {
		return nil, diag.New(diag.KindIOFailure, "status", "", err)
	}
	defer rows.Close()

	var out []Checkout
	for rows.Next() {
		var c Checkout
		var depJSON string
		var user sql.NullString
		var checkedInAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.FileID, &c.TargetPath, &depJSON, &user, &c.Status, &c.CheckedOutAt, &checkedInAt); err != nil {
			return nil, diag.New(diag.KindIOFailure, "status", "", err)
		}
		_ = json.Unmarshal([]byte(depJSON), &c.DeployedPaths)
		c.User = user.String
		if checkedInAt.Valid {
			t := checkedInAt.Time
			c.CheckedInAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
