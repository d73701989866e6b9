// Package checkout deploys stored files to the filesystem and reverses
// that deployment, grounded on the teacher's internal/skills/updater.go
// SkillUpdater.UpdateSkill (backup -> overwrite -> compensating restore
// on failure) and its copyDir/atomic-write idiom, generalized from a
// single-skill-directory deploy to an arbitrary multi-file checkout
// tracked by a `deployed` set.
package checkout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skill-split/skill-split/internal/diag"
	"github.com/skill-split/skill-split/internal/recompose"
	"github.com/skill-split/skill-split/internal/section"
	"github.com/skill-split/skill-split/internal/store"
)

// FileStore is the minimal Store surface the Manager needs: reading a
// file's sections for recomposition and recording/closing checkouts.
type FileStore interface {
	GetFile(path string) (section.File, []*section.Section, error)
	RecordCheckout(fileID, targetPath, user string, deployedPaths []string) (store.Checkout, error)
	MarkCheckedIn(targetPath string) error
	MarkRolledBack(id string) error
}

// RelatedFileFinder discovers additional files that must be deployed
// alongside the primary one for multi-file kinds (plugins bring a
// manifest.json, hooks bring their script files, and so on). The
// default finder returns none; callers register kind-specific finders
// as needed.
type RelatedFileFinder func(file section.File, primaryBytes []byte) (map[string][]byte, error)

// Manager deploys and retracts checked-out files.
type Manager struct {
	store   FileStore
	related map[section.Kind]RelatedFileFinder
}

// New builds a Manager. related maps a Kind to the finder that
// discovers its companion files; kinds absent from the map deploy only
// the primary file.
func New(s FileStore, related map[section.Kind]RelatedFileFinder) *Manager {
	if related == nil {
		related = map[section.Kind]RelatedFileFinder{}
	}
	return &Manager{store: s, related: related}
}

// Checkout deploys sourcePath's stored bytes (and any related files)
// to targetPath, recording the deployment in the checkouts log.
//
// Compensating-action contract: filesystem writes cannot join the
// Store's DB transaction, so each deployed path is tracked in a
// `deployed` set as it is written; if recording the checkout fails,
// every deployed path is removed best-effort and the error names how
// many rollbacks succeeded, per spec.md §4.11.
func (m *Manager) Checkout(sourcePath, targetPath, user string) (string, error) {
	file, secs, err := m.store.GetFile(sourcePath)
	if err != nil {
		return "", err
	}

	primaryBytes, err := recompose.Verify(file, secs)
	if err != nil {
		return "", err
	}

	var deployed []string
	rollback := func(cause error) error {
		failures := 0
		for _, p := range deployed {
			if rmErr := os.Remove(p); rmErr != nil && !os.IsNotExist(rmErr) {
				failures++
			}
			removeIfEmptyParents(filepath.Dir(p))
		}
		return diag.New(diag.KindRollbackFailure, "checkout", targetPath,
			fmt.Errorf("rolled back %d/%d deployed files after: %w", len(deployed)-failures, len(deployed), cause))
	}

	if err := atomicWrite(targetPath, primaryBytes); err != nil {
		return "", diag.New(diag.KindIOFailure, "checkout", targetPath, err)
	}
	deployed = append(deployed, targetPath)

	if finder, ok := m.related[file.Kind]; ok {
		relatedFiles, err := finder(file, primaryBytes)
		if err != nil {
			return "", rollback(err)
		}
		targetDir := filepath.Dir(targetPath)
		for relName, data := range relatedFiles {
			relPath := filepath.Join(targetDir, relName)
			if err := atomicWrite(relPath, data); err != nil {
				return "", rollback(err)
			}
			deployed = append(deployed, relPath)
		}
	}

	if _, err := m.store.RecordCheckout(file.ID, targetPath, user, deployed); err != nil {
		return "", rollback(err)
	}

	return targetPath, nil
}

// Checkin deletes the deployed file (missing is not an error) and
// marks the checkout row checked_in. A failure to update the Store
// after the file is already gone is surfaced as a distinct
// "inconsistent state" error naming the target path, per spec.md
// §4.11.
func (m *Manager) Checkin(targetPath string) error {
	if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
		return diag.New(diag.KindIOFailure, "checkin", targetPath, err)
	}
	if err := m.store.MarkCheckedIn(targetPath); err != nil {
		return diag.New(diag.KindInvariantViolation, "checkin", targetPath,
			fmt.Errorf("file removed but checkout row update failed, store is now inconsistent for %q: %w", targetPath, err))
	}
	return nil
}

// atomicWrite writes data to a sibling temp file and renames it into
// place, so a crash mid-write never leaves a half-written target,
// mirroring the write-then-rename step spec.md §4.11 requires.
func atomicWrite(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create target dir: %w", err)
		}
	}
	tmp := path + ".tmp-checkout"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// removeIfEmptyParents best-effort removes dir and any now-empty
// ancestors created by a checkout that is being rolled back. Errors
// are ignored: this is cleanup, not a correctness requirement.
func removeIfEmptyParents(dir string) {
	for {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
