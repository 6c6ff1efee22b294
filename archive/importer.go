/*
	RuinVault
	Copyright (c) 2021 the RuinVault authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportOptions adjusts a single admission.
type ImportOptions struct {
	// DeleteSourceOnSuccess removes the original file once the archived copy
	// has been verified. Failure to delete does NOT fail the import; it is
	// surfaced in the result's Warning field.
	DeleteSourceOnSuccess bool

	// SublocationID optionally attributes the media to a sub-location of the
	// target location. Its identifier prefix becomes part of the archived name.
	SublocationID *uuid.UUID
}

// ImportResult reports a successful admission.
type ImportResult struct {
	MediaID      uuid.UUID
	Category     MediaCategory
	ArchivedName string
	ArchivedPath string
	Verified     bool

	// Warning carries a non-fatal problem encountered after the import had
	// already fully succeeded from the archive's point of view (such as
	// failing to delete the source file). Empty when all went cleanly.
	Warning string
}

// test seam for simulating copy faults
var copyFile = copyFilePreservingTimes

// Import admits the file at sourcePath into the archive under loc. It runs
// the admission as a strictly ordered sequence (validate, deduplicate,
// allocate, copy, record, verify, finalize); on any failure it undoes the
// most recently completed side effect first, catalog row before filesystem
// copy, so a half-finished import never leaves an orphaned catalog row
// pointing at a missing file. Failures are returned as *ImportError; the
// engine performs all necessary local rollback before returning.
//
// Cancellation mid-operation is not supported: an import is bounded by file
// size and disk throughput, so the contract is run-to-completion-or-rollback.
// Callers wanting a timeout should wrap the call.
func (a *Archive) Import(ctx context.Context, sourcePath string, loc *Location, opt ImportOptions) (*ImportResult, error) {
	if loc == nil {
		return nil, failure(FailureNotFound, errors.New("missing target location"))
	}

	logger := Log.Named("import").With(
		zap.String("source", sourcePath),
		zap.String("location", loc.ID.String()))

	// Validating
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fsFailure(FailureNotFound, fmt.Errorf("source file: %w", err))
	}
	if !info.Mode().IsRegular() {
		return nil, failure(FailureNotFound, fmt.Errorf("source is not a regular file: %s", sourcePath))
	}

	category := Classify(sourcePath)
	ext := NormalizeExt(filepath.Ext(sourcePath))

	// Deduplicating: full digest first, then the truncated screen. Nothing
	// has been mutated yet, so a duplicate needs no rollback.
	digest, err := HashFile(sourcePath)
	if err != nil {
		return nil, fsFailure(FailureCopyError, err)
	}

	existing, err := findDuplicate(ctx, a.db, category, digest.DupePrefix())
	if err != nil {
		return nil, failure(FailureCatalogError, err)
	}
	if existing != nil {
		logger.Info("content already archived; rejecting duplicate",
			zap.String("category", category.String()),
			zap.String("digest_prefix", digest.DupePrefix()),
			zap.String("existing_media", existing.MediaID.String()),
			zap.String("existing_location", existing.LocationID.String()))
		return nil, &ImportError{Kind: FailureDuplicateContent, Existing: existing}
	}

	// Allocating: still no side effects performed.
	mediaID, err := allocateID(ctx, a.db, category.tableName())
	if err != nil {
		if errors.Is(err, ErrExhaustedRetries) {
			return nil, failure(FailureIdentifierExhausted, err)
		}
		return nil, failure(FailureCatalogError, err)
	}

	// Copying: materialize the layout, then copy bytes preserving timestamps.
	// copyFile cleans up its own partial destination on error.
	paths, err := a.EnsureLocationLayout(loc)
	if err != nil {
		return nil, fsFailure(FailureCopyError, err)
	}

	archivedName := MediaName(loc.ID, opt.SublocationID, digest, ext)
	destPath := filepath.Join(paths.CategoryDirs[category], archivedName)

	if err := copyFile(sourcePath, destPath); err != nil {
		return nil, fsFailure(FailureCopyError, err)
	}

	// Recording: insert the catalog row with verified=false, bumping the
	// location's denormalized timestamp in the same transaction. An insert
	// failure (such as the digest uniqueness backstop losing a race) must
	// undo the copy on the way out.
	now := time.Now().UTC()
	if err := a.recordMedia(ctx, category, mediaID, loc, opt.SublocationID, digest, sourcePath, archivedName, ext, destPath, now); err != nil {
		removeArchived(logger, destPath)
		return nil, failure(FailureCatalogError, err)
	}

	// Verifying: re-hash the durable copy and compare to the source digest.
	// A mismatch means the copy step itself corrupted the bytes (truncated
	// write, filesystem fault); roll back row then file, loudly.
	check, err := HashFile(destPath)
	if err != nil || check != digest {
		a.deleteMediaRow(ctx, category, mediaID)
		removeArchived(logger, destPath)
		if err == nil {
			err = fmt.Errorf("archived copy hashed to %s, expected %s", check.DupePrefix(), digest.DupePrefix())
		}
		logger.Error("archived copy failed verification; rolled back",
			zap.String("media", mediaID.String()),
			zap.Error(err))
		return nil, failure(FailureVerificationMismatch, err)
	}

	// Finalizing: flip the verification flag (false -> true, exactly once).
	if err := a.markVerified(ctx, category, mediaID); err != nil {
		a.deleteMediaRow(ctx, category, mediaID)
		removeArchived(logger, destPath)
		return nil, failure(FailureCatalogError, err)
	}

	result := &ImportResult{
		MediaID:      mediaID,
		Category:     category,
		ArchivedName: archivedName,
		ArchivedPath: destPath,
		Verified:     true,
	}

	if opt.DeleteSourceOnSuccess {
		if err := os.Remove(sourcePath); err != nil {
			// the import has already fully succeeded from the archive's
			// point of view, so this is a warning, not a failure
			result.Warning = fmt.Sprintf("could not delete source file: %v", err)
			logger.Warn("could not delete source file after successful import", zap.Error(err))
		}
	}

	logger.Info("imported media",
		zap.String("media", mediaID.String()),
		zap.String("category", category.String()),
		zap.String("archived_name", archivedName),
		zap.Int64("size", info.Size()))

	a.enrich(ctx, logger, result)

	return result, nil
}

func (a *Archive) recordMedia(ctx context.Context, category MediaCategory, mediaID uuid.UUID,
	loc *Location, sublocationID *uuid.UUID, digest Digest,
	sourcePath, archivedName, ext, destPath string, now time.Time) error {

	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var subID any
	if sublocationID != nil {
		subID = sublocationID.String()
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO `+category.tableName()+`
		(id, location_id, sublocation_id, digest, original_name, original_path, archived_name, extension, archived_path, created, verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		mediaID.String(), loc.ID.String(), subID, string(digest),
		filepath.Base(sourcePath), sourcePath, archivedName, ext, destPath, now.Unix())
	if err != nil {
		return fmt.Errorf("inserting media row: %w", err)
	}

	if err := touchLocation(ctx, tx, loc.ID, now); err != nil {
		return fmt.Errorf("updating location timestamp: %w", err)
	}

	return tx.Commit()
}

// markVerified records that the archived copy's digest matched post-write.
// The flag only ever transitions false to true.
func (a *Archive) markVerified(ctx context.Context, category MediaCategory, mediaID uuid.UUID) error {
	a.dbMu.Lock()
	defer a.dbMu.Unlock()
	_, err := a.db.ExecContext(ctx, `UPDATE `+category.tableName()+` SET verified=1 WHERE id=?`, mediaID.String())
	if err != nil {
		return fmt.Errorf("marking media verified: %w", err)
	}
	return nil
}

// deleteMediaRow is a rollback helper; its own failure is only logged, since
// the import is already failing for the original reason.
func (a *Archive) deleteMediaRow(ctx context.Context, category MediaCategory, mediaID uuid.UUID) {
	a.dbMu.Lock()
	defer a.dbMu.Unlock()
	if _, err := a.db.ExecContext(ctx, `DELETE FROM `+category.tableName()+` WHERE id=?`, mediaID.String()); err != nil {
		Log.Error("rolling back media row failed",
			zap.String("media", mediaID.String()),
			zap.String("table", category.tableName()),
			zap.Error(err))
	}
}

func removeArchived(logger *zap.Logger, destPath string) {
	if err := os.Remove(destPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// an unreferenced file on disk is survivable clutter,
		// never a catalog consistency violation
		logger.Warn("could not remove archived copy during rollback",
			zap.String("path", destPath),
			zap.Error(err))
	}
}

// copyFilePreservingTimes copies src to dst, creating dst exclusively so an
// existing file is never truncated, syncing it to durable storage, and
// carrying over the source's modification time. On any error after dst was
// created, dst is removed before returning.
func copyFilePreservingTimes(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("statting source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating archived copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying contents: %w", err)
	}

	// the copy must be durable before the verification re-hash is trusted
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("syncing archived copy: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing archived copy: %w", err)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(dst)
		return fmt.Errorf("preserving timestamps: %w", err)
	}

	return nil
}
