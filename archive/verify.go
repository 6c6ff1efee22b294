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
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerifyReport summarizes an integrity sweep over the whole archive.
type VerifyReport struct {
	Checked    int
	Missing    []MediaRef // rows whose archived file is gone or unreadable
	Mismatched []MediaRef // rows whose archived file no longer hashes to the stored digest
}

// OK reports whether the sweep found no problems.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0
}

// VerifyAll re-hashes every verified media file in the archive and compares
// it against the full digest stored in its catalog row. It is a diagnostic:
// it mutates nothing, and unlike the import path's duplicate screen it
// always compares full digests.
func (a *Archive) VerifyAll(ctx context.Context) (*VerifyReport, error) {
	logger := Log.Named("verify")
	report := new(VerifyReport)

	for _, category := range Categories() {
		if err := a.verifyCategory(ctx, logger, category, report); err != nil {
			return nil, err
		}
	}

	logger.Info("integrity sweep finished",
		zap.Int("checked", report.Checked),
		zap.Int("missing", len(report.Missing)),
		zap.Int("mismatched", len(report.Mismatched)))

	return report, nil
}

func (a *Archive) verifyCategory(ctx context.Context, logger *zap.Logger, category MediaCategory, report *VerifyReport) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, location_id, archived_name, archived_path, digest FROM `+category.tableName()+` WHERE verified=1`)
	if err != nil {
		return fmt.Errorf("querying %s for verification: %w", category.tableName(), err)
	}
	defer rows.Close()

	type checkRow struct {
		ref    MediaRef
		path   string
		digest Digest
	}
	var toCheck []checkRow

	for rows.Next() {
		var mediaIDStr, locIDStr, name, path, digest string
		if err := rows.Scan(&mediaIDStr, &locIDStr, &name, &path, &digest); err != nil {
			return fmt.Errorf("scanning %s row: %w", category.tableName(), err)
		}
		mediaID, err := uuid.Parse(mediaIDStr)
		if err != nil {
			return fmt.Errorf("malformed media id %s: %w", mediaIDStr, err)
		}
		locID, err := uuid.Parse(locIDStr)
		if err != nil {
			return fmt.Errorf("malformed location id %s: %w", locIDStr, err)
		}
		toCheck = append(toCheck, checkRow{
			ref: MediaRef{
				MediaID:      mediaID,
				LocationID:   locID,
				Category:     category,
				ArchivedName: name,
			},
			path:   path,
			digest: Digest(digest),
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s rows: %w", category.tableName(), err)
	}

	// hash outside the row iteration so the read connection isn't held
	// open across long file reads
	for _, c := range toCheck {
		report.Checked++

		actual, err := HashFile(c.path)
		if err != nil {
			logger.Warn("archived file missing or unreadable",
				zap.String("media", c.ref.MediaID.String()),
				zap.String("path", c.path),
				zap.Error(err))
			report.Missing = append(report.Missing, c.ref)
			continue
		}
		if actual != c.digest {
			logger.Error("archived file failed integrity check (checksum on disk changed; file corrupted or modified?)",
				zap.String("media", c.ref.MediaID.String()),
				zap.String("path", c.path),
				zap.String("expected", string(c.digest)),
				zap.String("actual", string(actual)))
			report.Mismatched = append(report.Mismatched, c.ref)
		}
	}

	return nil
}
