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
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Enricher extracts optional descriptive metadata from an archived file
// after a successful import. It must treat the archived file as read-only.
// Enrichment is opaque to the engine's correctness: errors are logged and
// otherwise ignored.
type Enricher interface {
	Enrich(ctx context.Context, archivedPath string, category MediaCategory) (Enrichment, error)
}

// Enrichment holds optional descriptive metadata (camera tags, capture
// time, GPS, video dimensions) written to a media row after import.
type Enrichment struct {
	CameraMake   string
	CameraModel  string
	TakenAt      *time.Time
	Latitude     *float64
	Longitude    *float64
	DurationSecs *float64
	Width        *int
	Height       *int
}

// IsZero reports whether the enrichment carries nothing worth saving.
func (e Enrichment) IsZero() bool {
	return e.CameraMake == "" && e.CameraModel == "" && e.TakenAt == nil &&
		e.Latitude == nil && e.Longitude == nil && e.DurationSecs == nil &&
		e.Width == nil && e.Height == nil
}

// SaveEnrichment writes enrichment columns onto an existing media row. Along
// with the verification flag and the location's denormalized timestamp, this
// is the only update ever applied to a media row.
func (a *Archive) SaveEnrichment(ctx context.Context, category MediaCategory, mediaID uuid.UUID, e Enrichment) error {
	var takenAt any
	if e.TakenAt != nil {
		takenAt = e.TakenAt.Unix()
	}

	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	_, err := a.db.ExecContext(ctx, `UPDATE `+category.tableName()+`
		SET camera_make=?, camera_model=?, taken_at=?, gps_lat=?, gps_lon=?, duration_secs=?, width=?, height=?
		WHERE id=?`,
		nullString(e.CameraMake), nullString(e.CameraModel), takenAt,
		e.Latitude, e.Longitude, e.DurationSecs, e.Width, e.Height,
		mediaID.String())
	if err != nil {
		return fmt.Errorf("saving enrichment for %s: %w", mediaID, err)
	}
	return nil
}

// enrich runs the optional post-import enrichment step for a freshly
// imported media file. Best-effort by contract.
func (a *Archive) enrich(ctx context.Context, logger *zap.Logger, result *ImportResult) {
	if a.enricher == nil {
		return
	}

	meta, err := a.enricher.Enrich(ctx, result.ArchivedPath, result.Category)
	if err != nil {
		logger.Warn("metadata enrichment failed",
			zap.String("media", result.MediaID.String()),
			zap.Error(err))
		return
	}
	if meta.IsZero() {
		return
	}

	if err := a.SaveEnrichment(ctx, result.Category, result.MediaID, meta); err != nil {
		logger.Warn("saving enrichment failed",
			zap.String("media", result.MediaID.String()),
			zap.Error(err))
	}
}
