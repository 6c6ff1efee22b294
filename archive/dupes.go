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
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MediaRef identifies an existing media row and its owning location, so the
// operator of a rejected duplicate import can decide whether to skip or
// force a re-import elsewhere.
type MediaRef struct {
	MediaID      uuid.UUID
	LocationID   uuid.UUID
	Category     MediaCategory
	ArchivedName string
}

// findDuplicate reports any existing row in the category's table whose
// stored digest begins with the given 12-character prefix, or nil if the
// content is new. A prefix match is treated as certain: the prefix is long
// enough that the false-positive risk is negligible in this domain, so no
// secondary full-digest comparison is done here. The full-digest UNIQUE
// constraint at insert time is the backstop for the check-then-insert race.
//
// The substr expression must match the idx_*_digest_prefix indexes in
// schema.sql verbatim, or sqlite will not use them.
func findDuplicate(ctx context.Context, q querier, category MediaCategory, digestPrefix string) (*MediaRef, error) {
	var mediaIDStr, locIDStr, archivedName string
	err := q.QueryRowContext(ctx,
		`SELECT id, location_id, archived_name FROM `+category.tableName()+
			` WHERE substr("digest", 1, 12)=? LIMIT 1`,
		digestPrefix).Scan(&mediaIDStr, &locIDStr, &archivedName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("screening %s for duplicate digest prefix: %w", category.tableName(), err)
	}

	mediaID, err := uuid.Parse(mediaIDStr)
	if err != nil {
		return nil, fmt.Errorf("malformed media id %s: %w", mediaIDStr, err)
	}
	locID, err := uuid.Parse(locIDStr)
	if err != nil {
		return nil, fmt.Errorf("malformed location id %s: %w", locIDStr, err)
	}

	return &MediaRef{
		MediaID:      mediaID,
		LocationID:   locID,
		Category:     category,
		ArchivedName: archivedName,
	}, nil
}
