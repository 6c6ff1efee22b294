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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxIDAttempts bounds identifier allocation retries. Collisions of random
// 128-bit identifiers are negligible per attempt, so the bound exists purely
// to fail loudly instead of looping forever under catalog corruption.
const maxIDAttempts = 5

// ErrExhaustedRetries is returned when every generated identifier collided
// with an existing catalog row.
var ErrExhaustedRetries = errors.New("exhausted identifier allocation attempts")

// test seam: overridden to force collisions
var newUUID = uuid.New

// allocateID mints a random 128-bit identifier that does not collide with
// any row of the given table. It only checks; the identifier is not claimed
// until the caller inserts a row with it, so the caller must do that insert
// in the same transaction when racing writers are a concern.
func allocateID(ctx context.Context, q querier, table string) (uuid.UUID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := newUUID()

		var count int
		err := q.QueryRowContext(ctx, `SELECT count() FROM `+table+` WHERE id=? LIMIT 1`, id.String()).Scan(&count)
		if err != nil {
			return uuid.UUID{}, fmt.Errorf("checking identifier uniqueness in %s: %w", table, err)
		}
		if count == 0 {
			return id, nil
		}

		Log.Warn("generated identifier collided with existing row; retrying",
			zap.String("table", table),
			zap.String("id", id.String()))
	}
	return uuid.UUID{}, fmt.Errorf("%w: table %s", ErrExhaustedRetries, table)
}
