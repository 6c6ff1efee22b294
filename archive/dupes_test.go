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
	"testing"

	"github.com/google/uuid"
)

func TestFindDuplicate(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)
	ctx := context.Background()

	mediaID := uuid.MustParse("aaaabbbb-cccc-dddd-eeee-ffff00001111")
	_, err := a.db.ExecContext(ctx, `INSERT INTO images
		(id, location_id, digest, original_name, original_path, archived_name, extension, archived_path, created, verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 1)`,
		mediaID.String(), loc.ID.String(), string(testDigest),
		"photo.jpg", "/src/photo.jpg", "11112222-abc123de.jpg", "jpg", "/arch/11112222-abc123de.jpg")
	if err != nil {
		t.Fatalf("seeding media row: %v", err)
	}

	t.Run("hit by prefix", func(t *testing.T) {
		ref, err := findDuplicate(ctx, a.db, Image, testDigest.DupePrefix())
		if err != nil {
			t.Fatalf("findDuplicate() error: %v", err)
		}
		if ref == nil {
			t.Fatal("findDuplicate() = nil, want a hit")
		}
		if ref.MediaID != mediaID {
			t.Errorf("MediaID = %s, want %s", ref.MediaID, mediaID)
		}
		if ref.LocationID != loc.ID {
			t.Errorf("LocationID = %s, want %s", ref.LocationID, loc.ID)
		}
		if ref.ArchivedName != "11112222-abc123de.jpg" {
			t.Errorf("ArchivedName = %q", ref.ArchivedName)
		}
	})

	t.Run("miss on unknown prefix", func(t *testing.T) {
		ref, err := findDuplicate(ctx, a.db, Image, "000000000000")
		if err != nil {
			t.Fatalf("findDuplicate() error: %v", err)
		}
		if ref != nil {
			t.Errorf("findDuplicate() = %+v, want nil", ref)
		}
	})

	t.Run("categories are screened independently", func(t *testing.T) {
		ref, err := findDuplicate(ctx, a.db, Video, testDigest.DupePrefix())
		if err != nil {
			t.Fatalf("findDuplicate() error: %v", err)
		}
		if ref != nil {
			t.Errorf("digest in images matched in videos: %+v", ref)
		}
	})
}
