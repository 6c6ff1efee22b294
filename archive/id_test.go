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
	"testing"

	"github.com/google/uuid"
)

func TestAllocateID(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	id1, err := allocateID(ctx, a.db, "images")
	if err != nil {
		t.Fatalf("allocateID() error: %v", err)
	}
	if id1 == (uuid.UUID{}) {
		t.Fatal("allocateID() returned the zero UUID")
	}

	id2, err := allocateID(ctx, a.db, "images")
	if err != nil {
		t.Fatalf("allocateID() error: %v", err)
	}
	if id1 == id2 {
		t.Error("two allocations returned the same identifier")
	}
}

func TestAllocateIDDoesNotReserve(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	// allocation only checks; nothing may be inserted
	if _, err := allocateID(ctx, a.db, "images"); err != nil {
		t.Fatalf("allocateID() error: %v", err)
	}
	if n := countRows(t, a, Image); n != 0 {
		t.Errorf("allocation inserted %d rows; want 0", n)
	}
}

func TestAllocateIDExhaustion(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)
	ctx := context.Background()

	// occupy one identifier, then force the generator to always produce it
	taken := uuid.MustParse("0f0f0f0f-0f0f-0f0f-0f0f-0f0f0f0f0f0f")
	_, err := a.db.ExecContext(ctx, `INSERT INTO images
		(id, location_id, digest, original_name, original_path, archived_name, extension, archived_path, created, verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		taken.String(), loc.ID.String(), string(testDigest), "x.jpg", "/x.jpg", "x.jpg", "jpg", "/arch/x.jpg")
	if err != nil {
		t.Fatalf("seeding occupied identifier: %v", err)
	}

	oldNewUUID := newUUID
	newUUID = func() uuid.UUID { return taken }
	defer func() { newUUID = oldNewUUID }()

	_, err = allocateID(ctx, a.db, "images")
	if !errors.Is(err, ErrExhaustedRetries) {
		t.Errorf("allocateID() with permanent collision: got %v, want ErrExhaustedRetries", err)
	}
}
