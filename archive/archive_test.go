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
	"io/fs"
	"path/filepath"
	"testing"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Create(context.Background(), filepath.Join(t.TempDir(), "vault"))
	if err != nil {
		t.Fatalf("creating test archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func addTestLocation(t *testing.T, a *Archive) *Location {
	t.Helper()
	loc := &Location{
		ID:     testLocID,
		Name:   "Buffalo State Hospital",
		Slug:   "buffpsych",
		State:  "NY",
		Type:   "hospital",
		Status: "abandoned",
	}
	if err := a.AddLocation(context.Background(), loc); err != nil {
		t.Fatalf("adding test location: %v", err)
	}
	return loc
}

func countRows(t *testing.T, a *Archive, category MediaCategory) int {
	t.Helper()
	var count int
	err := a.db.QueryRowContext(context.Background(),
		`SELECT count() FROM `+category.tableName()).Scan(&count)
	if err != nil {
		t.Fatalf("counting %s rows: %v", category.tableName(), err)
	}
	return count
}

func TestCreateAndReopen(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "vault")

	a, err := Create(ctx, root)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	id := a.ID()
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// creating on top of an existing archive must refuse
	if _, err := Create(ctx, root); !errors.Is(err, fs.ErrExist) {
		t.Errorf("Create() over existing archive: got %v, want fs.ErrExist", err)
	}

	// reopening yields the same persistent archive UUID
	a2, err := Open(ctx, root)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer a2.Close()
	if a2.ID() != id {
		t.Errorf("archive UUID changed across reopen: %s vs %s", a2.ID(), id)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nothing-here"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open() on missing archive: got %v, want fs.ErrNotExist", err)
	}
}
