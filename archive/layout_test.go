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
	"io/fs"
	"path/filepath"
	"reflect"
	"testing"
)

func listDirs(t *testing.T, root string) []string {
	t.Helper()
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return dirs
}

func TestEnsureLocationLayout(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)

	if a.LayoutExists(loc) {
		t.Fatal("layout reported existing before being created")
	}

	lp, err := a.EnsureLocationLayout(loc)
	if err != nil {
		t.Fatalf("EnsureLocationLayout() error: %v", err)
	}

	wantLocDir := filepath.Join(a.Root(), "NY-Hospital", "buffpsych-11112222")
	if lp.LocationDir != wantLocDir {
		t.Errorf("LocationDir = %q, want %q", lp.LocationDir, wantLocDir)
	}
	wantImgDir := filepath.Join(wantLocDir, "img-org-11112222")
	if lp.CategoryDirs[Image] != wantImgDir {
		t.Errorf("CategoryDirs[Image] = %q, want %q", lp.CategoryDirs[Image], wantImgDir)
	}
	if len(lp.CategoryDirs) != len(Categories()) {
		t.Errorf("got %d category dirs, want %d", len(lp.CategoryDirs), len(Categories()))
	}

	if !a.LayoutExists(loc) {
		t.Error("layout not reported existing after creation")
	}
}

func TestEnsureLocationLayoutIdempotent(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)

	first, err := a.EnsureLocationLayout(loc)
	if err != nil {
		t.Fatalf("first EnsureLocationLayout() error: %v", err)
	}
	dirsAfterOnce := listDirs(t, a.Root())

	// repeated calls must not error, duplicate, or delete anything
	for i := 0; i < 5; i++ {
		again, err := a.EnsureLocationLayout(loc)
		if err != nil {
			t.Fatalf("repeat EnsureLocationLayout() error: %v", err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Errorf("repeat call returned different paths: %+v vs %+v", again, first)
		}
	}

	dirsAfterMany := listDirs(t, a.Root())
	if !reflect.DeepEqual(dirsAfterOnce, dirsAfterMany) {
		t.Errorf("directory set changed across repeated ensure calls:\nonce: %v\nmany: %v",
			dirsAfterOnce, dirsAfterMany)
	}
}
