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
	"fmt"
	"os"
	"path/filepath"
)

// LayoutPaths holds the absolute directories of one location's media tree.
// The layout is derived from catalog-held location attributes on demand and
// is never cached on disk as authoritative state: the directories are the
// cache, the catalog is the source of truth for names.
type LayoutPaths struct {
	// LocationDir is <root>/<STATE>-<Type>/<slug>-<idprefix>.
	LocationDir string

	// CategoryDirs maps each media category to its subfolder
	// inside LocationDir, e.g. .../img-org-<idprefix>.
	CategoryDirs map[MediaCategory]string
}

func (a *Archive) locationDir(loc *Location) string {
	return filepath.Join(a.root,
		StateTypeFolderName(loc.State, loc.Type),
		LocationFolderName(loc.Slug, loc.ID))
}

func (a *Archive) locationLayout(loc *Location) LayoutPaths {
	dir := a.locationDir(loc)
	lp := LayoutPaths{
		LocationDir:  dir,
		CategoryDirs: make(map[MediaCategory]string, len(categoryTable)),
	}
	for _, c := range Categories() {
		lp.CategoryDirs[c] = filepath.Join(dir, CategoryFolderName(c, loc.ID))
	}
	return lp
}

// EnsureLocationLayout materializes the directory hierarchy the location's
// media must live in. It is idempotent: it may be called arbitrarily many
// times without error or duplication; it creates missing directories, leaves
// existing ones untouched, and never deletes. Filesystem failures are
// propagated uninterpreted.
func (a *Archive) EnsureLocationLayout(loc *Location) (LayoutPaths, error) {
	lp := a.locationLayout(loc)
	if err := os.MkdirAll(lp.LocationDir, 0o700); err != nil {
		return LayoutPaths{}, fmt.Errorf("making location directory: %w", err)
	}
	for _, dir := range lp.CategoryDirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return LayoutPaths{}, fmt.Errorf("making category directory: %w", err)
		}
	}
	return lp, nil
}

// LayoutExists reports whether every directory of the location's layout is
// already present. It is a side-effect-free probe for diagnostics; the
// import path never uses it and always calls EnsureLocationLayout instead
// of assuming pre-existence.
func (a *Archive) LayoutExists(loc *Location) bool {
	lp := a.locationLayout(loc)
	if !dirExists(lp.LocationDir) {
		return false
	}
	for _, dir := range lp.CategoryDirs {
		if !dirExists(dir) {
			return false
		}
	}
	return true
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
