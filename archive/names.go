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
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Archived names are built from identifier and digest prefixes so that they
// are deterministic, self-describing, and collision-resistant across
// locations that share similar original filenames. The exact formats below
// are part of the on-disk archive format: any change breaks compatibility
// with existing archive trees.

const (
	nameSep = "-"

	// idPrefixLen is how many characters of an identifier's string form
	// appear in file and folder names.
	idPrefixLen = 8
)

func idPrefix(id uuid.UUID) string { return id.String()[:idPrefixLen] }

// MediaName returns the deterministic archived file name for content with
// the given digest, owned by the given location (and optionally a
// sub-location): an 8-character location-id prefix, an optional 8-character
// sub-location-id prefix, and an 8-character digest prefix, joined by "-",
// with the normalized extension appended.
func MediaName(locationID uuid.UUID, sublocationID *uuid.UUID, digest Digest, ext string) string {
	parts := make([]string, 0, 3)
	parts = append(parts, idPrefix(locationID))
	if sublocationID != nil {
		parts = append(parts, idPrefix(*sublocationID))
	}
	parts = append(parts, digest.namePrefix())

	name := strings.Join(parts, nameSep)
	if e := NormalizeExt(ext); e != "" {
		name += "." + e
	}
	return name
}

// LocationFolderName returns the folder name a location's media tree lives
// under: the slug followed by an 8-character identifier prefix. The slug and
// identifier pair resolves to exactly one layout root.
func LocationFolderName(slug string, locationID uuid.UUID) string {
	return safePathComponent(slug) + nameSep + idPrefix(locationID)
}

// StateTypeFolderName returns the top-level grouping folder for a location,
// e.g. "NY-Hospital".
func StateTypeFolderName(state, locType string) string {
	return strings.ToUpper(safePathComponent(state)) + nameSep + titleCase(safePathComponent(locType))
}

// CategoryFolderName returns the per-category subfolder inside a location's
// folder, e.g. "img-org-11112222".
func CategoryFolderName(category MediaCategory, locationID uuid.UUID) string {
	return category.folderPrefix() + nameSep + idPrefix(locationID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func safePathComponent(s string) string {
	s = safePathRE.ReplaceAllLiteralString(s, "")
	s = strings.ReplaceAll(s, "..", "")
	if s == "." {
		s = ""
	}
	return s
}

// safePathRE matches any undesirable characters in a filepath.
// Note that this allows dots, so you'll have to strip ".." manually.
var safePathRE = regexp.MustCompile(`[^\w.-]`)
