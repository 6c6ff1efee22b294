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

// MediaCategory is one of the fixed classification buckets that governs
// which catalog table a media row lives in and which per-location folder
// its file is archived under. It is a closed set; per-category names are
// resolved through the categoryInfo table below, never by string dispatch.
type MediaCategory int

const (
	Image MediaCategory = iota
	Video
	Document
	MapOverlay
)

type categoryInfo struct {
	name         string // human-readable name
	table        string // catalog table for this category
	folderPrefix string // per-location subfolder prefix, e.g. "img-org"
}

// categoryTable holds the per-category naming data. The folder prefixes and
// table names are part of the on-disk archive format; changing them breaks
// compatibility with existing archive trees.
var categoryTable = [...]categoryInfo{
	Image:      {name: "image", table: "images", folderPrefix: "img-org"},
	Video:      {name: "video", table: "videos", folderPrefix: "vid-org"},
	Document:   {name: "document", table: "documents", folderPrefix: "doc-org"},
	MapOverlay: {name: "map-overlay", table: "overlays", folderPrefix: "map-org"},
}

// Categories lists every media category in a stable order.
func Categories() []MediaCategory {
	return []MediaCategory{Image, Video, Document, MapOverlay}
}

func (c MediaCategory) String() string { return categoryTable[c].name }

// tableName returns the catalog table holding rows of this category.
func (c MediaCategory) tableName() string { return categoryTable[c].table }

func (c MediaCategory) folderPrefix() string { return categoryTable[c].folderPrefix }
