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
	"path/filepath"
	"strings"
)

// Classify assigns a media category based on the file's extension alone
// (relying on extension is naive, but cheap enough for large batches; deep
// content sniffing is deliberately not done here). Unrecognized extensions
// fall through to Document, which is the catch-all bucket.
func Classify(filename string) MediaCategory {
	if c, ok := categoryByExt[NormalizeExt(filepath.Ext(filename))]; ok {
		return c
	}
	return Document
}

// NormalizeExt lowercases an extension and strips any leading dot.
// It is total: any input yields a usable (possibly empty) value.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// categoryByExt is the classification policy table. Extensions are
// normalized (lowercase, no dot) before lookup.
var categoryByExt = map[string]MediaCategory{
	// images
	"jpg":  Image,
	"jpe":  Image,
	"jpeg": Image,
	"png":  Image,
	"gif":  Image,
	"bmp":  Image,
	"tif":  Image,
	"tiff": Image,
	"webp": Image,
	"heic": Image,
	"heif": Image,
	"avif": Image,
	"dng":  Image,
	"raw":  Image,
	"cr2":  Image,
	"nef":  Image,

	// videos
	"mp4":  Video,
	"m4v":  Video,
	"mov":  Video,
	"avi":  Video,
	"mkv":  Video,
	"mpg":  Video,
	"mpeg": Video,
	"wmv":  Video,
	"webm": Video,
	"3gp":  Video,
	"mts":  Video,
	"m2ts": Video,

	// documents (also the default for anything unlisted)
	"pdf":  Document,
	"txt":  Document,
	"doc":  Document,
	"docx": Document,
	"rtf":  Document,
	"odt":  Document,
	"html": Document,
	"htm":  Document,
	"md":   Document,

	// map overlays
	"kml":     MapOverlay,
	"kmz":     MapOverlay,
	"gpx":     MapOverlay,
	"geojson": MapOverlay,
	"dxf":     MapOverlay,
	"svg":     MapOverlay,
}
