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

// Package mediameta extracts optional descriptive metadata from archived
// media files: EXIF tags (camera, capture time, GPS) from photographs and
// header boxes (creation time, duration, dimensions) from MP4-family video.
// It is the default enrichment collaborator for the import engine; the
// engine's correctness never depends on anything extracted here.
package mediameta

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abema/go-mp4"
	"github.com/cozy/goexif2/exif"
	"github.com/cozy/goexif2/mknote"

	"github.com/ruinvault/ruinvault/archive"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Extractor implements archive.Enricher.
type Extractor struct{}

func (Extractor) Enrich(_ context.Context, archivedPath string, category archive.MediaCategory) (archive.Enrichment, error) {
	switch category {
	case archive.Image:
		return extractEXIF(archivedPath)
	case archive.Video:
		return probeMP4(archivedPath)
	}
	// documents and map overlays carry no extractable hardware metadata
	return archive.Enrichment{}, nil
}

func extractEXIF(path string) (archive.Enrichment, error) {
	var e archive.Enrichment

	f, err := os.Open(path)
	if err != nil {
		return e, fmt.Errorf("opening archived image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		if exif.IsCriticalError(err) {
			return e, fmt.Errorf("decoding EXIF: %w", err)
		}
		// partial decode; use whatever was readable
	}
	if x == nil {
		return e, nil
	}

	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			e.CameraMake = s
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			e.CameraModel = s
		}
	}
	if ts, err := x.DateTime(); err == nil {
		ts = ts.UTC()
		e.TakenAt = &ts
	}
	if lat, lon, err := x.LatLong(); err == nil {
		e.Latitude, e.Longitude = &lat, &lon
	}

	return e, nil
}

func probeMP4(path string) (archive.Enrichment, error) {
	var e archive.Enrichment

	f, err := os.Open(path)
	if err != nil {
		return e, fmt.Errorf("opening archived video: %w", err)
	}
	defer f.Close()

	_, err = mp4.ReadBoxStructure(f, func(h *mp4.ReadHandle) (any, error) {
		if !h.BoxInfo.IsSupportedType() || h.BoxInfo.Type.String() == "mdat" {
			return nil, nil
		}

		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, fmt.Errorf("reading payload from handle: %w", err)
		}

		switch b := box.(type) {
		case *mp4.Mvhd: // movie header (overall declarations)
			if e.TakenAt == nil {
				if creationTime := b.GetCreationTime(); creationTime != 0 {
					ts := isoIEC14496Timestamp(creationTime)
					e.TakenAt = &ts
				}
			}
			if b.Timescale > 0 {
				secs := float64(b.GetDuration()) / float64(b.Timescale)
				e.DurationSecs = &secs
			}

		case *mp4.Tkhd: // track header
			if width := int(b.GetWidthInt()); width > 0 && e.Width == nil {
				e.Width = &width
			}
			if height := int(b.GetHeightInt()); height > 0 && e.Height == nil {
				e.Height = &height
			}
		}

		// traverse child nodes
		return h.Expand()
	})
	if err != nil {
		return archive.Enrichment{}, fmt.Errorf("parsing MP4 boxes: %w", err)
	}

	return e, nil
}

// isoIEC14496Timestamp converts an MP4 timestamp (seconds since the start
// of 1904, UTC) into a time.Time.
func isoIEC14496Timestamp(secs uint64) time.Time {
	return time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(secs) * time.Second) //nolint:gosec
}
