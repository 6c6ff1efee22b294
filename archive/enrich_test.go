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
	"database/sql"
	"errors"
	"testing"
)

type stubEnricher struct {
	meta Enrichment
	err  error
}

func (s stubEnricher) Enrich(context.Context, string, MediaCategory) (Enrichment, error) {
	return s.meta, s.err
}

func TestImportRunsEnrichment(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)
	ctx := context.Background()

	a.SetEnricher(stubEnricher{meta: Enrichment{CameraMake: "Canon", CameraModel: "EOS 60D"}})

	source := writeTempFile(t, "photo.jpg", []byte("exif-bearing image"))
	result, err := a.Import(ctx, source, loc, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	var camMake, camModel sql.NullString
	err = a.db.QueryRowContext(ctx, `SELECT camera_make, camera_model FROM images WHERE id=?`,
		result.MediaID.String()).Scan(&camMake, &camModel)
	if err != nil {
		t.Fatal(err)
	}
	if camMake.String != "Canon" || camModel.String != "EOS 60D" {
		t.Errorf("enrichment columns = %q/%q, want Canon/EOS 60D", camMake.String, camModel.String)
	}
}

func TestImportSurvivesEnrichmentFailure(t *testing.T) {
	a := newTestArchive(t)
	loc := addTestLocation(t, a)
	ctx := context.Background()

	a.SetEnricher(stubEnricher{err: errors.New("no parseable metadata")})

	source := writeTempFile(t, "photo.jpg", []byte("image with hostile exif"))
	result, err := a.Import(ctx, source, loc, ImportOptions{})
	if err != nil {
		t.Fatalf("Import() must succeed despite enrichment failure: %v", err)
	}
	if !result.Verified {
		t.Error("import not verified")
	}
}
