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
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSlugLen bounds the human-readable slug used in folder names.
const maxSlugLen = 12

// Location is a physical site in the catalog. The import engine reads
// locations to resolve archive paths; the only location field it ever
// mutates is the denormalized Updated timestamp.
type Location struct {
	ID        uuid.UUID
	Name      string
	Slug      string // human-readable, <= 12 chars, used in paths
	State     string
	Type      string
	Subtype   string
	Latitude  *float64
	Longitude *float64
	Status    string
	Explored  bool
	Created   time.Time
	Updated   time.Time
	Author    string
}

// Sublocation is a named area within a location (a wing, outbuilding, etc.)
// that media can optionally be attributed to.
type Sublocation struct {
	ID         uuid.UUID
	LocationID uuid.UUID
	Name       string
	Slug       string
	Created    time.Time
}

// ErrLocationNotFound is returned by location lookups that match no row.
var ErrLocationNotFound = errors.New("location not found")

// AddLocation inserts a new location into the catalog. If loc.ID is the zero
// UUID an identifier is allocated; Created and Updated are set to now.
func (a *Archive) AddLocation(ctx context.Context, loc *Location) error {
	if loc == nil {
		return errors.New("missing location")
	}
	if loc.Slug == "" || len(loc.Slug) > maxSlugLen {
		return fmt.Errorf("slug must be 1-%d characters: %q", maxSlugLen, loc.Slug)
	}
	if safePathComponent(loc.Slug) != loc.Slug {
		return fmt.Errorf("slug contains characters unsafe for paths: %q", loc.Slug)
	}
	if loc.State == "" || loc.Type == "" {
		return errors.New("location state and type are required")
	}

	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if loc.ID == (uuid.UUID{}) {
		loc.ID, err = allocateID(ctx, tx, "locations")
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	loc.Created, loc.Updated = now, now

	_, err = tx.ExecContext(ctx, `INSERT INTO locations
		(id, name, slug, state, type, subtype, latitude, longitude, status, explored, created, updated, author)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ID.String(), loc.Name, loc.Slug, loc.State, loc.Type,
		nullString(loc.Subtype), loc.Latitude, loc.Longitude,
		loc.Status, loc.Explored, now.Unix(), now.Unix(), nullString(loc.Author))
	if err != nil {
		return fmt.Errorf("inserting location: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing location: %w", err)
	}

	Log.Info("added location",
		zap.String("id", loc.ID.String()),
		zap.String("slug", loc.Slug))

	return nil
}

// AddSublocation inserts a new sub-location under an existing location.
func (a *Archive) AddSublocation(ctx context.Context, sub *Sublocation) error {
	if sub == nil {
		return errors.New("missing sublocation")
	}
	if sub.LocationID == (uuid.UUID{}) {
		return errors.New("sublocation requires an owning location")
	}

	a.dbMu.Lock()
	defer a.dbMu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if sub.ID == (uuid.UUID{}) {
		sub.ID, err = allocateID(ctx, tx, "sublocations")
		if err != nil {
			return err
		}
	}

	sub.Created = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `INSERT INTO sublocations (id, location_id, name, slug, created) VALUES (?, ?, ?, ?, ?)`,
		sub.ID.String(), sub.LocationID.String(), sub.Name, sub.Slug, sub.Created.Unix())
	if err != nil {
		return fmt.Errorf("inserting sublocation: %w", err)
	}

	return tx.Commit()
}

// LocationByID looks up a location by its identifier.
func (a *Archive) LocationByID(ctx context.Context, id uuid.UUID) (*Location, error) {
	return a.loadLocation(ctx, `WHERE id=?`, id.String())
}

// LocationBySlug looks up a location by its slug.
func (a *Archive) LocationBySlug(ctx context.Context, slug string) (*Location, error) {
	return a.loadLocation(ctx, `WHERE slug=?`, slug)
}

// ResolveLocation looks up a location by identifier if key parses as a UUID,
// and by slug otherwise.
func (a *Archive) ResolveLocation(ctx context.Context, key string) (*Location, error) {
	if id, err := uuid.Parse(key); err == nil {
		return a.LocationByID(ctx, id)
	}
	return a.LocationBySlug(ctx, key)
}

func (a *Archive) loadLocation(ctx context.Context, where string, arg any) (*Location, error) {
	row := a.db.QueryRowContext(ctx, `SELECT id, name, slug, state, type, subtype,
		latitude, longitude, status, explored, created, updated, author
		FROM locations `+where+` LIMIT 1`, arg)
	loc, err := scanLocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	return loc, err
}

// Locations lists every location in the catalog, ordered by slug.
func (a *Archive) Locations(ctx context.Context) ([]*Location, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, name, slug, state, type, subtype,
		latitude, longitude, status, explored, created, updated, author
		FROM locations ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var locs []*Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*Location, error) {
	var loc Location
	var idStr string
	var subtype, author sql.NullString
	var created, updated int64

	err := row.Scan(&idStr, &loc.Name, &loc.Slug, &loc.State, &loc.Type, &subtype,
		&loc.Latitude, &loc.Longitude, &loc.Status, &loc.Explored, &created, &updated, &author)
	if err != nil {
		return nil, err
	}

	loc.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("malformed location id %s: %w", idStr, err)
	}
	loc.Subtype = subtype.String
	loc.Author = author.String
	loc.Created = time.Unix(created, 0).UTC()
	loc.Updated = time.Unix(updated, 0).UTC()

	return &loc, nil
}

// DeleteLocation removes a location row; the catalog cascades deletion to
// its sublocations and media rows. Archived files under the location's
// layout are removed best-effort: a leftover file on disk is survivable
// clutter, never a catalog consistency violation.
func (a *Archive) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	loc, err := a.LocationByID(ctx, id)
	if err != nil {
		return err
	}

	a.dbMu.Lock()
	_, err = a.db.ExecContext(ctx, `DELETE FROM locations WHERE id=?`, id.String())
	a.dbMu.Unlock()
	if err != nil {
		return fmt.Errorf("deleting location row: %w", err)
	}

	dir := a.locationDir(loc)
	if err := os.RemoveAll(dir); err != nil {
		Log.Warn("could not remove archived files for deleted location; leaving as clutter",
			zap.String("location", id.String()),
			zap.String("dir", dir),
			zap.Error(err))
	}

	return nil
}

// touchLocation bumps the denormalized last-updated timestamp of a location.
// This is one of the only catalog updates the import engine performs.
func touchLocation(ctx context.Context, q querier, id uuid.UUID, now time.Time) error {
	_, err := q.ExecContext(ctx, `UPDATE locations SET updated=? WHERE id=?`, now.Unix(), id.String())
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
