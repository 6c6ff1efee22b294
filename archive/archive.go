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

// Package archive implements the archival import engine: it admits media
// files into a content-addressed directory tree under an archive root,
// keeping a relational catalog in lockstep with the filesystem. The catalog
// is the single source of truth for what exists; the filesystem is
// authoritative only for byte content.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Archive represents an opened archive root. The zero value is NOT valid;
// use Create() or Open() to obtain a valid value.
//
// The engine assumes a single-writer-at-a-time discipline per archive root;
// it does not implement distributed locking.
type Archive struct {
	ctx    context.Context
	cancel context.CancelFunc

	root string // path of the archive root directory
	id   uuid.UUID

	// The database handle and its mutex. High-volume imports can yield
	// "database is locked" errors when scanning rows while another query
	// writes; serializing write transactions through this mutex avoids that.
	db   *sql.DB
	dbMu sync.Mutex

	// optional post-import enrichment step; failures never affect imports
	enricher Enricher
}

func (a *Archive) String() string { return fmt.Sprintf("%s:%s", a.id, a.root) }
func (a *Archive) Root() string   { return a.root }
func (a *Archive) ID() uuid.UUID  { return a.id }

// SetEnricher installs the opaque metadata-enrichment collaborator that is
// invoked after each successful import. May be nil to disable enrichment.
func (a *Archive) SetEnricher(e Enricher) { a.enricher = e }

// Create creates and opens a new archive in the given root path, which need
// not already exist. If the path exists it must be a directory; if it already
// contains a catalog, fs.ErrExist is returned.
//
// Archives should always be Close()'d for a clean shutdown when done.
func Create(ctx context.Context, root string) (*Archive, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating archive root: %w", err)
	}
	if FileExists(filepath.Join(root, DBFilename)) {
		return nil, fmt.Errorf("%w: folder already contains an archive catalog: %s", fs.ErrExist, root)
	}
	return openAndProvision(ctx, root)
}

// Open opens an existing archive rooted at the given path. The catalog must
// already exist; use Create for new archives.
func Open(ctx context.Context, root string) (*Archive, error) {
	if !FileExists(filepath.Join(root, DBFilename)) {
		return nil, fmt.Errorf("%w: no archive catalog at %s", fs.ErrNotExist, root)
	}
	return openAndProvision(ctx, root)
}

func openAndProvision(ctx context.Context, root string) (*Archive, error) {
	db, err := openAndProvisionDB(ctx, root)
	if err != nil {
		return nil, err
	}

	id, err := loadArchiveID(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	a := &Archive{
		ctx:    ctx,
		cancel: cancel,
		root:   root,
		id:     id,
		db:     db,
	}

	Log.Info("opened archive",
		zap.String("root", root),
		zap.String("id", id.String()))

	return a, nil
}

// Close frees the resources of the archive. No imports may be in flight.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	a.cancel()
	if a.db != nil {
		if err := a.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			return fmt.Errorf("closing catalog database: %w", err)
		}
	}
	return nil
}

// FileExists returns true if file exists (and is accessible).
func FileExists(file string) bool {
	_, err := os.Stat(file)
	return !errors.Is(err, fs.ErrNotExist)
}
