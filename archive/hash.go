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
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

const (
	// dupePrefixLen is the number of hex characters of a digest used for
	// duplicate screening. Must match the substr() expression indexes in
	// schema.sql.
	dupePrefixLen = 12

	// namePrefixLen is the number of hex characters of a digest used in
	// archived file names.
	namePrefixLen = 8
)

func newHash() hash.Hash { return blake3.New() }

// Digest is a hex-encoded BLAKE3 hash of a file's full byte content,
// used as a content-identity proxy. Stored full-length in the catalog
// (64 characters); only short prefixes appear in file names.
type Digest string

// DupePrefix returns the truncated form used for duplicate screening.
func (d Digest) DupePrefix() string {
	if len(d) < dupePrefixLen {
		return string(d)
	}
	return string(d[:dupePrefixLen])
}

func (d Digest) namePrefix() string {
	if len(d) < namePrefixLen {
		return string(d)
	}
	return string(d[:namePrefixLen])
}

// HashFile streams the file at path through the content hasher and returns
// its digest. Inputs may be very large, so the file is never held resident
// in memory.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file to hash: %w", err)
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}
