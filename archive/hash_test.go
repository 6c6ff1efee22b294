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
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashFile(t *testing.T) {
	path := writeTempFile(t, "photo.jpg", []byte("these are the file bytes"))

	d1, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if len(d1) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(d1))
	}

	// same content hashes the same, regardless of the file's name
	other := writeTempFile(t, "photo_copy.jpg", []byte("these are the file bytes"))
	d2, err := HashFile(other)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if d1 != d2 {
		t.Errorf("identical content produced different digests: %s vs %s", d1, d2)
	}

	// different content hashes differently
	changed := writeTempFile(t, "photo.jpg", []byte("these are different bytes"))
	d3, err := HashFile(changed)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if d3 == d1 {
		t.Error("different content produced the same digest")
	}
}

func TestHashFileMissing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDigestPrefixes(t *testing.T) {
	if p := testDigest.DupePrefix(); p != "abc123def456" {
		t.Errorf("DupePrefix() = %q, want %q", p, "abc123def456")
	}
	if p := testDigest.namePrefix(); p != "abc123de" {
		t.Errorf("namePrefix() = %q, want %q", p, "abc123de")
	}
	// short digests don't panic
	if p := Digest("abcd").DupePrefix(); p != "abcd" {
		t.Errorf("DupePrefix() on short digest = %q", p)
	}
}
