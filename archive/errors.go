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
	"errors"
	"fmt"
	"io/fs"
)

// FailureKind classifies why an import was rejected or rolled back.
// Every failure maps to exactly one kind, so callers can branch on it
// without parsing error strings.
type FailureKind int

const (
	// FailureNotFound: the source path does not exist or is not a regular file.
	FailureNotFound FailureKind = iota + 1

	// FailureDuplicateContent: content with the same digest already exists in
	// the target category. The error carries a reference to the existing owner.
	FailureDuplicateContent

	// FailureIdentifierExhausted: identifier allocation collided past the
	// retry bound. Effectively only happens under catalog corruption.
	FailureIdentifierExhausted

	// FailureCopyError: copying bytes into the archive failed (disk full,
	// I/O fault). Any partial destination file has been removed.
	FailureCopyError

	// FailureCatalogError: the catalog could not be read or written. Any
	// already-copied destination file has been removed.
	FailureCatalogError

	// FailureVerificationMismatch: the archived copy's digest did not match
	// the source digest. Both the copy and its catalog row have been removed.
	FailureVerificationMismatch

	// FailurePermissionError: the filesystem denied access during layout
	// creation or copying.
	FailurePermissionError
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureDuplicateContent:
		return "duplicate_content"
	case FailureIdentifierExhausted:
		return "identifier_exhausted"
	case FailureCopyError:
		return "copy_error"
	case FailureCatalogError:
		return "catalog_error"
	case FailureVerificationMismatch:
		return "verification_mismatch"
	case FailurePermissionError:
		return "permission_error"
	}
	return "unknown"
}

// ImportError is the structured failure returned by Import. The engine has
// already performed all local rollback by the time one of these is returned,
// so callers never need to inspect partial state to clean up.
type ImportError struct {
	Kind FailureKind

	// Existing identifies the owner of the matching content when
	// Kind is FailureDuplicateContent; nil otherwise.
	Existing *MediaRef

	// Err is the underlying cause, if any.
	Err error
}

func (e *ImportError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("%s: content already archived as %s (media %s, location %s)",
			e.Kind, e.Existing.ArchivedName, e.Existing.MediaID, e.Existing.LocationID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *ImportError) Unwrap() error { return e.Err }

func failure(kind FailureKind, err error) *ImportError {
	return &ImportError{Kind: kind, Err: err}
}

// fsFailure maps a filesystem error to the permission kind when the OS
// denied access, and to fallback otherwise.
func fsFailure(fallback FailureKind, err error) *ImportError {
	if errors.Is(err, fs.ErrPermission) {
		return failure(FailurePermissionError, err)
	}
	return failure(fallback, err)
}
