// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors.
var (
	// Link errors
	ErrEmptyURL         = errors.New("link URL cannot be empty")
	ErrInvalidURL       = errors.New("invalid link URL")
	ErrUnknownPlatform  = errors.New("unknown platform id")
	ErrIdentityMismatch = errors.New("cannot merge links with different canonical identities")

	// Collection errors
	ErrIndexOutOfRange = errors.New("link index out of range")
	ErrNoPendingPrompt = errors.New("no cross-category prompt pending")

	// Persistence errors
	ErrVersionConflict = errors.New("link collection version conflict")
	ErrSaveFailed      = errors.New("failed to save link collection")

	// Suggestion errors
	ErrSuggestionFailed = errors.New("suggestion action failed")

	// Catalog errors
	ErrCatalogLoadFailed  = errors.New("failed to load platform catalog")
	ErrCatalogParseFailed = errors.New("failed to parse platform catalog")
)

// ConflictError is returned by the persist endpoint on a stale write. It
// carries the server's current version so the caller can adopt it.
type ConflictError struct {
	CurrentVersion int
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: server is at version %d", e.CurrentVersion)
}

// Is lets errors.Is(err, ErrVersionConflict) match a ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}
