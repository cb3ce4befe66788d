// internal/core/ports/ports.go
package ports

import (
	"context"

	"linkdeck/internal/core/domain"
)

// LinksAPI is the port to the remote profile-links service. The manager,
// saver and suggestion sync depend on this interface, never on the HTTP
// adapter directly.
type LinksAPI interface {
	// FetchLinks returns the profile's full link set, including pending
	// suggestions, their provenance and per-link versions.
	FetchLinks(ctx context.Context, profileID string) ([]domain.Link, error)

	// SaveLinks persists a snapshot with optimistic locking. On success the
	// new server version is returned. A stale expectedVersion yields a
	// *domain.ConflictError carrying the server's current version.
	SaveLinks(ctx context.Context, profileID string, links []domain.Link, expectedVersion int) (int, error)

	// ResolveSuggestion transitions a suggested link to active or rejected.
	// Accept returns the resulting active link; dismiss returns nil.
	ResolveSuggestion(ctx context.Context, profileID, linkID string, action domain.SuggestionAction) (*domain.Link, error)

	// EnableTipping arms the tipping feature for the profile. Best effort;
	// callers swallow the error.
	EnableTipping(ctx context.Context, profileID string) error
}

// Store is the local snapshot cache: the last successfully persisted link
// collection and its version, per profile.
type Store interface {
	SaveSnapshot(ctx context.Context, profileID string, links []domain.Link, version int) error
	LoadSnapshot(ctx context.Context, profileID string) ([]domain.Link, int, error)
	Close() error
}

// Notifier surfaces transient user-facing notices. Business no-ops are never
// reported through it; only recoverable conflicts and failed operations are.
type Notifier interface {
	Notice(msg string)
	Warn(msg string)
	Fail(msg string)
}
