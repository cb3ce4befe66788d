// internal/core/domain/link.go
package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Link represents one outbound destination shown on a creator's public
// profile. It is the central entity of linkdeck.
type Link struct {
	// ID is a stable identifier, preserved across merges.
	ID string `json:"id"`

	// Platform is the reference data for the destination type.
	Platform Platform `json:"platform"`

	// NormalizedURL is the canonical URL; OriginalURL is as entered.
	NormalizedURL string `json:"normalizedUrl"`
	OriginalURL   string `json:"originalUrl"`

	// SuggestedTitle is the display label.
	SuggestedTitle string `json:"suggestedTitle"`

	// IsVisible controls public display; IsValid records URL validation.
	IsVisible bool `json:"isVisible"`
	IsValid   bool `json:"isValid"`

	// Order is the position within the link's section.
	Order int `json:"order"`

	// State distinguishes confirmed links from pending suggestions.
	State LinkState `json:"state"`

	// Version is the optimistic-concurrency counter last seen for this link.
	Version int `json:"version"`

	// Provenance, attached only to suggested links.
	SuggestionID   string  `json:"suggestionId,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	SourcePlatform string  `json:"sourcePlatform,omitempty"`
	SourceType     string  `json:"sourceType,omitempty"`
	Evidence       string  `json:"evidence,omitempty"`
}

// NewLink builds an active link from a platform and an already-normalized URL.
func NewLink(platform Platform, normalizedURL, originalURL, title string) *Link {
	l := &Link{
		ID:             uuid.NewString(),
		Platform:       platform,
		NormalizedURL:  normalizedURL,
		OriginalURL:    originalURL,
		SuggestedTitle: title,
		State:          LinkStateActive,
	}
	l.IsValid = l.Validate() == nil
	return l
}

// Validate checks that the normalized URL is a usable absolute URL.
func (l *Link) Validate() error {
	if strings.TrimSpace(l.NormalizedURL) == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(l.NormalizedURL)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Section returns the display section the link belongs to.
func (l *Link) Section() Section {
	return l.Platform.Section()
}

// CanonicalID derives the stable identity key used for duplicate matching:
// platform id plus a platform-specific handle extracted from the URL. Two
// links with equal CanonicalID are the same link, whatever the superficial
// URL differences.
func (l *Link) CanonicalID() string {
	return l.Platform.ID + ":" + canonicalHandle(l.NormalizedURL)
}

// Merge adopts the incoming link's normalized URL and title while preserving
// this link's identity, original URL, order, visibility and state. This is
// how re-adding an existing link refreshes it without creating a second
// entry.
func (l *Link) Merge(incoming *Link) error {
	if l.CanonicalID() != incoming.CanonicalID() {
		return ErrIdentityMismatch
	}
	l.NormalizedURL = incoming.NormalizedURL
	l.SuggestedTitle = incoming.SuggestedTitle
	return nil
}

// EqualValue reports value equality for snapshot reconciliation: id, URL
// pair, title, visibility, category and platform id. Order and provenance
// are ignored so a server round-trip does not force a spurious state
// replace.
func (l *Link) EqualValue(other *Link) bool {
	return l.ID == other.ID &&
		l.NormalizedURL == other.NormalizedURL &&
		l.OriginalURL == other.OriginalURL &&
		l.SuggestedTitle == other.SuggestedTitle &&
		l.IsVisible == other.IsVisible &&
		l.Platform.Category == other.Platform.Category &&
		l.Platform.ID == other.Platform.ID
}

// Clone returns a copy of the link.
func (l *Link) Clone() Link {
	return *l
}

// IsSuggestion reports whether the link is a pending suggestion.
func (l *Link) IsSuggestion() bool {
	return l.State == LinkStateSuggested
}

// String returns a readable representation of the link.
func (l *Link) String() string {
	return fmt.Sprintf("[%s/%s] %s (visible: %v, order: %d)",
		l.Section(), l.Platform.ID, l.NormalizedURL, l.IsVisible, l.Order)
}

// CloneLinks deep-copies a link slice.
func CloneLinks(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	return out
}

// EqualValueLinks reports pairwise value equality of two snapshots.
func EqualValueLinks(a, b []Link) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].EqualValue(&b[i]) {
			return false
		}
	}
	return true
}

// MaxVersion returns the highest version across the links, or 0.
func MaxVersion(links []Link) int {
	max := 0
	for i := range links {
		if links[i].Version > max {
			max = links[i].Version
		}
	}
	return max
}

// pathStyleSegments are first segments that qualify the handle rather than
// being the handle, as in youtube.com/channel/UCxxxx or youtube.com/user/name.
var pathStyleSegments = map[string]bool{
	"channel": true,
	"user":    true,
	"c":       true,
	"artist":  true,
	"add":     true,
}

// canonicalHandle extracts the handle part of the identity from a normalized
// URL. Handle-based platforms use the first path segment; channel/user style
// URLs keep two segments; URLs without a path fall back to the host.
func canonicalHandle(normalizedURL string) string {
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(normalizedURL))
	}

	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return host
	}

	segments := strings.Split(path, "/")
	first := strings.ToLower(segments[0])

	if pathStyleSegments[first] && len(segments) > 1 {
		return first + "/" + strings.ToLower(segments[1])
	}

	return strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(first, "@"), "$"))
}
