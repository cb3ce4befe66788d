// internal/core/domain/suggestion.go
package domain

import (
	"sort"
	"strings"
)

// FilterSuggested returns the pending suggestions from a full server link set.
func FilterSuggested(links []Link) []Link {
	out := make([]Link, 0)
	for i := range links {
		if links[i].State == LinkStateSuggested {
			out = append(out, links[i])
		}
	}
	return out
}

// Signature computes an order-independent fingerprint of a suggestion list
// (platform id + normalized URL). The sync loop replaces the local pending
// list only when the signature changes.
func Signature(links []Link) string {
	keys := make([]string, 0, len(links))
	for i := range links {
		keys = append(keys, links[i].Platform.ID+"|"+links[i].NormalizedURL)
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

// RemoveSuggestion returns the list without the suggestion matching the id.
func RemoveSuggestion(links []Link, suggestionID string) []Link {
	out := make([]Link, 0, len(links))
	for i := range links {
		if links[i].SuggestionID == suggestionID && suggestionID != "" {
			continue
		}
		if links[i].ID == suggestionID {
			continue
		}
		out = append(out, links[i])
	}
	return out
}
