// internal/core/usecases/duplicates.go
package usecases

import (
	"linkdeck/internal/core/domain"
)

// DuplicateService detects canonical-identity duplicates and merges them.
// Identity equality is the sole duplicate criterion.
type DuplicateService struct {
	catalog *domain.Catalog
}

// NewDuplicateService creates the service.
func NewDuplicateService(catalog *domain.Catalog) *DuplicateService {
	return &DuplicateService{catalog: catalog}
}

// DuplicateMatch describes a found duplicate.
type DuplicateMatch struct {
	// Index of the duplicate in the scanned collection.
	Index int

	// Duplicate is the matched existing link.
	Duplicate domain.Link

	// Section is the matched link's section.
	Section domain.Section

	// CrossSection is true only when the duplicate sits in a different
	// section than the target AND the platform is cross-category eligible.
	// In that case the caller must not merge; it prompts instead.
	CrossSection bool
}

// Find scans the collection for a canonical-identity match against the
// candidate. Returns nil when no duplicate exists.
func (s *DuplicateService) Find(candidate domain.Link, links []domain.Link, target domain.Section) *DuplicateMatch {
	id := candidate.CanonicalID()

	for i := range links {
		if links[i].CanonicalID() != id {
			continue
		}

		section := links[i].Section()
		cross := section != target && s.catalog.IsCrossCategory(candidate.Platform.ID)

		return &DuplicateMatch{
			Index:        i,
			Duplicate:    links[i],
			Section:      section,
			CrossSection: cross,
		}
	}

	return nil
}

// MergeAt merges the incoming link into the collection entry at index,
// in place. The existing entry keeps its id, order, visibility and state;
// only URL and title are adopted. Idempotent.
func (s *DuplicateService) MergeAt(links []domain.Link, index int, incoming domain.Link) (domain.Link, error) {
	if index < 0 || index >= len(links) {
		return domain.Link{}, domain.ErrIndexOutOfRange
	}
	if err := links[index].Merge(&incoming); err != nil {
		return domain.Link{}, err
	}
	return links[index], nil
}
