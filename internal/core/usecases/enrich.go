// internal/core/usecases/enrich.go
package usecases

import (
	"linkdeck/internal/core/domain"
)

// tippingPlatformID is the payments platform that is both forced into the
// earnings section and triggers the tipping-enable side call on add. This is
// a business rule, not a general mechanism.
const tippingPlatformID = "venmo"

// EnrichService normalizes a freshly detected link into the managed shape
// and enforces the per-section visibility cap.
type EnrichService struct {
	maxSocialLinks int
}

// NewEnrichService creates the service. maxSocialLinks below 1 is clamped.
func NewEnrichService(maxSocialLinks int) *EnrichService {
	if maxSocialLinks < 1 {
		maxSocialLinks = 1
	}
	return &EnrichService{maxSocialLinks: maxSocialLinks}
}

// Enrich applies the managed-link defaults: visible, validated, and the
// forced earnings category for the payments platform regardless of its
// nominal category.
func (s *EnrichService) Enrich(link domain.Link) domain.Link {
	link.IsVisible = true
	link.IsValid = link.Validate() == nil

	if link.Platform.ID == tippingPlatformID {
		link.Platform.Category = string(domain.SectionEarnings)
	}
	if link.State == "" {
		link.State = domain.LinkStateActive
	}

	return link
}

// ShouldBeVisible reports whether a link added to the section may be created
// visible. Only the social section carries a cap: once maxSocialLinks links
// are visible there, newcomers start hidden.
func (s *EnrichService) ShouldBeVisible(links []domain.Link, section domain.Section) bool {
	if section != domain.SectionSocial {
		return true
	}

	visible := 0
	for i := range links {
		if links[i].Section() == domain.SectionSocial && links[i].IsVisible {
			visible++
		}
	}
	return visible < s.maxSocialLinks
}

// ApplyVisibility returns the link unchanged when visible, otherwise a copy
// with IsVisible cleared. Never mutates the input.
func (s *EnrichService) ApplyVisibility(link domain.Link, visible bool) domain.Link {
	if visible {
		return link
	}
	link.IsVisible = false
	return link
}
