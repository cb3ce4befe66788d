// internal/core/usecases/enrich_test.go
package usecases

import (
	"testing"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/testutil"
)

func socialLink(id string, visible bool) domain.Link {
	return domain.Link{
		ID:            id,
		Platform:      domain.Platform{ID: "instagram", Category: "social", Rank: 1},
		NormalizedURL: "https://instagram.com/" + id,
		IsVisible:     visible,
	}
}

func TestEnrichDefaults(t *testing.T) {
	svc := NewEnrichService(8)

	link := domain.Link{
		Platform:      domain.Platform{ID: "instagram", Category: "social"},
		NormalizedURL: "https://instagram.com/sarah",
	}

	out := svc.Enrich(link)

	testutil.AssertTrue(t, out.IsVisible, "created visible")
	testutil.AssertTrue(t, out.IsValid, "valid url")
	testutil.AssertEqual(t, out.State, domain.LinkStateActive, "default state")
}

func TestEnrichFlagsInvalidURL(t *testing.T) {
	svc := NewEnrichService(8)

	out := svc.Enrich(domain.Link{
		Platform:      domain.Platform{ID: "website", Category: "websites"},
		NormalizedURL: "not a url",
	})

	testutil.AssertFalse(t, out.IsValid, "invalid url flagged")
	testutil.AssertTrue(t, out.IsVisible, "still created visible")
}

func TestEnrichForcesTippingIntoEarnings(t *testing.T) {
	svc := NewEnrichService(8)

	// Venmo mislabeled as social must land in earnings anyway.
	out := svc.Enrich(domain.Link{
		Platform:      domain.Platform{ID: "venmo", Category: "social"},
		NormalizedURL: "https://venmo.com/sarah",
	})

	testutil.AssertEqual(t, out.Section(), domain.SectionEarnings, "forced section")
}

func TestEnrichKeepsSuggestedState(t *testing.T) {
	svc := NewEnrichService(8)

	out := svc.Enrich(domain.Link{
		Platform:      domain.Platform{ID: "instagram", Category: "social"},
		NormalizedURL: "https://instagram.com/sarah",
		State:         domain.LinkStateSuggested,
	})

	testutil.AssertEqual(t, out.State, domain.LinkStateSuggested, "existing state kept")
}

func TestShouldBeVisibleSocialCap(t *testing.T) {
	svc := NewEnrichService(2)

	links := []domain.Link{socialLink("a", true)}
	testutil.AssertTrue(t, svc.ShouldBeVisible(links, domain.SectionSocial), "below cap")

	links = append(links, socialLink("b", true))
	testutil.AssertFalse(t, svc.ShouldBeVisible(links, domain.SectionSocial), "at cap")

	// Hidden links do not count against the cap.
	links[1].IsVisible = false
	testutil.AssertTrue(t, svc.ShouldBeVisible(links, domain.SectionSocial), "hidden excluded")
}

func TestShouldBeVisibleOtherSectionsUncapped(t *testing.T) {
	svc := NewEnrichService(1)

	links := []domain.Link{
		{Platform: domain.Platform{ID: "spotify", Category: "dsp"}, IsVisible: true},
		{Platform: domain.Platform{ID: "apple_music", Category: "dsp"}, IsVisible: true},
	}

	testutil.AssertTrue(t, svc.ShouldBeVisible(links, domain.SectionDSP), "dsp uncapped")
	testutil.AssertTrue(t, svc.ShouldBeVisible(links, domain.SectionEarnings), "earnings uncapped")
	testutil.AssertTrue(t, svc.ShouldBeVisible(links, domain.SectionCustom), "custom uncapped")
}

func TestApplyVisibility(t *testing.T) {
	svc := NewEnrichService(8)
	link := socialLink("a", true)

	kept := svc.ApplyVisibility(link, true)
	testutil.AssertTrue(t, kept.IsVisible, "visible kept")

	hidden := svc.ApplyVisibility(link, false)
	testutil.AssertFalse(t, hidden.IsVisible, "hidden applied")
	testutil.AssertTrue(t, link.IsVisible, "input not mutated")
}
