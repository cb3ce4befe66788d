// internal/core/usecases/manager_test.go
package usecases

import (
	"context"
	"testing"
	"time"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/testutil"
)

func newTestManager(t *testing.T, maxSocial int) (*Manager, *testutil.MockAPI) {
	t.Helper()
	api := &testutil.MockAPI{}
	m := NewManager(ManagerOptions{
		MaxSocialLinks: maxSocial,
		AddDelay:       0,
		API:            api,
		ProfileID:      "profile-1",
	})
	return m, api
}

func mustAdd(t *testing.T, m *Manager, platformID, url string) domain.Link {
	t.Helper()
	result, link := m.Add(context.Background(), catalogLink(t, domain.DefaultCatalog(), platformID, url))
	if result != AddAppended {
		t.Fatalf("expected append for %s %s, got %v", platformID, url, result)
	}
	return *link
}

func TestAddAppendsNewLink(t *testing.T) {
	m, _ := newTestManager(t, 8)

	link := mustAdd(t, m, "instagram", "https://instagram.com/sarah")

	links := m.Links()
	testutil.AssertEqual(t, len(links), 1, "one link")
	testutil.AssertTrue(t, links[0].IsVisible, "visible")
	testutil.AssertEqual(t, links[0].ID, link.ID, "returned link matches")
}

func TestAddMergesURLVariantInsteadOfDuplicating(t *testing.T) {
	m, _ := newTestManager(t, 8)

	first := mustAdd(t, m, "instagram", "https://instagram.com/sarahmusic")

	c := domain.DefaultCatalog()
	variant := catalogLink(t, c, "instagram", "https://instagram.com/sarahmusic")
	variant.OriginalURL = "https://www.instagram.com/sarahmusic/"
	variant.SuggestedTitle = "Updated"

	result, merged := m.Add(context.Background(), variant)
	testutil.AssertEqual(t, result, AddMerged, "merged")
	testutil.AssertEqual(t, merged.ID, first.ID, "identity kept")

	links := m.Links()
	testutil.AssertEqual(t, len(links), 1, "still one entry")
	testutil.AssertEqual(t, links[0].SuggestedTitle, "Updated", "title refreshed")
}

func TestAddIgnoresSecondAccountOnOrdinaryPlatform(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")

	result, _ := m.Add(context.Background(),
		catalogLink(t, domain.DefaultCatalog(), "instagram", "https://instagram.com/sarah_alt"))
	testutil.AssertEqual(t, result, AddIgnored, "second account ignored")
	testutil.AssertEqual(t, len(m.Links()), 1, "collection unchanged")
}

func TestSocialCapHidesOverflow(t *testing.T) {
	m, _ := newTestManager(t, 2)

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	mustAdd(t, m, "tiktok", "https://tiktok.com/@sarah")
	third := mustAdd(t, m, "twitter", "https://x.com/sarah")

	testutil.AssertFalse(t, third.IsVisible, "overflow link created hidden")

	visible := 0
	for _, l := range m.Links() {
		if l.IsVisible {
			visible++
		}
	}
	testutil.AssertEqual(t, visible, 2, "cap held")
}

func TestZeroSocialCapOptionMeansDefault(t *testing.T) {
	m, _ := newTestManager(t, 0)

	adds := []struct{ platform, url string }{
		{"instagram", "https://instagram.com/sarah"},
		{"tiktok", "https://tiktok.com/@sarah"},
		{"youtube", "https://youtube.com/@sarah"},
		{"twitter", "https://x.com/sarah"},
		{"facebook", "https://facebook.com/sarah"},
		{"twitch", "https://twitch.tv/sarah"},
		{"snapchat", "https://snapchat.com/add/sarah"},
		{"threads", "https://threads.net/@sarah"},
	}
	for _, a := range adds {
		link := mustAdd(t, m, a.platform, a.url)
		testutil.AssertTrue(t, link.IsVisible, a.platform+" within default cap")
	}
}

func TestSocialCapDoesNotTouchOtherSections(t *testing.T) {
	m, _ := newTestManager(t, 1)

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	spotify := mustAdd(t, m, "spotify", "https://open.spotify.com/artist/xyz")
	apple := mustAdd(t, m, "apple_music", "https://music.apple.com/artist/xyz")

	testutil.AssertTrue(t, spotify.IsVisible, "dsp uncapped")
	testutil.AssertTrue(t, apple.IsVisible, "dsp uncapped")
}

func TestCrossCategoryPromptConfirm(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "youtube", "https://youtube.com/@sarah")

	result, _ := m.Add(context.Background(),
		catalogLink(t, domain.DefaultCatalog(), "youtube", "https://youtube.com/@sarah"))
	testutil.AssertEqual(t, result, AddPrompted, "prompt raised")

	prompt := m.Prompt()
	testutil.AssertNotNil(t, prompt, "prompt pending")
	testutil.AssertEqual(t, prompt.Target, domain.SectionDSP, "target is the paired section")
	testutil.AssertEqual(t, len(m.Links()), 1, "nothing added while pending")

	link, err := m.ConfirmCrossPrompt()
	testutil.AssertNoError(t, err, "confirm")
	testutil.AssertEqual(t, link.Section(), domain.SectionDSP, "copy lives in dsp")

	links := m.Links()
	testutil.AssertEqual(t, len(links), 2, "one entry per section")
	testutil.AssertTrue(t, m.Prompt() == nil, "prompt cleared")
}

func TestCrossCategoryPromptCancel(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "youtube", "https://youtube.com/@sarah")
	result, _ := m.Add(context.Background(),
		catalogLink(t, domain.DefaultCatalog(), "youtube", "https://youtube.com/@sarah"))
	testutil.AssertEqual(t, result, AddPrompted, "prompt raised")

	m.CancelCrossPrompt()
	testutil.AssertTrue(t, m.Prompt() == nil, "prompt cleared")
	testutil.AssertEqual(t, len(m.Links()), 1, "collection unchanged")

	_, err := m.ConfirmCrossPrompt()
	testutil.AssertTrue(t, err == domain.ErrNoPendingPrompt, "confirm without prompt")
}

func TestCrossCategoryBothSectionsFilledIgnores(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "youtube", "https://youtube.com/@sarah")
	result, _ := m.Add(context.Background(),
		catalogLink(t, domain.DefaultCatalog(), "youtube", "https://youtube.com/@sarah"))
	testutil.AssertEqual(t, result, AddPrompted, "prompt raised")
	_, err := m.ConfirmCrossPrompt()
	testutil.AssertNoError(t, err, "confirm")

	// Both sections now hold the platform: a third add is a no-op.
	result, _ = m.Add(context.Background(),
		catalogLink(t, domain.DefaultCatalog(), "youtube", "https://youtube.com/@sarah"))
	testutil.AssertEqual(t, result, AddIgnored, "both sections filled")
	testutil.AssertEqual(t, len(m.Links()), 2, "collection unchanged")
}

func TestVenmoLandsInEarningsAndArmsTipping(t *testing.T) {
	m, api := newTestManager(t, 8)

	c := domain.DefaultCatalog()
	venmo := catalogLink(t, c, "venmo", "https://venmo.com/sarah")
	venmo.Platform.Category = "social" // mislabel on purpose

	result, link := m.Add(context.Background(), venmo)
	testutil.AssertEqual(t, result, AddAppended, "appended")
	testutil.AssertEqual(t, link.Section(), domain.SectionEarnings, "forced to earnings")

	// The tipping side call is fire-and-forget; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for api.TippingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	testutil.AssertEqual(t, api.TippingCount(), 1, "tipping armed once")
}

func TestInsertOrderedByPopularityRank(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "twitter", "https://x.com/sarah")           // rank 4
	mustAdd(t, m, "instagram", "https://instagram.com/sarah") // rank 1
	mustAdd(t, m, "twitch", "https://twitch.tv/sarah")        // rank 6
	mustAdd(t, m, "tiktok", "https://tiktok.com/@sarah")      // rank 2

	links := m.Links()
	got := make([]string, len(links))
	for i, l := range links {
		got[i] = l.Platform.ID
	}

	want := []string{"instagram", "tiktok", "twitter", "twitch"}
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i], "rank order at position")
		testutil.AssertEqual(t, links[i].Order, i, "sequential order field")
	}
}

func TestAddRecheckMergesDuplicateThatAppearedDuringDelay(t *testing.T) {
	api := &testutil.MockAPI{}
	m := NewManager(ManagerOptions{
		MaxSocialLinks: 8,
		AddDelay:       80 * time.Millisecond,
		API:            api,
		ProfileID:      "profile-1",
	})

	c := domain.DefaultCatalog()
	candidate := catalogLink(t, c, "instagram", "https://instagram.com/sarah")

	done := make(chan AddResult, 1)
	go func() {
		result, _ := m.Add(context.Background(), candidate)
		done <- result
	}()

	// While the add is pacing, the same identity lands via a server sync.
	time.Sleep(20 * time.Millisecond)
	testutil.AssertTrue(t, m.Adding(), "pacing phase visible")
	m.SetLinks([]domain.Link{catalogLink(t, c, "instagram", "https://instagram.com/sarah")})

	result := <-done
	testutil.AssertEqual(t, result, AddMerged, "re-check merged instead of duplicating")
	testutil.AssertEqual(t, len(m.Links()), 1, "single entry")
}

func TestAddCancelledDuringDelay(t *testing.T) {
	m := NewManager(ManagerOptions{
		MaxSocialLinks: 8,
		AddDelay:       time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan AddResult, 1)
	go func() {
		result, _ := m.Add(ctx, catalogLink(t, domain.DefaultCatalog(), "instagram", "https://instagram.com/sarah"))
		done <- result
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	testutil.AssertEqual(t, <-done, AddIgnored, "cancelled add discarded")
	testutil.AssertEqual(t, len(m.Links()), 0, "nothing added")
	testutil.AssertFalse(t, m.Adding(), "pacing flag cleared")
}

func TestToggleDoesNotReenforceCap(t *testing.T) {
	m, _ := newTestManager(t, 1)

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	hidden := mustAdd(t, m, "tiktok", "https://tiktok.com/@sarah")
	testutil.AssertFalse(t, hidden.IsVisible, "second created hidden")

	links := m.Links()
	idx := -1
	for i, l := range links {
		if l.ID == hidden.ID {
			idx = i
		}
	}
	testutil.AssertNoError(t, m.Toggle(idx), "toggle")

	visible := 0
	for _, l := range m.Links() {
		if l.IsVisible {
			visible++
		}
	}
	testutil.AssertEqual(t, visible, 2, "manual toggle may exceed the cap")
}

func TestRemoveThenReaddIsAFreshLink(t *testing.T) {
	m, _ := newTestManager(t, 8)

	first := mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	testutil.AssertNoError(t, m.Remove(0), "remove")
	testutil.AssertEqual(t, len(m.Links()), 0, "removed")

	second := mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	testutil.AssertNotEqual(t, second.ID, first.ID, "no identity restore")
}

func TestEditStashesPrefillAndRemoves(t *testing.T) {
	m, _ := newTestManager(t, 8)

	c := domain.DefaultCatalog()
	candidate := catalogLink(t, c, "instagram", "https://instagram.com/sarah")
	candidate.OriginalURL = "www.instagram.com/sarah"
	result, _ := m.Add(context.Background(), candidate)
	testutil.AssertEqual(t, result, AddAppended, "appended")

	url, err := m.Edit(0)
	testutil.AssertNoError(t, err, "edit")
	testutil.AssertEqual(t, url, "www.instagram.com/sarah", "as-entered url stashed")
	testutil.AssertEqual(t, len(m.Links()), 0, "entry removed")

	testutil.AssertEqual(t, m.Prefill(), "www.instagram.com/sarah", "prefill readable once")
	testutil.AssertEqual(t, m.Prefill(), "", "prefill cleared after read")
}

func TestReorder(t *testing.T) {
	m, _ := newTestManager(t, 8)

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	mustAdd(t, m, "tiktok", "https://tiktok.com/@sarah")
	mustAdd(t, m, "twitter", "https://x.com/sarah")

	testutil.AssertNoError(t, m.Reorder(2, 0), "reorder")

	links := m.Links()
	testutil.AssertEqual(t, links[0].Platform.ID, "twitter", "moved to front")
	testutil.AssertEqual(t, links[0].Order, 0, "order renumbered")

	testutil.AssertError(t, m.Reorder(0, 9), "out of range")
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	m, _ := newTestManager(t, 8)

	var snapshots [][]domain.Link
	m.Subscribe(func(links []domain.Link) {
		snapshots = append(snapshots, links)
	})

	mustAdd(t, m, "instagram", "https://instagram.com/sarah")
	testutil.AssertTrue(t, len(snapshots) >= 1, "notified on add")
	testutil.AssertEqual(t, len(snapshots[len(snapshots)-1]), 1, "snapshot holds the link")

	// Subscriber mutations must not leak back into the manager.
	snapshots[0][0].NormalizedURL = "mutated"
	testutil.AssertNotEqual(t, m.Links()[0].NormalizedURL, "mutated", "snapshot isolated")
}

func TestAcceptIntoActiveAndDropSuggestion(t *testing.T) {
	m, _ := newTestManager(t, 8)

	c := domain.DefaultCatalog()
	suggestion := catalogLink(t, c, "spotify", "https://open.spotify.com/artist/xyz")
	suggestion.State = domain.LinkStateSuggested
	suggestion.SuggestionID = "sug-1"

	other := catalogLink(t, c, "tiktok", "https://tiktok.com/@sarah")
	other.State = domain.LinkStateSuggested
	other.SuggestionID = "sug-2"

	m.SetSuggested([]domain.Link{suggestion, other})

	m.AcceptIntoActive(suggestion, "sug-1")
	testutil.AssertEqual(t, len(m.Links()), 1, "accepted into active")
	testutil.AssertEqual(t, m.Links()[0].State, domain.LinkStateActive, "state flipped")
	testutil.AssertEqual(t, len(m.Suggested()), 1, "pending entry dropped")

	m.DropSuggestion("sug-2")
	testutil.AssertEqual(t, len(m.Suggested()), 0, "dismissed entry dropped")
}
