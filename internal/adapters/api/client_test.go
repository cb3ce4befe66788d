// internal/adapters/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/platform/httpclient"
	"linkdeck/internal/platform/logx"
	"linkdeck/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	hc := httpclient.New(cfg, logx.Discard())

	return New(hc, server.URL, domain.DefaultCatalog(), logx.Discard())
}

func TestFetchLinks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Method, http.MethodGet, "method")
		testutil.AssertEqual(t, r.URL.Path, "/profiles/profile-1/links", "path")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"links": []map[string]any{
				{
					"id":          "l1",
					"platform":    "instagram",
					"platformType": "social",
					"url":         "https://instagram.com/sarah",
					"displayText": "My IG",
					"sortOrder":   0,
					"isActive":    true,
					"state":       "active",
					"version":     4,
				},
				{
					"id":             "l2",
					"platform":       "spotify",
					"platformType":   "dsp",
					"url":            "https://open.spotify.com/artist/xyz",
					"sortOrder":      0,
					"isActive":       false,
					"state":          "suggested",
					"version":        5,
					"suggestionId":   "sug-1",
					"confidence":     0.92,
					"sourcePlatform": "linktree",
					"sourceType":     "bio",
				},
			},
		})
	})

	links, err := client.FetchLinks(context.Background(), "profile-1")
	testutil.AssertNoError(t, err, "fetch")
	testutil.AssertEqual(t, len(links), 2, "two links")

	ig := links[0]
	testutil.AssertEqual(t, ig.Platform.ID, "instagram", "platform resolved from catalog")
	testutil.AssertEqual(t, ig.Platform.Rank, 1, "catalog rank attached")
	testutil.AssertEqual(t, ig.SuggestedTitle, "My IG", "title mapped")
	testutil.AssertTrue(t, ig.IsVisible, "visibility mapped")
	testutil.AssertEqual(t, ig.Version, 4, "version mapped")

	sug := links[1]
	testutil.AssertEqual(t, sug.State, domain.LinkStateSuggested, "state mapped")
	testutil.AssertEqual(t, sug.SuggestionID, "sug-1", "provenance mapped")
	testutil.AssertEqual(t, sug.SourcePlatform, "linktree", "source mapped")

	testutil.AssertEqual(t, domain.MaxVersion(links), 5, "max version across payload")
}

func TestFetchLinksUnknownPlatformDegrades(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"links": []map[string]any{
				{
					"id":           "l1",
					"platform":     "brand-new-network",
					"platformType": "social",
					"url":          "https://brandnew.example/sarah",
					"isActive":     true,
				},
			},
		})
	})

	links, err := client.FetchLinks(context.Background(), "profile-1")
	testutil.AssertNoError(t, err, "fetch")
	testutil.AssertEqual(t, links[0].Platform.ID, "brand-new-network", "id kept")
	testutil.AssertEqual(t, links[0].Section(), domain.SectionSocial, "section from server category")
}

func TestSaveLinksSuccess(t *testing.T) {
	var received saveRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Method, http.MethodPut, "method")
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]int{"version": 6})
	})

	c := domain.DefaultCatalog()
	ig, _ := c.Platform("instagram")
	link := *domain.NewLink(ig, "https://instagram.com/sarah", "instagram.com/sarah", "IG")

	version, err := client.SaveLinks(context.Background(), "profile-1", []domain.Link{link}, 5)
	testutil.AssertNoError(t, err, "save")
	testutil.AssertEqual(t, version, 6, "new version returned")

	testutil.AssertEqual(t, received.ProfileID, "profile-1", "profile in body")
	testutil.AssertEqual(t, received.ExpectedVersion, 5, "expected version in body")
	testutil.AssertEqual(t, len(received.Links), 1, "links in body")
	testutil.AssertEqual(t, received.Links[0].Platform, "instagram", "platform id on the wire")
	testutil.AssertEqual(t, received.Links[0].PlatformType, "social", "category on the wire")
}

func TestSaveLinksConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]int{"currentVersion": 9})
	})

	_, err := client.SaveLinks(context.Background(), "profile-1", nil, 5)
	testutil.AssertError(t, err, "conflict")

	var conflict *domain.ConflictError
	testutil.AssertTrue(t, errors.As(err, &conflict), "typed conflict error")
	testutil.AssertEqual(t, conflict.CurrentVersion, 9, "server version carried")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrVersionConflict), "sentinel match")
}

func TestSaveLinksServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "db down"})
	})

	_, err := client.SaveLinks(context.Background(), "profile-1", nil, 5)
	testutil.AssertError(t, err, "server error")
	testutil.AssertContains(t, err.Error(), "db down", "server message surfaced")
}

func TestResolveSuggestion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Method, http.MethodPost, "method")
		testutil.AssertEqual(t, r.URL.Path, "/profiles/profile-1/links/l2/action", "path")

		var req actionRequest
		json.NewDecoder(r.Body).Decode(&req)
		testutil.AssertEqual(t, req.Action, "accept", "action in body")

		json.NewEncoder(w).Encode(map[string]any{
			"link": map[string]any{
				"id":       "l2",
				"platform": "spotify",
				"url":      "https://open.spotify.com/artist/xyz",
				"isActive": true,
				"state":    "active",
			},
		})
	})

	link, err := client.ResolveSuggestion(context.Background(), "profile-1", "l2", domain.ActionAccept)
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertNotNil(t, link, "link returned")
	testutil.AssertEqual(t, link.State, domain.LinkStateActive, "promoted state")
}

func TestResolveSuggestionInvalidAction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid action")
	})

	_, err := client.ResolveSuggestion(context.Background(), "profile-1", "l2", domain.SuggestionAction("explode"))
	testutil.AssertError(t, err, "invalid action rejected locally")
}

func TestEnableTipping(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		testutil.AssertEqual(t, r.URL.Path, "/profiles/profile-1/features/tipping", "path")
		w.WriteHeader(http.StatusNoContent)
	})

	testutil.AssertNoError(t, client.EnableTipping(context.Background(), "profile-1"), "tipping")
	testutil.AssertTrue(t, called, "endpoint hit")
}

func TestConflictBypassesRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]int{"currentVersion": 2})
	}))
	t.Cleanup(server.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 3
	hc := httpclient.New(cfg, logx.Discard())
	client := New(hc, server.URL, domain.DefaultCatalog(), logx.Discard())

	_, err := client.SaveLinks(context.Background(), "profile-1", nil, 1)
	testutil.AssertError(t, err, "conflict")
	testutil.AssertEqual(t, attempts, 1, "409 must not be retried")
}
