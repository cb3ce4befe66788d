// Package api implements ports.LinksAPI against the profile-links HTTP
// service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"linkdeck/internal/core/domain"
	"linkdeck/internal/platform/errors"
	"linkdeck/internal/platform/httpclient"
	"linkdeck/internal/platform/logx"
)

// Client talks to the remote links service.
type Client struct {
	http    *httpclient.Client
	baseURL string
	catalog *domain.Catalog
	logger  logx.Logger
}

// New creates an API client. baseURL is the service root, e.g.
// http://localhost:8080/api.
func New(httpClient *httpclient.Client, baseURL string, catalog *domain.Catalog, logger logx.Logger) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		catalog: catalog,
		logger:  logger.With("component", "api"),
	}
}

// linkPayload is the wire shape of a link, in both directions.
type linkPayload struct {
	ID             string  `json:"id,omitempty"`
	Platform       string  `json:"platform"`
	PlatformType   string  `json:"platformType"`
	URL            string  `json:"url"`
	OriginalURL    string  `json:"originalUrl,omitempty"`
	DisplayText    string  `json:"displayText,omitempty"`
	SortOrder      int     `json:"sortOrder"`
	IsActive       bool    `json:"isActive"`
	State          string  `json:"state,omitempty"`
	Version        int     `json:"version,omitempty"`
	SuggestionID   string  `json:"suggestionId,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	SourcePlatform string  `json:"sourcePlatform,omitempty"`
	SourceType     string  `json:"sourceType,omitempty"`
	Evidence       string  `json:"evidence,omitempty"`
}

type saveRequest struct {
	ProfileID       string        `json:"profileId"`
	Links           []linkPayload `json:"links"`
	ExpectedVersion int           `json:"expectedVersion"`
}

type saveResponse struct {
	Version int `json:"version"`
}

type conflictResponse struct {
	CurrentVersion int `json:"currentVersion"`
}

type fetchResponse struct {
	Links []linkPayload `json:"links"`
}

type actionRequest struct {
	ProfileID string `json:"profileId"`
	LinkID    string `json:"linkId"`
	Action    string `json:"action"`
}

type actionResponse struct {
	Link *linkPayload `json:"link"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// FetchLinks retrieves the profile's full link set, suggestions included.
func (c *Client) FetchLinks(ctx context.Context, profileID string) ([]domain.Link, error) {
	url := fmt.Sprintf("%s/profiles/%s/links", c.baseURL, profileID)

	resp, err := c.http.GetJSON(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "fetch links")
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, errors.Wrap(err, "fetch links")
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, errors.Wrap(err, "fetch links")
	}

	var payload fetchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "fetch links")
	}

	links := make([]domain.Link, 0, len(payload.Links))
	for _, p := range payload.Links {
		links = append(links, c.toDomain(p))
	}
	return links, nil
}

// SaveLinks persists links with optimistic locking. A 409 becomes a
// *domain.ConflictError carrying the server's current version.
func (c *Client) SaveLinks(ctx context.Context, profileID string, links []domain.Link, expectedVersion int) (int, error) {
	url := fmt.Sprintf("%s/profiles/%s/links", c.baseURL, profileID)

	req := saveRequest{
		ProfileID:       profileID,
		Links:           make([]linkPayload, 0, len(links)),
		ExpectedVersion: expectedVersion,
	}
	for i := range links {
		req.Links = append(req.Links, toPayload(&links[i]))
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, errors.Wrap(err, "save links")
	}

	resp, err := c.http.PutJSON(ctx, url, body)
	if err != nil {
		return 0, errors.Wrap(err, "save links")
	}

	respBody, err := httpclient.ReadBody(resp)
	if err != nil {
		return 0, errors.Wrap(err, "save links")
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		var conflict conflictResponse
		if err := json.Unmarshal(respBody, &conflict); err != nil {
			return 0, errors.Wrap(errors.ErrInvalidResponse, "save links conflict")
		}
		return 0, &domain.ConflictError{CurrentVersion: conflict.CurrentVersion}

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var ok saveResponse
		if err := json.Unmarshal(respBody, &ok); err != nil {
			return 0, errors.Wrap(errors.ErrInvalidResponse, "save links")
		}
		return ok.Version, nil

	default:
		return 0, errors.Wrapf(apiError(respBody, resp.StatusCode), "save links")
	}
}

// ResolveSuggestion accepts or dismisses a suggested link.
func (c *Client) ResolveSuggestion(ctx context.Context, profileID, linkID string, action domain.SuggestionAction) (*domain.Link, error) {
	if !action.IsValid() {
		return nil, errors.Wrap(errors.ErrInvalidInput, "resolve suggestion")
	}

	url := fmt.Sprintf("%s/profiles/%s/links/%s/action", c.baseURL, profileID, linkID)

	body, err := json.Marshal(actionRequest{
		ProfileID: profileID,
		LinkID:    linkID,
		Action:    action.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "resolve suggestion")
	}

	resp, err := c.http.PostJSON(ctx, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "resolve suggestion")
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		respBody, _ := httpclient.ReadBody(resp)
		return nil, errors.Wrapf(apiError(respBody, resp.StatusCode), "resolve suggestion")
	}

	respBody, err := httpclient.ReadBody(resp)
	if err != nil {
		return nil, errors.Wrap(err, "resolve suggestion")
	}

	var result actionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidResponse, "resolve suggestion")
	}

	if result.Link == nil {
		return nil, nil
	}
	link := c.toDomain(*result.Link)
	return &link, nil
}

// EnableTipping arms tipping for the profile.
func (c *Client) EnableTipping(ctx context.Context, profileID string) error {
	url := fmt.Sprintf("%s/profiles/%s/features/tipping", c.baseURL, profileID)

	body, err := json.Marshal(map[string]any{"profileId": profileID, "enabled": true})
	if err != nil {
		return errors.Wrap(err, "enable tipping")
	}

	resp, err := c.http.PostJSON(ctx, url, body)
	if err != nil {
		return errors.Wrap(err, "enable tipping")
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return errors.Wrap(err, "enable tipping")
	}
	resp.Body.Close()
	return nil
}

// toDomain maps a wire link to the domain model, resolving the platform
// through the catalog. Unknown platform ids degrade to a bare platform with
// the server-reported category so the link still renders.
func (c *Client) toDomain(p linkPayload) domain.Link {
	platform, ok := c.catalog.Platform(p.Platform)
	if !ok {
		c.logger.Debug("unknown platform id from server", "platform", p.Platform)
		platform = domain.Platform{
			ID:       p.Platform,
			Name:     p.Platform,
			Category: p.PlatformType,
		}
	}

	state := domain.LinkState(p.State)
	if !state.IsValid() {
		state = domain.LinkStateActive
	}

	original := p.OriginalURL
	if original == "" {
		original = p.URL
	}

	return domain.Link{
		ID:             p.ID,
		Platform:       platform,
		NormalizedURL:  p.URL,
		OriginalURL:    original,
		SuggestedTitle: p.DisplayText,
		IsVisible:      p.IsActive,
		IsValid:        true,
		Order:          p.SortOrder,
		State:          state,
		Version:        p.Version,
		SuggestionID:   p.SuggestionID,
		Confidence:     p.Confidence,
		SourcePlatform: p.SourcePlatform,
		SourceType:     p.SourceType,
		Evidence:       p.Evidence,
	}
}

func toPayload(l *domain.Link) linkPayload {
	return linkPayload{
		ID:             l.ID,
		Platform:       l.Platform.ID,
		PlatformType:   l.Platform.Category,
		URL:            l.NormalizedURL,
		OriginalURL:    l.OriginalURL,
		DisplayText:    l.SuggestedTitle,
		SortOrder:      l.Order,
		IsActive:       l.IsVisible,
		State:          l.State.String(),
		Version:        l.Version,
		SuggestionID:   l.SuggestionID,
		Confidence:     l.Confidence,
		SourcePlatform: l.SourcePlatform,
		SourceType:     l.SourceType,
		Evidence:       l.Evidence,
	}
}

// apiError extracts the server's error message, falling back to the status.
func apiError(body []byte, status int) error {
	var e errorResponse
	if len(body) > 0 && json.Unmarshal(body, &e) == nil && e.Error != "" {
		return errors.Errorf("server error (HTTP %d): %s", status, e.Error)
	}
	return errors.Errorf("server error (HTTP %d)", status)
}
