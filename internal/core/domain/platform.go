// internal/core/domain/platform.go
package domain

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Platform is immutable reference data describing one outbound destination type.
type Platform struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Category    string `yaml:"category" json:"category"`
	Icon        string `yaml:"icon,omitempty" json:"icon,omitempty"`
	Color       string `yaml:"color,omitempty" json:"color,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`

	// Rank is the popularity rank used for insertion ordering within a
	// section. Lower means more popular.
	Rank int `yaml:"rank" json:"rank"`
}

// Section returns the display section derived from the platform category.
func (p Platform) Section() Section {
	return SectionOf(p.Category)
}

// Catalog is the platform reference table plus the policy data that rides
// along with it: which platforms may live in two sections at once, and which
// domains the ingestion service knows how to crawl.
type Catalog struct {
	Platforms map[string]Platform `yaml:"platforms"`

	// CrossCategory maps a platform id to the sections it may occupy
	// simultaneously. A platform absent from this map follows the
	// one-occurrence-per-collection rule.
	CrossCategory map[string][]Section `yaml:"cross_category"`

	// IngestableDomains are registered domains whose URLs trigger
	// server-side crawling for further link suggestions.
	IngestableDomains []string `yaml:"ingestable_domains"`
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrCatalogLoadFailed
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, ErrCatalogParseFailed
	}

	if c.Platforms == nil {
		c.Platforms = make(map[string]Platform)
	}
	// IDs in the map keys win over any id field inside the entry.
	for id, p := range c.Platforms {
		p.ID = id
		c.Platforms[id] = p
	}

	return &c, nil
}

// DefaultCatalog returns the built-in platform table. It is the fallback when
// no catalog file is configured and the baseline the tests run against.
func DefaultCatalog() *Catalog {
	platforms := []Platform{
		{ID: "instagram", Name: "Instagram", Category: "social", Rank: 1, Placeholder: "instagram.com/username"},
		{ID: "tiktok", Name: "TikTok", Category: "social", Rank: 2, Placeholder: "tiktok.com/@username"},
		{ID: "youtube", Name: "YouTube", Category: "social", Rank: 3, Placeholder: "youtube.com/@channel"},
		{ID: "twitter", Name: "X (Twitter)", Category: "social", Rank: 4, Placeholder: "x.com/username"},
		{ID: "facebook", Name: "Facebook", Category: "social", Rank: 5, Placeholder: "facebook.com/page"},
		{ID: "twitch", Name: "Twitch", Category: "social", Rank: 6, Placeholder: "twitch.tv/channel"},
		{ID: "snapchat", Name: "Snapchat", Category: "social", Rank: 7, Placeholder: "snapchat.com/add/username"},
		{ID: "threads", Name: "Threads", Category: "social", Rank: 8, Placeholder: "threads.net/@username"},

		{ID: "spotify", Name: "Spotify", Category: "dsp", Rank: 1, Placeholder: "open.spotify.com/artist/..."},
		{ID: "apple_music", Name: "Apple Music", Category: "dsp", Rank: 2, Placeholder: "music.apple.com/artist/..."},
		{ID: "soundcloud", Name: "SoundCloud", Category: "dsp", Rank: 3, Placeholder: "soundcloud.com/artist"},
		{ID: "bandcamp", Name: "Bandcamp", Category: "dsp", Rank: 4, Placeholder: "artist.bandcamp.com"},

		{ID: "venmo", Name: "Venmo", Category: "earnings", Rank: 1, Placeholder: "venmo.com/username"},
		{ID: "cashapp", Name: "Cash App", Category: "earnings", Rank: 2, Placeholder: "cash.app/$username"},
		{ID: "patreon", Name: "Patreon", Category: "earnings", Rank: 3, Placeholder: "patreon.com/creator"},

		{ID: "website", Name: "Website", Category: "websites", Rank: 1, Placeholder: "example.com"},
	}

	m := make(map[string]Platform, len(platforms))
	for _, p := range platforms {
		m[p.ID] = p
	}

	return &Catalog{
		Platforms: m,
		CrossCategory: map[string][]Section{
			"youtube": {SectionSocial, SectionDSP},
		},
		IngestableDomains: []string{
			"linktr.ee",
			"beacons.ai",
			"lnk.bio",
			"linkin.bio",
			"youtube.com",
		},
	}
}

// Platform looks up a platform by id.
func (c *Catalog) Platform(id string) (Platform, bool) {
	p, ok := c.Platforms[id]
	return p, ok
}

// IsCrossCategory reports whether the platform may hold one entry in each of
// two sections at once.
func (c *Catalog) IsCrossCategory(platformID string) bool {
	return len(c.CrossCategory[platformID]) > 1
}

// AllowedIn reports whether the cross-category policy permits the platform in
// the given section.
func (c *Catalog) AllowedIn(platformID string, section Section) bool {
	for _, s := range c.CrossCategory[platformID] {
		if s == section {
			return true
		}
	}
	return false
}

// CanMoveTo reports whether a link may be placed in the target section:
// either the target is its own section, or the policy lists the platform
// for that section.
func (c *Catalog) CanMoveTo(l *Link, target Section) bool {
	if l.Section() == target {
		return true
	}
	return c.AllowedIn(l.Platform.ID, target)
}

// IsIngestable reports whether the registered domain belongs to the set the
// ingestion service can crawl for further links.
func (c *Catalog) IsIngestable(registeredDomain string) bool {
	for _, d := range c.IngestableDomains {
		if d == registeredDomain {
			return true
		}
	}
	return false
}

// SortedPlatforms returns the catalog entries ordered by section then rank,
// for stable display.
func (c *Catalog) SortedPlatforms() []Platform {
	out := make([]Platform, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section() == out[j].Section() {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Section() < out[j].Section()
	})
	return out
}
