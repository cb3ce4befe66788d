// Package urlnorm normalizes link URLs to the canonical form duplicate
// matching relies on. Normalizing an already-normalized URL is a no-op.
package urlnorm

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"linkdeck/internal/platform/errors"
)

// Tracking and analytics query parameters stripped during normalization.
var ignoredParams = map[string]bool{
	// Google Analytics
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true,
	"gclsrc": true, "_ga": true, "_gid": true,

	// Facebook
	"fbclid": true, "fb_action_ids": true, "fb_action_types": true,
	"fb_source": true, "fb_ref": true,

	// Session / misc tracking
	"sessionid": true, "session_id": true, "sid": true,
	"ref": true, "referer": true, "referrer": true,
	"source": true, "src": true, "igsh": true, "si": true,
}

// Normalize canonicalizes a raw URL: default https scheme, lowercase
// scheme/host, no www, no default port, no fragment, no tracking params,
// sorted remaining params, no trailing slash.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.ErrInvalidInput
	}

	// Bare "instagram.com/acme" input is common; give it a scheme so
	// url.Parse yields a host instead of a path.
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse URL")
	}
	if parsed.Host == "" {
		return "", errors.ErrInvalidInput
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Host = strings.TrimPrefix(parsed.Host, "www.")
	parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	parsed.Fragment = ""

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	if query := parsed.Query(); len(query) > 0 {
		kept := url.Values{}
		for key, values := range query {
			if ignoredParams[strings.ToLower(key)] {
				continue
			}
			kept[key] = values
		}

		keys := make([]string, 0, len(kept))
		for k := range kept {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ordered := url.Values{}
		for _, k := range keys {
			ordered[k] = kept[k]
		}
		parsed.RawQuery = ordered.Encode()
	}

	return parsed.String(), nil
}

// RegisteredDomain returns the eTLD+1 of a URL's host ("linktr.ee" for
// "https://linktr.ee/acme"). Used for the ingestable-domain check.
func RegisteredDomain(rawURL string) string {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return ""
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return ""
	}

	host := parsed.Hostname()
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
